package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/merchflow/merchflow/internal/clock"
)

func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	sched := &Scheduler{
		log:    zaptest.NewLogger(t),
		cfg:    cfg.withDefaults(),
		clock:  clock.NewFakeClock(time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)),
		runner: nil,
	}
	return sched
}

func TestRunJobTimeoutIsSoftFailure(t *testing.T) {
	sched := newTestScheduler(t, Config{})

	err := sched.runJob(context.Background(), "daily_billing", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err, "deadline should not bubble up as a run failure")
}

func TestRunJobPropagatesHardFailure(t *testing.T) {
	sched := newTestScheduler(t, Config{})

	boom := errors.New("subscription store unavailable")
	err := sched.runJob(context.Background(), "daily_billing", time.Second, func(ctx context.Context) error {
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRunJobSuccess(t *testing.T) {
	sched := newTestScheduler(t, Config{})

	var ran bool
	err := sched.runJob(context.Background(), "daily_billing", time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)
}

func TestIsJobEnabled(t *testing.T) {
	all := newTestScheduler(t, Config{})
	assert.True(t, all.isJobEnabled("daily_billing"))

	scoped := newTestScheduler(t, Config{EnabledJobs: []string{"Daily_Billing"}})
	assert.True(t, scoped.isJobEnabled("daily_billing"))
	assert.False(t, scoped.isJobEnabled("monthly_rollup"))
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)

	custom := Config{RunInterval: time.Minute, JobTimeout: time.Second}.withDefaults()
	assert.Equal(t, time.Minute, custom.RunInterval)
	assert.Equal(t, time.Second, custom.JobTimeout)
}

func TestProvideConfigWithoutHolder(t *testing.T) {
	cfg := ProvideConfig(nil)
	assert.Equal(t, DefaultConfig(), cfg)
}
