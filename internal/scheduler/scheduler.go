// Package scheduler drives the billing aggregator on a fixed cadence. The
// aggregator is idempotent per billing day, so running more often than daily
// only produces already-billed skips.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/merchflow/merchflow/internal/billingrun"
	"github.com/merchflow/merchflow/internal/clock"
	obsmetrics "github.com/merchflow/merchflow/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log    *zap.Logger
	Runner *billingrun.Runner
	Clock  clock.Clock
	Config Config `optional:"true"`
}

type Scheduler struct {
	log    *zap.Logger
	cfg    Config
	runner *billingrun.Runner
	clock  clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Runner == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:    p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:    p.Config.withDefaults(),
		runner: p.Runner,
		clock:  p.Clock,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	billingMetrics := obsmetrics.Billing()
	billingMetrics.IncJobRun(name)

	err := fn(ctx)
	billingMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	// Deadline is a soft failure; the next tick resumes where this one stopped.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		billingMetrics.IncJobTimeout(name)
	}
	billingMetrics.IncJobError(name, err)
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"daily_billing", s.isJobEnabled("daily_billing"), func(ctx context.Context) error {
			return s.runJob(ctx, "daily_billing", s.cfg.JobTimeout, s.DailyBillingJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	billingMetrics := obsmetrics.Billing()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			billingMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs enables everything (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// DailyBillingJob bills the current billing day. Run failures surface through
// the returned error; per-merchant detail lands in the run report log.
func (s *Scheduler) DailyBillingJob(ctx context.Context) error {
	day, err := s.runner.Today()
	if err != nil {
		return err
	}
	_, err = s.runner.RunDailyBilling(ctx, day)
	return err
}
