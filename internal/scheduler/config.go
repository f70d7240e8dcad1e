package scheduler

import (
	"time"

	"github.com/merchflow/merchflow/internal/config"
)

// Config controls scheduler pacing.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

// ProvideConfig derives scheduler pacing from the hot-reloadable billing config.
func ProvideConfig(holder *config.BillingConfigHolder) Config {
	if holder == nil {
		return DefaultConfig()
	}
	billing := holder.Get()
	return Config{
		RunInterval: billing.RunInterval,
		JobTimeout:  billing.JobTimeout,
	}.withDefaults()
}
