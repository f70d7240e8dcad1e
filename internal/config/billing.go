package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig controls billing-day computation and run pacing. Billing-day
// boundaries are business significant, so the timezone is explicit configuration
// rather than ambient server time.
type BillingConfig struct {
	Timezone    string        `mapstructure:"timezone"`
	RunInterval time.Duration `mapstructure:"runInterval"`
	JobTimeout  time.Duration `mapstructure:"jobTimeout"`
	BatchSize   int           `mapstructure:"batchSize"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		Timezone:    "UTC",
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
		BatchSize:   200,
	}
}

// Location resolves the configured billing timezone.
func (c BillingConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		name = "UTC"
	}
	return time.LoadLocation(name)
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/merchflow/config")
	v.AddConfigPath("/etc/merchflow")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MERCHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.timezone", defaults.Timezone)
	v.SetDefault("billing.runInterval", defaults.RunInterval)
	v.SetDefault("billing.jobTimeout", defaults.JobTimeout)
	v.SetDefault("billing.batchSize", defaults.BatchSize)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingConfigHolder wraps a fixed config without file watching,
// for tests and one-shot tooling.
func NewStaticBillingConfigHolder(cfg BillingConfig) (*BillingConfigHolder, error) {
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	if cfg, ok := h.current.Load().(BillingConfig); ok {
		return cfg
	}
	return DefaultBillingConfig()
}

func validateBillingConfig(cfg BillingConfig) error {
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if cfg.RunInterval <= 0 {
		return errors.New("billing.runInterval must be positive")
	}
	if cfg.BatchSize <= 0 {
		return errors.New("billing.batchSize must be positive")
	}
	return nil
}
