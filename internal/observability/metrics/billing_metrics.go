package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every metric.
type Config struct {
	ServiceName string
	Environment string
}

const (
	JobReasonDeadlineExceeded = "deadline_exceeded"
	JobReasonCanceled         = "canceled"
	JobReasonDB               = "db"
	JobReasonUnknown          = "unknown"
)

const (
	RunOutcomeCreated       = "created"
	RunOutcomeAlreadyBilled = "already_billed"
	RunOutcomeSkippedZero   = "skipped_zero"
	RunOutcomeFailed        = "failed"
)

// BillingMetrics captures billing run health signals.
type BillingMetrics struct {
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	jobTimeouts      *prometheus.CounterVec
	jobErrors        *prometheus.CounterVec
	merchantOutcomes *prometheus.CounterVec
	recordsCreated   prometheus.Counter
	runLoopLag       prometheus.Observer
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig returns the singleton billing metrics registry using config labels.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "merchflow"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "merchflow_billing_job_runs_total",
		Help:        "Billing job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "merchflow_billing_job_duration_seconds",
		Help:        "Billing job duration.",
		ConstLabels: constLabels,
		Buckets:     prometheus.DefBuckets,
	}, []string{"job"})

	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "merchflow_billing_job_timeouts_total",
		Help:        "Billing jobs that hit their deadline.",
		ConstLabels: constLabels,
	}, []string{"job"})

	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "merchflow_billing_job_errors_total",
		Help:        "Billing job errors by reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})

	merchantOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "merchflow_billing_merchant_outcomes_total",
		Help:        "Per-merchant billing outcomes per run.",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	recordsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "merchflow_billing_records_created_total",
		Help:        "Billing records created by the aggregator.",
		ConstLabels: constLabels,
	})

	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "merchflow_billing_run_loop_lag_seconds",
		Help:        "Lag between scheduled and actual run start.",
		ConstLabels: constLabels,
		Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})

	collectors := []prometheus.Collector{
		jobRuns, jobDuration, jobTimeouts, jobErrors,
		merchantOutcomes, recordsCreated, runLoopLag,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return &BillingMetrics{
		jobRuns:          jobRuns,
		jobDuration:      jobDuration,
		jobTimeouts:      jobTimeouts,
		jobErrors:        jobErrors,
		merchantOutcomes: merchantOutcomes,
		recordsCreated:   recordsCreated,
		runLoopLag:       runLoopLag,
	}
}

func (m *BillingMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *BillingMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *BillingMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *BillingMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyJobReason(err)).Inc()
}

func (m *BillingMetrics) IncMerchantOutcome(outcome string) {
	if m == nil {
		return
	}
	m.merchantOutcomes.WithLabelValues(outcome).Inc()
}

func (m *BillingMetrics) AddRecordsCreated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.recordsCreated.Add(float64(count))
}

func (m *BillingMetrics) ObserveRunLoopLag(lag time.Duration) {
	if m == nil || lag <= 0 {
		return
	}
	m.runLoopLag.Observe(lag.Seconds())
}

// ClassifyJobReason maps an error to a bounded metric label.
func ClassifyJobReason(err error) string {
	switch {
	case err == nil:
		return JobReasonUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return JobReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return JobReasonCanceled
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "sql") || strings.Contains(msg, "database") || strings.Contains(msg, "constraint") {
		return JobReasonDB
	}
	return JobReasonUnknown
}
