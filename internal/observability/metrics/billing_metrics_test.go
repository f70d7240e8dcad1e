package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: JobReasonDeadlineExceeded,
		},
		{
			name: "canceled",
			err:  context.Canceled,
			want: JobReasonCanceled,
		},
		{
			name: "database",
			err:  errors.New("sql: connection is already closed"),
			want: JobReasonDB,
		},
		{
			name: "constraint",
			err:  errors.New("UNIQUE constraint failed: billing_records.merchant_id"),
			want: JobReasonDB,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: JobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMerchantOutcomeCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newBillingMetrics(registry, Config{
		ServiceName: "merchflow",
		Environment: "test",
	})

	metrics.IncMerchantOutcome(RunOutcomeCreated)
	metrics.IncMerchantOutcome(RunOutcomeCreated)
	metrics.IncMerchantOutcome(RunOutcomeAlreadyBilled)

	got := testutil.ToFloat64(metrics.merchantOutcomes.WithLabelValues(RunOutcomeCreated))
	if got != 2 {
		t.Fatalf("expected 2 created outcomes, got %v", got)
	}
	got = testutil.ToFloat64(metrics.merchantOutcomes.WithLabelValues(RunOutcomeAlreadyBilled))
	if got != 1 {
		t.Fatalf("expected 1 already_billed outcome, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BillingMetrics
	m.IncJobRun("daily_billing")
	m.ObserveJobDuration("daily_billing", time.Second)
	m.IncJobTimeout("daily_billing")
	m.IncJobError("daily_billing", errors.New("boom"))
	m.IncMerchantOutcome(RunOutcomeFailed)
	m.AddRecordsCreated(1)
	m.ObserveRunLoopLag(time.Second)
}
