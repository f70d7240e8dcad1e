package billingrun

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Outcome classifies what happened to one merchant during a run.
type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeAlreadyBilled Outcome = "already_billed"
	OutcomeSkippedZero   Outcome = "skipped_zero"
	OutcomeFailed        Outcome = "failed"
)

// MerchantResult is the per-merchant outcome of a billing run. Failures are
// carried here explicitly instead of being swallowed mid-loop.
type MerchantResult struct {
	MerchantID snowflake.ID    `json:"merchant_id"`
	Outcome    Outcome         `json:"outcome"`
	Amount     decimal.Decimal `json:"amount"`
	RecordID   snowflake.ID    `json:"record_id,omitempty"`
	Err        error           `json:"-"`
}

// Report aggregates the outcome of one RunDailyBilling invocation.
type Report struct {
	RunID         string          `json:"run_id"`
	Day           time.Time       `json:"day"`
	Created       int             `json:"created"`
	AlreadyBilled int             `json:"already_billed"`
	SkippedZero   int             `json:"skipped_zero"`
	Failed        int             `json:"failed"`
	TotalBilled   decimal.Decimal  `json:"total_billed"`
	Results       []MerchantResult `json:"results"`
}

func newReport(runID string, day time.Time) *Report {
	return &Report{
		RunID:       runID,
		Day:         day,
		TotalBilled: decimal.Zero,
	}
}

func (r *Report) add(result MerchantResult) {
	r.Results = append(r.Results, result)
	switch result.Outcome {
	case OutcomeCreated:
		r.Created++
		r.TotalBilled = r.TotalBilled.Add(result.Amount)
	case OutcomeAlreadyBilled:
		r.AlreadyBilled++
	case OutcomeSkippedZero:
		r.SkippedZero++
	case OutcomeFailed:
		r.Failed++
	}
}

// Summary renders an operator-facing one-liner for console output.
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"billing run %s for %s: %d records created (total %s), %d already billed, %d zero-total skipped, %d failed",
		r.RunID,
		r.Day.Format("2006-01-02"),
		r.Created,
		r.TotalBilled.String(),
		r.AlreadyBilled,
		r.SkippedZero,
		r.Failed,
	)
}
