// Package billingrun converts active merchant subscriptions into one pending
// daily charge per merchant, exactly once per billing day.
package billingrun

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/merchflow/merchflow/internal/billing/domain"
	"github.com/merchflow/merchflow/internal/clock"
	"github.com/merchflow/merchflow/internal/config"
	obsmetrics "github.com/merchflow/merchflow/internal/observability/metrics"
	subscriptiondomain "github.com/merchflow/merchflow/internal/subscription/domain"
	pkgdb "github.com/merchflow/merchflow/pkg/db"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("billingrun: missing dependency")

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	SubscriptionRepo subscriptiondomain.Repository
	BillingRepo      billingdomain.Repository
	GenID            *snowflake.Node
	Clock            clock.Clock
	BillingCfg       *config.BillingConfigHolder `optional:"true"`
}

// Runner owns the daily billing aggregation. It holds no state between runs;
// idempotency comes from the ledger's uniqueness constraint, not from memory.
type Runner struct {
	db               *gorm.DB
	log              *zap.Logger
	subscriptionRepo subscriptiondomain.Repository
	billingRepo      billingdomain.Repository
	genID            *snowflake.Node
	clock            clock.Clock
	billingCfg       *config.BillingConfigHolder
}

func New(p Params) (*Runner, error) {
	if p.DB == nil || p.Log == nil || p.SubscriptionRepo == nil || p.BillingRepo == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Runner{
		db:               p.DB,
		log:              p.Log.Named("billingrun").With(zap.String("component", "billingrun")),
		subscriptionRepo: p.SubscriptionRepo,
		billingRepo:      p.BillingRepo,
		genID:            p.GenID,
		clock:            p.Clock,
		billingCfg:       p.BillingCfg,
	}, nil
}

func (r *Runner) billingConfig() config.BillingConfig {
	if r.billingCfg != nil {
		return r.billingCfg.Get()
	}
	return config.DefaultBillingConfig()
}

// Today returns the current billing day: clock time in the configured billing
// timezone, truncated to midnight. The timezone is explicit configuration
// because day boundaries decide what gets charged.
func (r *Runner) Today() (time.Time, error) {
	loc, err := r.billingConfig().Location()
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve billing timezone: %w", err)
	}
	return truncateToDay(r.clock.Now().In(loc)), nil
}

// ParseDay interprets a YYYY-MM-DD string as a calendar day in the configured
// billing timezone. Caller-supplied dates must resolve to the same instant a
// scheduled run would use, otherwise the same ISO day could be billed twice
// under two different midnights.
func (r *Runner) ParseDay(date string) (time.Time, error) {
	loc, err := r.billingConfig().Location()
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve billing timezone: %w", err)
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse billing day %q: %w", date, err)
	}
	return day, nil
}

// RunDailyBilling bills every merchant with a positive billable total on day,
// writing at most one PENDING daily-service-fee record per merchant. The
// operation is idempotent: merchants billed by a prior run for day are skipped,
// and the ledger's uniqueness constraint turns a concurrent-run race into a
// benign already-billed outcome. A read failure aborts the run; write failures
// are isolated per merchant and collected into the report and the joined error.
func (r *Runner) RunDailyBilling(ctx context.Context, day time.Time) (*Report, error) {
	day = truncateToDay(day)
	report := newReport(ulid.Make().String(), day)
	billingMetrics := obsmetrics.Billing()

	log := r.log.With(
		zap.String("run_id", report.RunID),
		zap.String("billing_day", day.Format("2006-01-02")),
	)
	start := time.Now()
	log.Info("billing.run.start")
	billingMetrics.IncJobRun("daily_billing")

	batchSize := r.billingConfig().BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBillingConfig().BatchSize
	}

	// Keyset pagination keeps memory bounded on large tenants; the full
	// billable set is still assembled before any merchant is charged, so a
	// page fetch failure aborts the run before the first write.
	var billable []subscriptiondomain.Subscription
	var afterID snowflake.ID
	for {
		page, err := r.subscriptionRepo.FindBillableForDay(ctx, r.db, day, afterID, batchSize)
		if err != nil {
			billingMetrics.IncJobError("daily_billing", err)
			log.Error("billing.run.fetch_failed", zap.Error(err))
			return nil, fmt.Errorf("fetch billable subscriptions: %w", err)
		}
		billable = append(billable, page...)
		if len(page) < batchSize {
			break
		}
		afterID = page[len(page)-1].ID
	}

	groups := lo.GroupBy(billable, func(sub subscriptiondomain.Subscription) snowflake.ID {
		return sub.MerchantID
	})
	merchantIDs := make([]snowflake.ID, 0, len(groups))
	for merchantID := range groups {
		merchantIDs = append(merchantIDs, merchantID)
	}
	// Iteration order is an implementation detail; sorting only keeps runs
	// reproducible for debugging.
	sort.Slice(merchantIDs, func(i, j int) bool { return merchantIDs[i] < merchantIDs[j] })

	var runErr error
	for _, merchantID := range merchantIDs {
		if err := ctx.Err(); err != nil {
			// Stop before the next merchant; committed records stay. A later
			// run for the same day skips them and completes the remainder.
			runErr = errors.Join(runErr, err)
			billingMetrics.IncJobError("daily_billing", err)
			log.Warn("billing.run.interrupted",
				zap.Int("remaining_merchants", len(merchantIDs)-len(report.Results)),
				zap.Error(err),
			)
			break
		}

		result := r.billMerchant(ctx, log, merchantID, groups[merchantID], day)
		report.add(result)
		billingMetrics.IncMerchantOutcome(string(result.Outcome))
		if result.Outcome == OutcomeFailed {
			runErr = errors.Join(runErr, fmt.Errorf("merchant %s: %w", merchantID, result.Err))
		}
	}

	billingMetrics.AddRecordsCreated(report.Created)
	billingMetrics.ObserveJobDuration("daily_billing", time.Since(start))

	fields := []zap.Field{
		zap.Int("created", report.Created),
		zap.Int("already_billed", report.AlreadyBilled),
		zap.Int("skipped_zero", report.SkippedZero),
		zap.Int("failed", report.Failed),
		zap.String("total_billed", report.TotalBilled.String()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if report.Failed > 0 {
		log.Warn("billing.run.finish", fields...)
	} else {
		log.Info("billing.run.finish", fields...)
	}

	return report, runErr
}

// billMerchant runs the check-and-insert sequence for a single merchant. Every
// path yields an explicit result; nothing is swallowed.
func (r *Runner) billMerchant(ctx context.Context, log *zap.Logger, merchantID snowflake.ID, subs []subscriptiondomain.Subscription, day time.Time) MerchantResult {
	total := decimal.Zero
	for _, sub := range subs {
		line := sub.PriceAtSubscription.Mul(decimal.NewFromInt(int64(sub.Quantity)))
		total = total.Add(line)
	}

	if !total.IsPositive() {
		log.Debug("billing.merchant.zero_total",
			zap.String("merchant_id", merchantID.String()),
			zap.Int("subscription_count", len(subs)),
		)
		return MerchantResult{MerchantID: merchantID, Outcome: OutcomeSkippedZero, Amount: total}
	}

	// Defensive pre-check; the uniqueness constraint is the real guarantee.
	exists, err := r.billingRepo.ExistsForDay(ctx, r.db, merchantID, billingdomain.BillingTypeDailyServiceFee, day)
	if err != nil {
		r.logMerchantError(log, merchantID, "billing.merchant.check_failed", err)
		return MerchantResult{MerchantID: merchantID, Outcome: OutcomeFailed, Amount: total, Err: err}
	}
	if exists {
		log.Info("billing.merchant.already_billed", zap.String("merchant_id", merchantID.String()))
		return MerchantResult{MerchantID: merchantID, Outcome: OutcomeAlreadyBilled, Amount: total}
	}

	record := &billingdomain.BillingRecord{
		ID:          r.genID.Generate(),
		MerchantID:  merchantID,
		BillingType: billingdomain.BillingTypeDailyServiceFee,
		Description: fmt.Sprintf("Daily service fee for %s", day.Format("2006-01-02")),
		Amount:      total,
		DueDate:     day,
		Status:      billingdomain.BillingStatusPending,
	}
	if err := r.billingRepo.Insert(ctx, r.db, record); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			// Lost the insert race to a concurrent run; the charge exists.
			log.Info("billing.merchant.already_billed",
				zap.String("merchant_id", merchantID.String()),
				zap.String("reason", "unique_violation"),
			)
			return MerchantResult{MerchantID: merchantID, Outcome: OutcomeAlreadyBilled, Amount: total}
		}
		r.logMerchantError(log, merchantID, "billing.merchant.insert_failed", err)
		return MerchantResult{MerchantID: merchantID, Outcome: OutcomeFailed, Amount: total, Err: err}
	}

	log.Info("billing.merchant.billed",
		zap.String("merchant_id", merchantID.String()),
		zap.String("billing_record_id", record.ID.String()),
		zap.String("amount", total.String()),
		zap.Int("subscription_count", len(subs)),
	)
	return MerchantResult{MerchantID: merchantID, Outcome: OutcomeCreated, Amount: total, RecordID: record.ID}
}

func (r *Runner) logMerchantError(log *zap.Logger, merchantID snowflake.ID, msg string, err error) {
	log.Error(msg,
		zap.String("merchant_id", merchantID.String()),
		zap.String("error_type", obsmetrics.ClassifyJobReason(err)),
		zap.Error(err),
	)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
