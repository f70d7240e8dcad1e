package billingrun

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	billingdomain "github.com/merchflow/merchflow/internal/billing/domain"
	billingrepository "github.com/merchflow/merchflow/internal/billing/repository"
	"github.com/merchflow/merchflow/internal/clock"
	"github.com/merchflow/merchflow/internal/config"
	subscriptiondomain "github.com/merchflow/merchflow/internal/subscription/domain"
	subscriptionrepository "github.com/merchflow/merchflow/internal/subscription/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&billingdomain.BillingRecord{},
	))
	return db
}

func newTestRunner(t *testing.T, db *gorm.DB, clk clock.Clock) *Runner {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	runner, err := New(Params{
		DB:               db,
		Log:              zaptest.NewLogger(t),
		SubscriptionRepo: subscriptionrepository.Provide(),
		BillingRepo:      billingrepository.Provide(),
		GenID:            node,
		Clock:            clk,
	})
	require.NoError(t, err)
	return runner
}

// seedNode is shared across seedSubscription calls: a fresh node's first
// Generate() in a given millisecond always yields step 0, so per-call nodes
// collide on subscription IDs.
var seedNode = func() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}()

func seedSubscription(t *testing.T, db *gorm.DB, merchantID snowflake.ID, price int64, quantity int, start time.Time, end *time.Time) {
	t.Helper()
	node := seedNode
	sub := subscriptiondomain.Subscription{
		ID:                  node.Generate(),
		MerchantID:          merchantID,
		OfferingID:          node.Generate(),
		Status:              subscriptiondomain.SubscriptionStatusActive,
		StartDate:           start,
		EndDate:             end,
		PriceAtSubscription: decimal.NewFromInt(price),
		Quantity:            quantity,
	}
	require.NoError(t, db.Create(&sub).Error)
}

func billingDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRunDailyBillingAggregatesPerMerchant(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)
	runner := newTestRunner(t, db, clock.NewFakeClock(day.Add(6*time.Hour)))

	node, _ := snowflake.NewNode(3)
	merchantA := node.Generate()
	merchantB := node.Generate()

	start := day.AddDate(0, -1, 0)
	seedSubscription(t, db, merchantA, 100, 2, start, nil)
	seedSubscription(t, db, merchantA, 250, 1, start, nil)
	seedSubscription(t, db, merchantB, 50, 1, start, nil)

	report, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Failed)

	var records []billingdomain.BillingRecord
	require.NoError(t, db.Where("merchant_id = ?", merchantA).Find(&records).Error)
	require.Len(t, records, 1)
	assert.True(t, records[0].Amount.Equal(decimal.NewFromInt(450)), "got %s", records[0].Amount)
	assert.Equal(t, billingdomain.BillingStatusPending, records[0].Status)
	assert.Equal(t, billingdomain.BillingTypeDailyServiceFee, records[0].BillingType)
	assert.True(t, records[0].DueDate.Equal(day))

	require.NoError(t, db.Where("merchant_id = ?", merchantB).Find(&records).Error)
	require.Len(t, records, 1)
	assert.True(t, records[0].Amount.Equal(decimal.NewFromInt(50)))
}

func TestRunDailyBillingIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)
	runner := newTestRunner(t, db, clock.NewFakeClock(day))

	node, _ := snowflake.NewNode(3)
	merchant := node.Generate()
	seedSubscription(t, db, merchant, 100, 1, day.AddDate(0, 0, -7), nil)

	first, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.AlreadyBilled)

	var count int64
	require.NoError(t, db.Model(&billingdomain.BillingRecord{}).Where("merchant_id = ?", merchant).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunDailyBillingHonorsValidityWindow(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)
	runner := newTestRunner(t, db, clock.NewFakeClock(day))

	node, _ := snowflake.NewNode(3)
	futureStart := node.Generate()
	endedYesterday := node.Generate()
	endsToday := node.Generate()

	seedSubscription(t, db, futureStart, 100, 1, day.AddDate(0, 0, 1), nil)
	yesterday := day.AddDate(0, 0, -1)
	seedSubscription(t, db, endedYesterday, 100, 1, day.AddDate(0, -1, 0), &yesterday)
	today := day
	seedSubscription(t, db, endsToday, 100, 1, day.AddDate(0, -1, 0), &today)

	report, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	var records []billingdomain.BillingRecord
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, endsToday, records[0].MerchantID)
}

func TestRunDailyBillingSkipsZeroTotal(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)
	runner := newTestRunner(t, db, clock.NewFakeClock(day))

	node, _ := snowflake.NewNode(3)
	merchant := node.Generate()
	seedSubscription(t, db, merchant, 100, 0, day.AddDate(0, 0, -1), nil)

	report, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.SkippedZero)

	var count int64
	require.NoError(t, db.Model(&billingdomain.BillingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRunDailyBillingUsesPriceSnapshot(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)
	runner := newTestRunner(t, db, clock.NewFakeClock(day))

	node, _ := snowflake.NewNode(3)
	merchant := node.Generate()
	// The subscription froze 100 at enrollment; whatever the catalog says now
	// must not leak into the charge.
	seedSubscription(t, db, merchant, 100, 1, day.AddDate(0, -2, 0), nil)

	report, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)

	var record billingdomain.BillingRecord
	require.NoError(t, db.Where("merchant_id = ?", merchant).First(&record).Error)
	assert.True(t, record.Amount.Equal(decimal.NewFromInt(100)))
}

func TestRunDailyBillingDaysAreIndependent(t *testing.T) {
	db := newTestDB(t)
	day1 := billingDay(2026, time.August, 29)
	day2 := day1.AddDate(0, 0, 1)
	clk := clock.NewFakeClock(day1)
	runner := newTestRunner(t, db, clk)

	node, _ := snowflake.NewNode(3)
	merchant := node.Generate()
	seedSubscription(t, db, merchant, 100, 1, day1.AddDate(0, 0, -1), nil)

	first, err := runner.RunDailyBilling(context.Background(), day1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	clk.Advance(24 * time.Hour)
	second, err := runner.RunDailyBilling(context.Background(), day2)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Created)

	var count int64
	require.NoError(t, db.Model(&billingdomain.BillingRecord{}).Where("merchant_id = ?", merchant).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestTodayTruncatesToMidnight(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, time.August, 29, 17, 42, 9, 0, time.UTC)
	runner := newTestRunner(t, db, clock.NewFakeClock(now))

	day, err := runner.Today()
	require.NoError(t, err)
	assert.True(t, day.Equal(billingDay(2026, time.August, 29)))
}

func TestParseDayMatchesScheduledDay(t *testing.T) {
	db := newTestDB(t)
	holder, err := config.NewStaticBillingConfigHolder(config.BillingConfig{
		Timezone:    "Asia/Jakarta",
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
		BatchSize:   200,
	})
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	// 2026-08-28 23:00 UTC is already 2026-08-29 in Jakarta.
	runner, err := New(Params{
		DB:               db,
		Log:              zaptest.NewLogger(t),
		SubscriptionRepo: subscriptionrepository.Provide(),
		BillingRepo:      billingrepository.Provide(),
		GenID:            node,
		Clock:            clock.NewFakeClock(time.Date(2026, time.August, 28, 23, 0, 0, 0, time.UTC)),
		BillingCfg:       holder,
	})
	require.NoError(t, err)

	today, err := runner.Today()
	require.NoError(t, err)
	parsed, err := runner.ParseDay("2026-08-29")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(today), "parsed %s, scheduled %s", parsed, today)

	merchant := node.Generate()
	seedSubscription(t, db, merchant, 100, 1, today.AddDate(0, 0, -7), nil)

	scheduled, err := runner.RunDailyBilling(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, scheduled.Created)

	// A manual trigger for the same ISO day must not produce a second charge.
	manual, err := runner.RunDailyBilling(context.Background(), parsed)
	require.NoError(t, err)
	assert.Equal(t, 0, manual.Created)
	assert.Equal(t, 1, manual.AlreadyBilled)

	var count int64
	require.NoError(t, db.Model(&billingdomain.BillingRecord{}).Where("merchant_id = ?", merchant).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestParseDayRejectsMalformedDates(t *testing.T) {
	db := newTestDB(t)
	runner := newTestRunner(t, db, clock.NewFakeClock(billingDay(2026, time.August, 29)))

	for _, date := range []string{"", "2026-8-29", "29-08-2026", "2026-08-29T00:00:00Z"} {
		_, err := runner.ParseDay(date)
		assert.Error(t, err, "date %q", date)
	}
}

func TestRunDailyBillingConcurrentRunsBillOnce(t *testing.T) {
	db := newTestDB(t)
	// One pooled connection serializes statements while the two runs still
	// interleave their check-and-insert sequences.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	day := billingDay(2026, time.August, 29)
	runner := newTestRunner(t, db, clock.NewFakeClock(day))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	merchantA := node.Generate()
	merchantB := node.Generate()
	seedSubscription(t, db, merchantA, 100, 1, day.AddDate(0, 0, -7), nil)
	seedSubscription(t, db, merchantB, 250, 1, day.AddDate(0, 0, -7), nil)

	var wg sync.WaitGroup
	reports := make([]*Report, 2)
	errs := make([]error, 2)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], errs[i] = runner.RunDailyBilling(context.Background(), day)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := range reports {
		require.NoError(t, errs[i])
		require.NotNil(t, reports[i])
		assert.Equal(t, 0, reports[i].Failed)
		assert.Equal(t, 2, reports[i].Created+reports[i].AlreadyBilled)
		created += reports[i].Created
	}
	assert.Equal(t, 2, created, "each merchant is charged by exactly one of the runs")

	var count int64
	require.NoError(t, db.Model(&billingdomain.BillingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

// countingSubscriptionRepo records how many pages the runner fetched.
type countingSubscriptionRepo struct {
	subscriptiondomain.Repository
	fetches int
	limits  []int
}

func (r *countingSubscriptionRepo) FindBillableForDay(ctx context.Context, db *gorm.DB, day time.Time, afterID snowflake.ID, limit int) ([]subscriptiondomain.Subscription, error) {
	r.fetches++
	r.limits = append(r.limits, limit)
	return r.Repository.FindBillableForDay(ctx, db, day, afterID, limit)
}

func TestRunDailyBillingReadsInConfiguredBatches(t *testing.T) {
	db := newTestDB(t)
	holder, err := config.NewStaticBillingConfigHolder(config.BillingConfig{
		Timezone:    "UTC",
		RunInterval: time.Hour,
		JobTimeout:  5 * time.Minute,
		BatchSize:   1,
	})
	require.NoError(t, err)

	day := billingDay(2026, time.August, 29)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	subRepo := &countingSubscriptionRepo{Repository: subscriptionrepository.Provide()}
	runner, err := New(Params{
		DB:               db,
		Log:              zaptest.NewLogger(t),
		SubscriptionRepo: subRepo,
		BillingRepo:      billingrepository.Provide(),
		GenID:            node,
		Clock:            clock.NewFakeClock(day),
		BillingCfg:       holder,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		seedSubscription(t, db, node.Generate(), 100, 1, day.AddDate(0, 0, -7), nil)
	}

	report, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)

	// Three full pages of one row each, then the short page that ends the scan.
	assert.Equal(t, 4, subRepo.fetches)
	assert.Equal(t, []int{1, 1, 1, 1}, subRepo.limits)
}

// raceBillingRepo simulates losing the insert race to a concurrent run: the
// pre-check sees nothing, then the insert hits the uniqueness constraint.
type raceBillingRepo struct {
	billingdomain.Repository
}

func (r *raceBillingRepo) ExistsForDay(ctx context.Context, db *gorm.DB, merchantID snowflake.ID, billingType billingdomain.BillingType, day time.Time) (bool, error) {
	return false, nil
}

func (r *raceBillingRepo) Insert(ctx context.Context, db *gorm.DB, record *billingdomain.BillingRecord) error {
	return gorm.ErrDuplicatedKey
}

func TestRunDailyBillingTreatsInsertRaceAsAlreadyBilled(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	runner, err := New(Params{
		DB:               db,
		Log:              zaptest.NewLogger(t),
		SubscriptionRepo: subscriptionrepository.Provide(),
		BillingRepo:      &raceBillingRepo{},
		GenID:            node,
		Clock:            clock.NewFakeClock(day),
	})
	require.NoError(t, err)

	merchant := node.Generate()
	seedSubscription(t, db, merchant, 100, 1, day.AddDate(0, 0, -1), nil)

	report, err := runner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.AlreadyBilled)
	assert.Equal(t, 0, report.Failed)
}

// flakyBillingRepo fails inserts for one configured merchant and delegates
// everything else to the real repository.
type flakyBillingRepo struct {
	billingdomain.Repository
	failFor snowflake.ID
}

func (r *flakyBillingRepo) Insert(ctx context.Context, db *gorm.DB, record *billingdomain.BillingRecord) error {
	if record.MerchantID == r.failFor {
		return fmt.Errorf("write billing record: connection reset")
	}
	return r.Repository.Insert(ctx, db, record)
}

func TestRunDailyBillingIsolatesMerchantFailures(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	badMerchant := node.Generate()
	goodMerchant := node.Generate()

	runner, err := New(Params{
		DB:               db,
		Log:              zaptest.NewLogger(t),
		SubscriptionRepo: subscriptionrepository.Provide(),
		BillingRepo:      &flakyBillingRepo{Repository: billingrepository.Provide(), failFor: badMerchant},
		GenID:            node,
		Clock:            clock.NewFakeClock(day),
	})
	require.NoError(t, err)

	seedSubscription(t, db, badMerchant, 100, 1, day.AddDate(0, 0, -1), nil)
	seedSubscription(t, db, goodMerchant, 200, 1, day.AddDate(0, 0, -1), nil)

	report, err := runner.RunDailyBilling(context.Background(), day)
	require.Error(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Failed)

	var records []billingdomain.BillingRecord
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, goodMerchant, records[0].MerchantID)

	// The failed merchant is picked up by a retry for the same day and the
	// healthy merchant is skipped as already billed.
	retryRunner := newTestRunner(t, db, clock.NewFakeClock(day))
	retry, err := retryRunner.RunDailyBilling(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Created)
	assert.Equal(t, 1, retry.AlreadyBilled)
}

// cancellingSubscriptionRepo cancels the run context right after the billable
// set is read, so cancellation lands between merchants.
type cancellingSubscriptionRepo struct {
	subscriptiondomain.Repository
	cancel context.CancelFunc
}

func (r *cancellingSubscriptionRepo) FindBillableForDay(ctx context.Context, db *gorm.DB, day time.Time, afterID snowflake.ID, limit int) ([]subscriptiondomain.Subscription, error) {
	subs, err := r.Repository.FindBillableForDay(context.Background(), db, day, afterID, limit)
	r.cancel()
	return subs, err
}

func TestRunDailyBillingStopsOnCancellation(t *testing.T) {
	db := newTestDB(t)
	day := billingDay(2026, time.August, 29)

	ctx, cancel := context.WithCancel(context.Background())
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	runner, err := New(Params{
		DB:               db,
		Log:              zaptest.NewLogger(t),
		SubscriptionRepo: &cancellingSubscriptionRepo{Repository: subscriptionrepository.Provide(), cancel: cancel},
		BillingRepo:      billingrepository.Provide(),
		GenID:            node,
		Clock:            clock.NewFakeClock(day),
	})
	require.NoError(t, err)

	seedSubscription(t, db, node.Generate(), 100, 1, day.AddDate(0, 0, -1), nil)
	seedSubscription(t, db, node.Generate(), 200, 1, day.AddDate(0, 0, -1), nil)

	report, err := runner.RunDailyBilling(ctx, day)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Created)
	assert.Empty(t, report.Results)

	var count int64
	require.NoError(t, db.Model(&billingdomain.BillingRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
