package service

import (
	"context"
	"fmt"
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
	"github.com/merchflow/merchflow/internal/billing/repository"
)

func newTestService(t *testing.T) (billingdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&billingdomain.BillingRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:   db,
		Log:  zaptest.NewLogger(t),
		Repo: repository.Provide(),
	})
	return svc, db, node
}

func seedRecord(t *testing.T, db *gorm.DB, node *snowflake.Node, merchantID snowflake.ID, day time.Time) billingdomain.BillingRecord {
	t.Helper()
	record := billingdomain.BillingRecord{
		ID:          node.Generate(),
		MerchantID:  merchantID,
		BillingType: billingdomain.BillingTypeDailyServiceFee,
		Description: "Daily service fee for " + day.Format("2006-01-02"),
		Amount:      decimal.NewFromInt(100),
		DueDate:     day,
		Status:      billingdomain.BillingStatusPending,
	}
	require.NoError(t, db.Create(&record).Error)
	return record
}

func TestMarkPaid(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	merchant := node.Generate()
	day := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	record := seedRecord(t, db, node, merchant, day)

	require.NoError(t, svc.MarkPaid(ctx, record.ID.String()))

	var stored billingdomain.BillingRecord
	require.NoError(t, db.First(&stored, "id = ?", record.ID).Error)
	assert.Equal(t, billingdomain.BillingStatusPaid, stored.Status)

	err := svc.MarkPaid(ctx, record.ID.String())
	assert.ErrorIs(t, err, billingdomain.ErrInvalidTransition)

	err = svc.MarkPaid(ctx, node.Generate().String())
	assert.ErrorIs(t, err, billingdomain.ErrBillingRecordNotFound)

	err = svc.MarkPaid(ctx, "not-an-id")
	assert.ErrorIs(t, err, billingdomain.ErrBillingRecordNotFound)
}

func TestListByMerchant(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	merchant := node.Generate()
	other := node.Generate()
	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedRecord(t, db, node, merchant, base.AddDate(0, 0, i))
	}
	seedRecord(t, db, node, other, base)

	records, err := svc.ListByMerchant(ctx, billingdomain.ListBillingRecordRequest{
		MerchantID: merchant.String(),
	})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	from := base.AddDate(0, 0, 1)
	records, err = svc.ListByMerchant(ctx, billingdomain.ListBillingRecordRequest{
		MerchantID: merchant.String(),
		From:       &from,
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = svc.ListByMerchant(ctx, billingdomain.ListBillingRecordRequest{MerchantID: "bogus"})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidMerchant)
}
