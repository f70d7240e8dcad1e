package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	billingdomain "github.com/merchflow/merchflow/internal/billing/domain"
	merchantdomain "github.com/merchflow/merchflow/internal/merchant/domain"
	offeringdomain "github.com/merchflow/merchflow/internal/offering/domain"
	subscriptiondomain "github.com/merchflow/merchflow/internal/subscription/domain"
)

const (
	demoMerchantName = "Demo Store"
	demoMerchantSlug = "demo-store"
)

// EnsureDefaultOfferings seeds the platform service catalog so a fresh
// install has something to subscribe merchants to.
func EnsureDefaultOfferings(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		defaults := []offeringdomain.Offering{
			{Code: "storefront", Name: "Online Storefront", ListPrice: decimal.NewFromInt(100)},
			{Code: "inventory", Name: "Inventory Management", ListPrice: decimal.NewFromInt(250)},
			{Code: "analytics", Name: "Sales Analytics", ListPrice: decimal.NewFromInt(150)},
		}

		for _, o := range defaults {
			if _, err := ensureOfferingTx(ctx, tx, node, o); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureDemoData seeds a demo merchant with active subscriptions so local
// installs can exercise the billing run without any manual setup.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merchant, err := ensureDemoMerchantTx(ctx, tx, node)
		if err != nil {
			return err
		}

		for _, code := range []string{"storefront", "inventory"} {
			var offering offeringdomain.Offering
			if err := tx.WithContext(ctx).Where("code = ?", code).First(&offering).Error; err != nil {
				return err
			}
			if err := ensureSubscriptionTx(ctx, tx, node, merchant.ID, offering); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureOfferingTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, want offeringdomain.Offering) (offeringdomain.Offering, error) {
	var offering offeringdomain.Offering
	err := tx.WithContext(ctx).Where("code = ?", want.Code).First(&offering).Error
	if err == nil {
		return offering, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return offering, err
	}

	now := time.Now().UTC()
	offering = offeringdomain.Offering{
		ID:        node.Generate(),
		Code:      want.Code,
		Name:      want.Name,
		ListPrice: want.ListPrice,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&offering).Error; err != nil {
		return offering, err
	}
	return offering, nil
}

func ensureDemoMerchantTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (merchantdomain.Merchant, error) {
	var merchant merchantdomain.Merchant
	err := tx.WithContext(ctx).Where("slug = ?", demoMerchantSlug).First(&merchant).Error
	if err == nil {
		return merchant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return merchant, err
	}

	now := time.Now().UTC()
	merchant = merchantdomain.Merchant{
		ID:        node.Generate(),
		Name:      demoMerchantName,
		Slug:      demoMerchantSlug,
		Email:     "demo@merchflow.dev",
		Status:    merchantdomain.MerchantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&merchant).Error; err != nil {
		return merchant, err
	}
	return merchant, nil
}

func ensureSubscriptionTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, merchantID snowflake.ID, offering offeringdomain.Offering) error {
	var existing subscriptiondomain.Subscription
	err := tx.WithContext(ctx).
		Where("merchant_id = ? AND offering_id = ? AND status = ?",
			merchantID, offering.ID, subscriptiondomain.SubscriptionStatusActive).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	sub := subscriptiondomain.Subscription{
		ID:                  node.Generate(),
		MerchantID:          merchantID,
		OfferingID:          offering.ID,
		Status:              subscriptiondomain.SubscriptionStatusActive,
		StartDate:           time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		PriceAtSubscription: offering.ListPrice,
		Quantity:            1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return tx.WithContext(ctx).Create(&sub).Error
}

// Models lists every persisted type, in dependency order, for AutoMigrate
// on dialects without SQL migrations.
func Models() []any {
	return []any{
		&merchantdomain.Merchant{},
		&offeringdomain.Offering{},
		&subscriptiondomain.Subscription{},
		&billingdomain.BillingRecord{},
	}
}
