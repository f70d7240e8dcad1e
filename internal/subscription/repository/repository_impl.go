package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/merchflow/merchflow/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).First(&subscription, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) ListByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("id").
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) FindBillableForDay(ctx context.Context, db *gorm.DB, day time.Time, afterID snowflake.ID, limit int) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("status = ?", subscriptiondomain.SubscriptionStatusActive).
		Where("start_date <= ?", day).
		Where("end_date IS NULL OR end_date >= ?", day).
		Where("id > ?", afterID).
		Order("id").
		Limit(limit).
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, endDate time.Time) error {
	result := db.WithContext(ctx).Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", id).
		Where("status = ?", subscriptiondomain.SubscriptionStatusActive).
		Updates(map[string]any{
			"status":   subscriptiondomain.SubscriptionStatusCancelled,
			"end_date": endDate,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return subscriptiondomain.ErrAlreadyCancelled
	}
	return nil
}
