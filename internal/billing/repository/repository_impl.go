package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/merchflow/merchflow/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *billingdomain.BillingRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) ExistsForDay(ctx context.Context, db *gorm.DB, merchantID snowflake.ID, billingType billingdomain.BillingType, day time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&billingdomain.BillingRecord{}).
		Where("merchant_id = ?", merchantID).
		Where("billing_type = ?", billingType).
		Where("due_date >= ? AND due_date < ?", day, day.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.BillingRecord, error) {
	var record billingdomain.BillingRecord
	err := db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) ListByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID, from, to *time.Time) ([]billingdomain.BillingRecord, error) {
	query := db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("due_date DESC, id DESC")
	if from != nil {
		query = query.Where("due_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("due_date < ?", *to)
	}
	var records []billingdomain.BillingRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to billingdomain.BillingStatus) error {
	result := db.WithContext(ctx).Model(&billingdomain.BillingRecord{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return billingdomain.ErrInvalidTransition
	}
	return nil
}
