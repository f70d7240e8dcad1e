// Package domain contains persistence models for the billing ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// BillingType tags the origin of a charge.
type BillingType string

const (
	// BillingTypeDailyServiceFee is the recurring daily charge written by the
	// billing aggregator. One-off and usage-based charges carry other tags.
	BillingTypeDailyServiceFee BillingType = "DAILY_SERVICE_FEE"
)

// BillingStatus represents payment progress for a billing record.
type BillingStatus string

const (
	BillingStatusPending BillingStatus = "PENDING"
	BillingStatusPaid    BillingStatus = "PAID"
	BillingStatusVoid    BillingStatus = "VOID"
)

// BillingRecord is one pending monetary obligation owed by a merchant for a
// given day. The unique index on (merchant_id, billing_type, due_date) is the
// storage-level guarantee behind at-most-one daily charge per merchant: a
// racing insert fails with a duplicate-key error instead of double-billing.
type BillingRecord struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	MerchantID  snowflake.ID    `gorm:"not null;uniqueIndex:ux_billing_record_day,priority:1"`
	BillingType BillingType     `gorm:"type:text;not null;uniqueIndex:ux_billing_record_day,priority:2"`
	Description string          `gorm:"type:text;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	DueDate     time.Time       `gorm:"not null;uniqueIndex:ux_billing_record_day,priority:3"`
	Status      BillingStatus   `gorm:"type:text;not null;default:'PENDING'"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingRecord) TableName() string { return "billing_records" }
