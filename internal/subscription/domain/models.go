// Package domain contains persistence models for merchant service subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusInactive  SubscriptionStatus = "INACTIVE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription is a merchant's enrollment in a billable platform service.
// PriceAtSubscription is frozen at enrollment time; billing must use this
// snapshot, never the offering's current list price, so historical charges
// stay stable when the catalog price changes.
type Subscription struct {
	ID                  snowflake.ID       `gorm:"primaryKey"`
	MerchantID          snowflake.ID       `gorm:"not null;index"`
	OfferingID          snowflake.ID       `gorm:"not null;index"`
	Status              SubscriptionStatus `gorm:"type:text;not null;index"`
	StartDate           time.Time          `gorm:"not null"`
	EndDate             *time.Time         `gorm:""`
	PriceAtSubscription decimal.Decimal    `gorm:"type:numeric(20,8);not null"`
	Quantity            int                `gorm:"not null"`
	Metadata            datatypes.JSONMap  `gorm:"type:jsonb"`
	CreatedAt           time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// BillableOn reports whether the subscription accrues its daily fee on day:
// status ACTIVE, startDate <= day, and endDate unset or >= day.
func (s Subscription) BillableOn(day time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.StartDate.After(day) {
		return false
	}
	if s.EndDate != nil && s.EndDate.Before(day) {
		return false
	}
	return true
}
