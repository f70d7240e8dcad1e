// Package domain contains persistence models for merchants.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// MerchantStatus represents lifecycle states for a merchant account.
type MerchantStatus string

const (
	MerchantStatusPending   MerchantStatus = "PENDING"
	MerchantStatusActive    MerchantStatus = "ACTIVE"
	MerchantStatusSuspended MerchantStatus = "SUSPENDED"
)

// Merchant is a seller tenant subscribing to platform services.
type Merchant struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	Name      string            `gorm:"type:text;not null"`
	Slug      string            `gorm:"type:text;not null;uniqueIndex"`
	Email     string            `gorm:"type:text;not null"`
	Status    MerchantStatus    `gorm:"type:text;not null;default:'PENDING'"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Merchant) TableName() string { return "merchants" }
