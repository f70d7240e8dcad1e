// Package domain contains persistence models for the platform service catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Offering is a billable platform service merchants can subscribe to.
// ListPrice is the current list price; historical charges never read it,
// subscriptions freeze their own snapshot at enrollment time.
type Offering struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	Code      string          `gorm:"type:text;not null;uniqueIndex"`
	Name      string          `gorm:"type:text;not null"`
	ListPrice decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Offering) TableName() string { return "offerings" }
