package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *BillingRecord) error
	// ExistsForDay reports whether a record of the given type exists for the
	// merchant with a due date inside [day, day+24h).
	ExistsForDay(ctx context.Context, db *gorm.DB, merchantID snowflake.ID, billingType BillingType, day time.Time) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingRecord, error)
	ListByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID, from, to *time.Time) ([]BillingRecord, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to BillingStatus) error
}
