package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListByMerchant(ctx context.Context, db *gorm.DB, merchantID snowflake.ID) ([]Subscription, error)
	// FindBillableForDay returns one page of the billable set for day: ACTIVE
	// subscriptions whose validity window [start_date, end_date] covers the
	// day, ordered by id, starting after afterID, at most limit rows.
	FindBillableForDay(ctx context.Context, db *gorm.DB, day time.Time, afterID snowflake.ID, limit int) ([]Subscription, error)
	Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID, endDate time.Time) error
}
