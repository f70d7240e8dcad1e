package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, offering *Offering) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Offering, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]Offering, error)
	UpdateListPrice(ctx context.Context, db *gorm.DB, id snowflake.ID, price decimal.Decimal) error
}
