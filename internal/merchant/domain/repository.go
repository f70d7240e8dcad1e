package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/merchflow/merchflow/pkg/db/pagination"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, merchant *Merchant) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Merchant, error)
	List(ctx context.Context, db *gorm.DB, status MerchantStatus, page pagination.Pagination) ([]Merchant, pagination.PageInfo, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status MerchantStatus) error
}
