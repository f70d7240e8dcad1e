package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	merchantdomain "github.com/merchflow/merchflow/internal/merchant/domain"
	"github.com/merchflow/merchflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() merchantdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, merchant *merchantdomain.Merchant) error {
	return db.WithContext(ctx).Create(merchant).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*merchantdomain.Merchant, error) {
	var merchant merchantdomain.Merchant
	err := db.WithContext(ctx).First(&merchant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status merchantdomain.MerchantStatus, page pagination.Pagination) ([]merchantdomain.Merchant, pagination.PageInfo, error) {
	pageSize := page.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 250 {
		pageSize = 250
	}

	query := db.WithContext(ctx).Order("id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, pagination.PageInfo{}, err
		}
		lastID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, pagination.PageInfo{}, err
		}
		query = query.Where("id > ?", lastID)
	}

	var merchants []merchantdomain.Merchant
	// Fetch one extra row to learn whether another page exists.
	if err := query.Limit(pageSize + 1).Find(&merchants).Error; err != nil {
		return nil, pagination.PageInfo{}, err
	}

	info := pagination.PageInfo{}
	if len(merchants) > pageSize {
		merchants = merchants[:pageSize]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: merchants[len(merchants)-1].ID.String(),
		})
		if err != nil {
			return nil, pagination.PageInfo{}, err
		}
		info.NextPageToken = token
		info.HasMore = true
	}
	return merchants, info, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status merchantdomain.MerchantStatus) error {
	result := db.WithContext(ctx).Model(&merchantdomain.Merchant{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return merchantdomain.ErrMerchantNotFound
	}
	return nil
}
