package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	offeringdomain "github.com/merchflow/merchflow/internal/offering/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() offeringdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, offering *offeringdomain.Offering) error {
	return db.WithContext(ctx).Create(offering).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*offeringdomain.Offering, error) {
	var offering offeringdomain.Offering
	err := db.WithContext(ctx).First(&offering, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]offeringdomain.Offering, error) {
	query := db.WithContext(ctx).Order("code")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var offerings []offeringdomain.Offering
	if err := query.Find(&offerings).Error; err != nil {
		return nil, err
	}
	return offerings, nil
}

func (r *repo) UpdateListPrice(ctx context.Context, db *gorm.DB, id snowflake.ID, price decimal.Decimal) error {
	result := db.WithContext(ctx).Model(&offeringdomain.Offering{}).
		Where("id = ?", id).
		Update("list_price", price)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return offeringdomain.ErrOfferingNotFound
	}
	return nil
}
