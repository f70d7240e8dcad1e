package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateOfferingRequest struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	ListPrice decimal.Decimal `json:"list_price"`
}

type UpdateListPriceRequest struct {
	OfferingID string          `json:"-"`
	ListPrice  decimal.Decimal `json:"list_price"`
}

type Service interface {
	Create(ctx context.Context, req CreateOfferingRequest) (Offering, error)
	GetByID(ctx context.Context, id string) (Offering, error)
	List(ctx context.Context, activeOnly bool) ([]Offering, error)
	UpdateListPrice(ctx context.Context, req UpdateListPriceRequest) (Offering, error)
}

var (
	ErrInvalidCode       = errors.New("invalid_code")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidListPrice  = errors.New("invalid_list_price")
	ErrOfferingNotFound  = errors.New("offering_not_found")
	ErrDuplicateOffering = errors.New("duplicate_offering")
)
