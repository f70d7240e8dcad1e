package domain

import (
	"context"
	"errors"
	"time"

	"github.com/merchflow/merchflow/pkg/db/pagination"
)

type CreateMerchantRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type MerchantResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Email     string         `json:"email"`
	Status    MerchantStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

type ListMerchantRequest struct {
	Status string
	Page   pagination.Pagination
}

type Service interface {
	Create(ctx context.Context, req CreateMerchantRequest) (MerchantResponse, error)
	GetByID(ctx context.Context, id string) (Merchant, error)
	List(ctx context.Context, req ListMerchantRequest) ([]Merchant, pagination.PageInfo, error)
	Activate(ctx context.Context, id string) error
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrMerchantNotFound  = errors.New("merchant_not_found")
	ErrDuplicateMerchant = errors.New("duplicate_merchant")
)
