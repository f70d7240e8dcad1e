package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CreateSubscriptionRequest struct {
	MerchantID string         `json:"merchant_id"`
	OfferingID string         `json:"offering_id"`
	Quantity   int            `json:"quantity"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type SubscriptionResponse struct {
	ID                  string             `json:"id"`
	MerchantID          string             `json:"merchant_id"`
	OfferingID          string             `json:"offering_id"`
	Status              SubscriptionStatus `json:"status"`
	StartDate           time.Time          `json:"start_date"`
	EndDate             *time.Time         `json:"end_date,omitempty"`
	PriceAtSubscription decimal.Decimal    `json:"price_at_subscription"`
	Quantity            int                `json:"quantity"`
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (SubscriptionResponse, error)
	GetByID(ctx context.Context, id string) (Subscription, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]Subscription, error)
	Cancel(ctx context.Context, id string) error
}

var (
	ErrInvalidMerchant      = errors.New("invalid_merchant")
	ErrInvalidOffering      = errors.New("invalid_offering")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidStartDate     = errors.New("invalid_start_date")
	ErrOfferingInactive     = errors.New("offering_inactive")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrAlreadyCancelled     = errors.New("subscription_already_cancelled")
)
