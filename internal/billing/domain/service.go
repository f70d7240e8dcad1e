package domain

import (
	"context"
	"errors"
	"time"
)

type ListBillingRecordRequest struct {
	MerchantID string
	From       *time.Time
	To         *time.Time
}

type Service interface {
	ListByMerchant(ctx context.Context, req ListBillingRecordRequest) ([]BillingRecord, error)
	MarkPaid(ctx context.Context, id string) error
}

var (
	ErrInvalidMerchant       = errors.New("invalid_merchant")
	ErrBillingRecordNotFound = errors.New("billing_record_not_found")
	ErrInvalidTransition     = errors.New("invalid_billing_transition")
)
