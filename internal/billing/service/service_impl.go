package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/merchflow/merchflow/internal/billing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo billingdomain.Repository
}

type service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo billingdomain.Repository
}

func NewService(p Params) billingdomain.Service {
	return &service{
		db:   p.DB,
		log:  p.Log.Named("billing"),
		repo: p.Repo,
	}
}

func (s *service) ListByMerchant(ctx context.Context, req billingdomain.ListBillingRecordRequest) ([]billingdomain.BillingRecord, error) {
	merchantID, err := snowflake.ParseString(req.MerchantID)
	if err != nil {
		return nil, billingdomain.ErrInvalidMerchant
	}
	return s.repo.ListByMerchant(ctx, s.db, merchantID, req.From, req.To)
}

// MarkPaid transitions a PENDING record to PAID. Payment reconciliation is
// driven externally; this is the only transition the platform accepts here.
func (s *service) MarkPaid(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return billingdomain.ErrBillingRecordNotFound
	}
	record, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return err
	}
	if record == nil {
		return billingdomain.ErrBillingRecordNotFound
	}
	if err := s.repo.UpdateStatus(ctx, s.db, parsed, billingdomain.BillingStatusPending, billingdomain.BillingStatusPaid); err != nil {
		return err
	}
	s.log.Info("billing.record.paid",
		zap.String("billing_record_id", parsed.String()),
		zap.String("merchant_id", record.MerchantID.String()),
		zap.String("amount", record.Amount.String()),
	)
	return nil
}
