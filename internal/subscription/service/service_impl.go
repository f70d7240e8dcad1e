package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/merchflow/merchflow/internal/clock"
	merchantdomain "github.com/merchflow/merchflow/internal/merchant/domain"
	offeringdomain "github.com/merchflow/merchflow/internal/offering/domain"
	subscriptiondomain "github.com/merchflow/merchflow/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        subscriptiondomain.Repository
	MerchantSvc merchantdomain.Service
	OfferingSvc offeringdomain.Service
	GenID       *snowflake.Node
	Clock       clock.Clock
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        subscriptiondomain.Repository
	merchantSvc merchantdomain.Service
	offeringSvc offeringdomain.Service
	genID       *snowflake.Node
	clock       clock.Clock
}

func NewService(p Params) subscriptiondomain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("subscription"),
		repo:        p.Repo,
		merchantSvc: p.MerchantSvc,
		offeringSvc: p.OfferingSvc,
		genID:       p.GenID,
		clock:       p.Clock,
	}
}

// Create enrolls a merchant into an offering, freezing the offering's current
// list price as the subscription's price snapshot.
func (s *service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.SubscriptionResponse, error) {
	if req.Quantity <= 0 {
		return subscriptiondomain.SubscriptionResponse{}, subscriptiondomain.ErrInvalidQuantity
	}

	merchant, err := s.merchantSvc.GetByID(ctx, req.MerchantID)
	if err != nil {
		return subscriptiondomain.SubscriptionResponse{}, subscriptiondomain.ErrInvalidMerchant
	}

	offering, err := s.offeringSvc.GetByID(ctx, req.OfferingID)
	if err != nil {
		return subscriptiondomain.SubscriptionResponse{}, subscriptiondomain.ErrInvalidOffering
	}
	if !offering.Active {
		return subscriptiondomain.SubscriptionResponse{}, subscriptiondomain.ErrOfferingInactive
	}

	startDate := truncateToDay(s.clock.Now())
	if req.StartDate != nil {
		startDate = truncateToDay(*req.StartDate)
	}

	subscription := &subscriptiondomain.Subscription{
		ID:                  s.genID.Generate(),
		MerchantID:          merchant.ID,
		OfferingID:          offering.ID,
		Status:              subscriptiondomain.SubscriptionStatusActive,
		StartDate:           startDate,
		PriceAtSubscription: offering.ListPrice,
		Quantity:            req.Quantity,
		Metadata:            req.Metadata,
	}
	if err := s.repo.Insert(ctx, s.db, subscription); err != nil {
		return subscriptiondomain.SubscriptionResponse{}, err
	}

	s.log.Info("subscription.created",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("merchant_id", merchant.ID.String()),
		zap.String("offering_id", offering.ID.String()),
		zap.String("price_at_subscription", subscription.PriceAtSubscription.String()),
		zap.Int("quantity", subscription.Quantity),
	)

	return subscriptiondomain.SubscriptionResponse{
		ID:                  subscription.ID.String(),
		MerchantID:          merchant.ID.String(),
		OfferingID:          offering.ID.String(),
		Status:              subscription.Status,
		StartDate:           subscription.StartDate,
		PriceAtSubscription: subscription.PriceAtSubscription,
		Quantity:            subscription.Quantity,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	subscription, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *subscription, nil
}

func (s *service) ListByMerchant(ctx context.Context, merchantID string) ([]subscriptiondomain.Subscription, error) {
	parsed, err := snowflake.ParseString(merchantID)
	if err != nil {
		return nil, subscriptiondomain.ErrInvalidMerchant
	}
	return s.repo.ListByMerchant(ctx, s.db, parsed)
}

// Cancel ends the subscription as of the current billing day. Billing stops
// immediately; only ACTIVE subscriptions enter the billable set.
func (s *service) Cancel(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return subscriptiondomain.ErrSubscriptionNotFound
	}
	endDate := truncateToDay(s.clock.Now())
	if err := s.repo.Cancel(ctx, s.db, parsed, endDate); err != nil {
		return err
	}
	s.log.Info("subscription.cancelled",
		zap.String("subscription_id", parsed.String()),
		zap.Time("end_date", endDate),
	)
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
