package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	merchantdomain "github.com/merchflow/merchflow/internal/merchant/domain"
	pkgdb "github.com/merchflow/merchflow/pkg/db"
	"github.com/merchflow/merchflow/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  merchantdomain.Repository
	GenID *snowflake.Node
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  merchantdomain.Repository
	genID *snowflake.Node
}

func NewService(p Params) merchantdomain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("merchant"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *service) Create(ctx context.Context, req merchantdomain.CreateMerchantRequest) (merchantdomain.MerchantResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return merchantdomain.MerchantResponse{}, merchantdomain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return merchantdomain.MerchantResponse{}, merchantdomain.ErrInvalidEmail
	}

	merchant := &merchantdomain.Merchant{
		ID:       s.genID.Generate(),
		Name:     name,
		Slug:     slug.Make(name),
		Email:    email,
		Status:   merchantdomain.MerchantStatusPending,
		Metadata: req.Metadata,
	}

	if err := s.repo.Insert(ctx, s.db, merchant); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return merchantdomain.MerchantResponse{}, merchantdomain.ErrDuplicateMerchant
		}
		return merchantdomain.MerchantResponse{}, err
	}

	s.log.Info("merchant.created",
		zap.String("merchant_id", merchant.ID.String()),
		zap.String("slug", merchant.Slug),
	)

	return merchantdomain.MerchantResponse{
		ID:        merchant.ID.String(),
		Name:      merchant.Name,
		Slug:      merchant.Slug,
		Email:     merchant.Email,
		Status:    merchant.Status,
		CreatedAt: merchant.CreatedAt,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (merchantdomain.Merchant, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return merchantdomain.Merchant{}, merchantdomain.ErrMerchantNotFound
	}
	merchant, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return merchantdomain.Merchant{}, err
	}
	if merchant == nil {
		return merchantdomain.Merchant{}, merchantdomain.ErrMerchantNotFound
	}
	return *merchant, nil
}

func (s *service) List(ctx context.Context, req merchantdomain.ListMerchantRequest) ([]merchantdomain.Merchant, pagination.PageInfo, error) {
	status := merchantdomain.MerchantStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch status {
	case "", merchantdomain.MerchantStatusPending, merchantdomain.MerchantStatusActive, merchantdomain.MerchantStatusSuspended:
	default:
		return nil, pagination.PageInfo{}, merchantdomain.ErrInvalidStatus
	}
	return s.repo.List(ctx, s.db, status, req.Page)
}

func (s *service) Activate(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return merchantdomain.ErrMerchantNotFound
	}
	return s.repo.UpdateStatus(ctx, s.db, parsed, merchantdomain.MerchantStatusActive)
}
