package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	offeringdomain "github.com/merchflow/merchflow/internal/offering/domain"
	pkgdb "github.com/merchflow/merchflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  offeringdomain.Repository
	GenID *snowflake.Node
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  offeringdomain.Repository
	genID *snowflake.Node
}

func NewService(p Params) offeringdomain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("offering"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *service) Create(ctx context.Context, req offeringdomain.CreateOfferingRequest) (offeringdomain.Offering, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return offeringdomain.Offering{}, offeringdomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return offeringdomain.Offering{}, offeringdomain.ErrInvalidName
	}
	if req.ListPrice.IsNegative() {
		return offeringdomain.Offering{}, offeringdomain.ErrInvalidListPrice
	}

	offering := &offeringdomain.Offering{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		ListPrice: req.ListPrice,
		Active:    true,
	}
	if err := s.repo.Insert(ctx, s.db, offering); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return offeringdomain.Offering{}, offeringdomain.ErrDuplicateOffering
		}
		return offeringdomain.Offering{}, err
	}

	s.log.Info("offering.created",
		zap.String("offering_id", offering.ID.String()),
		zap.String("code", offering.Code),
	)
	return *offering, nil
}

func (s *service) GetByID(ctx context.Context, id string) (offeringdomain.Offering, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return offeringdomain.Offering{}, offeringdomain.ErrOfferingNotFound
	}
	offering, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return offeringdomain.Offering{}, err
	}
	if offering == nil {
		return offeringdomain.Offering{}, offeringdomain.ErrOfferingNotFound
	}
	return *offering, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]offeringdomain.Offering, error) {
	return s.repo.List(ctx, s.db, activeOnly)
}

func (s *service) UpdateListPrice(ctx context.Context, req offeringdomain.UpdateListPriceRequest) (offeringdomain.Offering, error) {
	parsed, err := snowflake.ParseString(req.OfferingID)
	if err != nil {
		return offeringdomain.Offering{}, offeringdomain.ErrOfferingNotFound
	}
	if req.ListPrice.IsNegative() {
		return offeringdomain.Offering{}, offeringdomain.ErrInvalidListPrice
	}
	if err := s.repo.UpdateListPrice(ctx, s.db, parsed, req.ListPrice); err != nil {
		return offeringdomain.Offering{}, err
	}
	offering, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return offeringdomain.Offering{}, err
	}
	if offering == nil {
		return offeringdomain.Offering{}, offeringdomain.ErrOfferingNotFound
	}
	return *offering, nil
}
