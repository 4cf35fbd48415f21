package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/company/domain"
	"github.com/domaehub/settle/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCompanyRequest) (*domain.CompanyResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, domain.ErrInvalidName
	}
	ownerID, err := snowflake.ParseString(strings.TrimSpace(req.OwnerUserID))
	if err != nil || ownerID == 0 {
		return nil, domain.ErrInvalidOwner
	}

	now := s.clock.Now()
	company := &domain.Company{
		ID:           s.genID.Generate(),
		Name:         req.Name,
		BusinessNo:   strings.TrimSpace(req.BusinessNo),
		OwnerUserID:  ownerID,
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, company); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateNo
		}
		return nil, err
	}
	resp := toCompanyResponse(company)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.CompanyResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	company, err := s.repo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrCompanyNotFound
	}
	resp := toCompanyResponse(company)
	return &resp, nil
}

func (s *Service) OwnerOf(ctx context.Context, id snowflake.ID) (snowflake.ID, error) {
	company, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return 0, err
	}
	if company == nil {
		return 0, domain.ErrCompanyNotFound
	}
	return company.OwnerUserID, nil
}

func toCompanyResponse(c *domain.Company) domain.CompanyResponse {
	return domain.CompanyResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		BusinessNo:   c.BusinessNo,
		OwnerUserID:  c.OwnerUserID.String(),
		ContactEmail: c.ContactEmail,
		Active:       c.Active,
	}
}
