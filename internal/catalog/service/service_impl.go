package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/catalog/domain"
	"github.com/domaehub/settle/internal/clock"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
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
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.ProductResponse, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" {
		return nil, domain.ErrInvalidCode
	}
	if req.Name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	product := &domain.Product{
		ID:        s.genID.Generate(),
		Code:      req.Code,
		Name:      req.Name,
		BasePrice: req.BasePrice,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *Service) AddOption(ctx context.Context, req domain.AddOptionRequest) error {
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil {
		return domain.ErrInvalidID
	}
	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrUnknownProduct
	}

	color := normalizeOption(req.Color)
	size := normalizeOption(req.Size)
	option := &domain.ProductOption{
		ID:         s.genID.Generate(),
		ProductID:  productID,
		Color:      color,
		Size:       size,
		PriceDelta: req.PriceDelta,
		Active:     true,
		CreatedAt:  s.clock.Now(),
	}
	return s.repo.InsertOption(ctx, s.db, option)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.ProductResponse, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownProduct
	}
	resp := toProductResponse(product)
	return &resp, nil
}

// ResolveVariant looks the product up by id when one is given, falling
// back to the name carried on older statement lines. Products with
// registered options only accept a registered color/size pair; products
// without options only accept the default variant.
func (s *Service) ResolveVariant(ctx context.Context, req domain.ResolveRequest) (*domain.Variant, error) {
	var (
		product *domain.Product
		err     error
	)
	switch {
	case req.ProductID != 0:
		product, err = s.repo.FindByID(ctx, s.db, req.ProductID)
	case strings.TrimSpace(req.ProductName) != "":
		product, err = s.repo.FindByName(ctx, s.db, strings.TrimSpace(req.ProductName))
	default:
		return nil, domain.ErrUnknownProduct
	}
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownProduct
	}

	color := normalizeOption(req.Color)
	size := normalizeOption(req.Size)

	count, err := s.repo.CountOptions(ctx, s.db, product.ID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		if color != invdomain.OptionDefault || size != invdomain.OptionDefault {
			return nil, domain.ErrUnknownVariant
		}
		return &domain.Variant{
			ProductID: product.ID,
			Color:     color,
			Size:      size,
			Price:     product.BasePrice,
		}, nil
	}

	option, err := s.repo.FindOption(ctx, s.db, product.ID, color, size)
	if err != nil {
		return nil, err
	}
	if option == nil || !option.Active {
		return nil, domain.ErrUnknownVariant
	}
	return &domain.Variant{
		ProductID: product.ID,
		Color:     color,
		Size:      size,
		Price:     product.BasePrice + option.PriceDelta,
	}, nil
}

func normalizeOption(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return invdomain.OptionDefault
	}
	return v
}

func toProductResponse(p *domain.Product) domain.ProductResponse {
	return domain.ProductResponse{
		ID:        p.ID.String(),
		Code:      p.Code,
		Name:      p.Name,
		BasePrice: p.BasePrice,
		Active:    p.Active,
	}
}
