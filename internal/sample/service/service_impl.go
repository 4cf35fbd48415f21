package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/clock"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	"github.com/domaehub/settle/internal/sample/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultDueDays = 7

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Inventory invdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	inventory invdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("sample.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		inventory: p.Inventory,
	}
}

func (s *Service) CheckOut(ctx context.Context, req domain.CheckOutRequest) (*domain.SampleResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil || productID == 0 || req.Quantity <= 0 {
		return nil, domain.ErrInvalidItem
	}

	dueDays := req.DueDays
	if dueDays <= 0 {
		dueDays = defaultDueDays
	}

	now := s.clock.Now()
	sample := &domain.Sample{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		ProductID: productID,
		Color:     normalizeOption(req.Color),
		Size:      normalizeOption(req.Size),
		Quantity:  req.Quantity,
		Status:    domain.StatusCheckedOut,
		DueDate:   now.AddDate(0, 0, dueDays),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.inventory.ApplyTx(ctx, tx, invdomain.AdjustRequest{
			Key: invdomain.VariantKey{
				ProductID: productID,
				Color:     sample.Color,
				Size:      sample.Size,
			},
			Delta:         -sample.Quantity,
			Type:          invdomain.MovementOutbound,
			Reason:        "sample checkout",
			ReferenceType: invdomain.ReferenceSample,
			ReferenceID:   sample.ID.String(),
		})
		if err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, sample)
	})
	if err != nil {
		return nil, err
	}

	resp := toSampleResponse(sample)
	return &resp, nil
}

func (s *Service) Return(ctx context.Context, id string) (*domain.SampleResponse, error) {
	sampleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var sample *domain.Sample
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sample, err = s.repo.FindByIDForUpdate(ctx, tx, sampleID)
		if err != nil {
			return err
		}
		if sample == nil {
			return domain.ErrSampleNotFound
		}
		if sample.Status == domain.StatusReturned {
			return domain.ErrAlreadyClosed
		}

		_, err = s.inventory.ApplyTx(ctx, tx, invdomain.AdjustRequest{
			Key: invdomain.VariantKey{
				ProductID: sample.ProductID,
				Color:     sample.Color,
				Size:      sample.Size,
			},
			Delta:         sample.Quantity,
			Type:          invdomain.MovementInbound,
			Reason:        "sample return",
			ReferenceType: invdomain.ReferenceSample,
			ReferenceID:   sample.ID.String(),
		})
		if err != nil {
			return err
		}

		now := s.clock.Now()
		sample.Status = domain.StatusReturned
		sample.ReturnedAt = &now
		sample.UpdatedAt = now
		return s.repo.UpdateStatus(ctx, tx, sample)
	})
	if err != nil {
		return nil, err
	}

	resp := toSampleResponse(sample)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, companyID string) ([]domain.SampleResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidCompany
	}
	samples, err := s.repo.ListByCompany(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.SampleResponse, 0, len(samples))
	for i := range samples {
		resp = append(resp, toSampleResponse(&samples[i]))
	}
	return resp, nil
}

func (s *Service) MarkOverdue(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	now := s.clock.Now()
	due, err := s.repo.ListDue(ctx, s.db, now, batchSize)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for i := range due {
		sample := &due[i]
		sample.Status = domain.StatusOverdue
		sample.UpdatedAt = now
		if err := s.repo.UpdateStatus(ctx, s.db, sample); err != nil {
			s.log.Warn("overdue flip failed",
				zap.String("sample_id", sample.ID.String()), zap.Error(err))
			continue
		}
		flipped++
	}
	return flipped, nil
}

func normalizeOption(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return invdomain.OptionDefault
	}
	return v
}

func toSampleResponse(s *domain.Sample) domain.SampleResponse {
	return domain.SampleResponse{
		ID:         s.ID.String(),
		CompanyID:  s.CompanyID.String(),
		ProductID:  s.ProductID.String(),
		Color:      s.Color,
		Size:       s.Size,
		Quantity:   s.Quantity,
		Status:     s.Status,
		DueDate:    s.DueDate.UTC().Truncate(time.Second),
		ReturnedAt: s.ReturnedAt,
	}
}
