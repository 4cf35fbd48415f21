package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/clock"
	"github.com/domaehub/settle/internal/inventory/domain"
	obsmetrics "github.com/domaehub/settle/internal/observability/metrics"
	"github.com/domaehub/settle/pkg/db"
	"github.com/domaehub/settle/pkg/db/pagination"
	"github.com/domaehub/settle/pkg/keymutex"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultHistoryPageSize = 50
	maxHistoryPageSize     = 250
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *obsmetrics.Metrics

	// locks narrows same-process contention on the read-modify-write in
	// ApplyTx. It is released when ApplyTx returns, which can be before
	// the caller's transaction commits; the row lock taken in
	// FindForUpdate is the real write guard.
	locks *keymutex.KeyMutex
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("inventory.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
		locks:   keymutex.New(),
	}
}

func (s *Service) Adjust(ctx context.Context, req domain.AdjustRequest) (*domain.MovementResponse, error) {
	movement, err := s.adjustOnce(ctx, req)
	if err != nil && db.IsTransientErr(err) {
		s.log.Debug("retrying adjustment after transient conflict",
			zap.String("variant", req.Key.String()), zap.Error(err))
		movement, err = s.adjustOnce(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	resp := toMovementResponse(movement)
	return &resp, nil
}

func (s *Service) adjustOnce(ctx context.Context, req domain.AdjustRequest) (*domain.StockMovement, error) {
	var movement *domain.StockMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = s.ApplyTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ApplyTx records one movement inside the caller's transaction. The
// stock row is created at zero on first movement for its variant.
func (s *Service) ApplyTx(ctx context.Context, tx *gorm.DB, req domain.AdjustRequest) (*domain.StockMovement, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.Key.String())
	defer unlock()

	now := s.clock.Now()

	rec, err := s.repo.FindForUpdate(ctx, tx, req.Key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &domain.StockRecord{
			ID:        s.genID.Generate(),
			ProductID: req.Key.ProductID,
			Color:     req.Key.Color,
			Size:      req.Key.Size,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, tx, rec); err != nil {
			return nil, err
		}
	}

	resulting := rec.QuantityOnHand + req.Delta
	if resulting < 0 {
		return nil, domain.ErrInsufficientStock
	}

	movement := &domain.StockMovement{
		ID:                s.genID.Generate(),
		ProductID:         req.Key.ProductID,
		Color:             req.Key.Color,
		Size:              req.Key.Size,
		Delta:             req.Delta,
		Type:              req.Type,
		Reason:            req.Reason,
		ResultingQuantity: resulting,
		ReferenceType:     req.ReferenceType,
		ReferenceID:       strings.TrimSpace(req.ReferenceID),
		CorrelationID:     uuid.NewString(),
		CreatedAt:         now,
	}
	if err := s.repo.InsertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	rec.QuantityOnHand = resulting
	rec.UpdatedAt = now
	if err := s.repo.UpdateQuantity(ctx, tx, rec); err != nil {
		return nil, err
	}

	s.metrics.RecordStockMovement(string(req.Type))
	return movement, nil
}

// AdjustMany applies requests independently within one logical batch.
// A failure on one variant does not roll back the others; each result
// carries its own outcome.
func (s *Service) AdjustMany(ctx context.Context, reqs []domain.AdjustRequest) []domain.AdjustResult {
	results := make([]domain.AdjustResult, 0, len(reqs))
	for _, req := range reqs {
		movement, err := s.Adjust(ctx, req)
		results = append(results, domain.AdjustResult{
			Request:  req,
			Movement: movement,
			Err:      err,
		})
	}
	return results
}

func (s *Service) HistoryOf(ctx context.Context, req domain.HistoryRequest) (*domain.HistoryResponse, error) {
	key := req.Key.Normalize()
	if key.ProductID == 0 {
		return nil, domain.ErrInvalidVariant
	}

	limit := pagination.Clamp(req.PageSize, defaultHistoryPageSize, maxHistoryPageSize)

	var beforeID int64
	if strings.TrimSpace(req.PageToken) != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		beforeID, err = strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
	}

	items, err := s.repo.ListMovements(ctx, s.db, key, limit+1, beforeID)
	if err != nil {
		return nil, err
	}

	resp := &domain.HistoryResponse{}
	if len(items) > limit {
		resp.HasMore = true
		items = items[:limit]
	}
	for _, item := range items {
		resp.Movements = append(resp.Movements, toMovementResponse(&item))
	}
	if resp.HasMore && len(items) > 0 {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: strconv.FormatInt(int64(items[len(items)-1].ID), 10),
		})
		if err != nil {
			return nil, err
		}
		resp.NextPageToken = token
	}
	return resp, nil
}

func (s *Service) StatusOf(ctx context.Context, key domain.VariantKey) (*domain.StatusResponse, error) {
	key = key.Normalize()
	if key.ProductID == 0 {
		return nil, domain.ErrInvalidVariant
	}

	rec, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}

	var quantity int64
	if rec != nil {
		quantity = rec.QuantityOnHand
	}
	return &domain.StatusResponse{
		ProductID:      key.ProductID.String(),
		Color:          key.Color,
		Size:           key.Size,
		QuantityOnHand: quantity,
		Status:         domain.StatusFor(quantity),
	}, nil
}

func validate(req *domain.AdjustRequest) error {
	req.Key = req.Key.Normalize()
	if req.Key.ProductID == 0 {
		return domain.ErrInvalidVariant
	}
	if req.Delta == 0 {
		return domain.ErrInvalidDelta
	}
	if !req.Type.Valid() {
		return domain.ErrInvalidType
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.ReferenceType == "" {
		req.ReferenceType = domain.ReferenceManual
	}
	return nil
}

func toMovementResponse(m *domain.StockMovement) domain.MovementResponse {
	return domain.MovementResponse{
		ID:                m.ID.String(),
		ProductID:         m.ProductID.String(),
		Color:             m.Color,
		Size:              m.Size,
		Delta:             m.Delta,
		Type:              m.Type,
		Reason:            m.Reason,
		ResultingQuantity: m.ResultingQuantity,
		ReferenceType:     m.ReferenceType,
		ReferenceID:       m.ReferenceID,
		CorrelationID:     m.CorrelationID,
		CreatedAt:         m.CreatedAt.UTC().Truncate(time.Second),
	}
}
