package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/businessday"
	"github.com/domaehub/settle/internal/clock"
	invdomain "github.com/domaehub/settle/internal/inventory/domain"
	"github.com/domaehub/settle/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Calculator *businessday.Calculator
	Repo       domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	calc  *businessday.Calculator
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		clock: p.Clock,
		calc:  p.Calculator,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	now := s.clock.Now()
	placedAt := req.PlacedAt
	if placedAt.IsZero() {
		placedAt = now
	}

	id := s.genID.Generate()
	businessDay := s.calc.WorkingDate(placedAt)
	order := &domain.Order{
		ID:          id,
		OrderNumber: orderNumber(businessDay, id),
		CompanyID:   companyID,
		UserID:      userID,
		Status:      domain.StatusPlaced,
		BusinessDay: businessDay.String(),
		PlacedAt:    placedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil || productID == 0 || item.Quantity <= 0 || item.UnitPrice < 0 {
			return nil, domain.ErrInvalidItem
		}
		items = append(items, domain.OrderItem{
			ID:        s.genID.Generate(),
			OrderID:   id,
			ProductID: productID,
			Color:     normalizeOption(item.Color),
			Size:      normalizeOption(item.Size),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, order, items)
	})
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(order, items)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.OrderResponse, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(order, items)
	return &resp, nil
}

func (s *Service) ListByDay(ctx context.Context, req domain.ListByDayRequest) ([]domain.OrderResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	day := strings.TrimSpace(req.BusinessDay)
	if day == "" {
		day = s.calc.WorkingDate(s.clock.Now()).String()
	} else if _, err := businessday.ParseDate(day); err != nil {
		return nil, domain.ErrInvalidID
	}

	orders, err := s.repo.ListByDay(ctx, s.db, companyID, day)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, s.toResponse(&orders[i], nil))
	}
	return resp, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.OrderResponse, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	order, err := s.findEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, s.db, order.ID, status, now); err != nil {
		return nil, err
	}
	order.Status = status
	order.UpdatedAt = now
	resp := s.toResponse(order, nil)
	return &resp, nil
}

func (s *Service) SetTracking(ctx context.Context, id string, trackingNumber string) (*domain.OrderResponse, error) {
	order, err := s.findEditable(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	trackingNumber = strings.TrimSpace(trackingNumber)
	if err := s.repo.UpdateTracking(ctx, s.db, order.ID, trackingNumber, now); err != nil {
		return nil, err
	}
	order.TrackingNumber = trackingNumber
	order.UpdatedAt = now
	resp := s.toResponse(order, nil)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	order, err := s.findEditable(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Delete(ctx, tx, order.ID)
	})
}

func (s *Service) MarkRefundedTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	order, err := s.repo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	return s.repo.UpdateStatus(ctx, tx, id, domain.StatusRefunded, s.clock.Now())
}

func (s *Service) find(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// findEditable rejects mutation once the order's settlement window has
// closed at the 15:00 cutoff.
func (s *Service) findEditable(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.calc.Editable(order.PlacedAt, s.clock.Now()) {
		return nil, domain.ErrOrderLocked
	}
	return order, nil
}

func (s *Service) toResponse(o *domain.Order, items []domain.OrderItem) domain.OrderResponse {
	resp := domain.OrderResponse{
		ID:             o.ID.String(),
		OrderNumber:    o.OrderNumber,
		CompanyID:      o.CompanyID.String(),
		UserID:         o.UserID.String(),
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
		BusinessDay:    o.BusinessDay,
		PlacedAt:       o.PlacedAt.UTC().Truncate(time.Second),
		Editable:       s.calc.Editable(o.PlacedAt, s.clock.Now()),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, domain.OrderItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Color:     item.Color,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return resp
}

func orderNumber(day businessday.Date, id snowflake.ID) string {
	return fmt.Sprintf("ORD-%04d%02d%02d-%s", day.Year, day.Month, day.Day, id.Base36())
}

func normalizeOption(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return invdomain.OptionDefault
	}
	return v
}
