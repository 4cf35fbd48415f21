package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type CreateOrderRequest struct {
	CompanyID string            `json:"company_id"`
	UserID    string            `json:"user_id"`
	PlacedAt  time.Time         `json:"placed_at"`
	Items     []CreateOrderItem `json:"items"`
}

type OrderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"order_number"`
	CompanyID      string              `json:"company_id"`
	UserID         string              `json:"user_id"`
	Status         OrderStatus         `json:"status"`
	TrackingNumber string              `json:"tracking_number,omitempty"`
	BusinessDay    string              `json:"business_day"`
	PlacedAt       time.Time           `json:"placed_at"`
	Editable       bool                `json:"editable"`
	Items          []OrderItemResponse `json:"items,omitempty"`
}

type ListByDayRequest struct {
	CompanyID   string `json:"company_id"`
	BusinessDay string `json:"business_day"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error)
	Get(ctx context.Context, id string) (*OrderResponse, error)

	// ListByDay returns a company's orders settled under one business
	// day, the unit statements reconcile against.
	ListByDay(ctx context.Context, req ListByDayRequest) ([]OrderResponse, error)

	UpdateStatus(ctx context.Context, id string, status OrderStatus) (*OrderResponse, error)
	SetTracking(ctx context.Context, id string, trackingNumber string) (*OrderResponse, error)
	Delete(ctx context.Context, id string) error

	// MarkRefundedTx flips the order to refunded inside the caller's
	// transaction. Statement processing uses it so the flip commits or
	// rolls back with the rest of the settlement.
	MarkRefundedTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
}

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, order *Order, items []OrderItem) error
	FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*Order, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Order, error)
	ListItems(ctx context.Context, conn *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	ListByDay(ctx context.Context, conn *gorm.DB, companyID snowflake.ID, businessDay string) ([]Order, error)
	UpdateStatus(ctx context.Context, conn *gorm.DB, id snowflake.ID, status OrderStatus, updatedAt time.Time) error
	UpdateTracking(ctx context.Context, conn *gorm.DB, id snowflake.ID, trackingNumber string, updatedAt time.Time) error
	Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error
}

var (
	ErrOrderNotFound  = errors.New("order_not_found")
	ErrOrderLocked    = errors.New("order_locked")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidUser    = errors.New("invalid_user")
	ErrEmptyOrder     = errors.New("empty_order")
	ErrInvalidItem    = errors.New("invalid_item")
)
