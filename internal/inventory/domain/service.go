package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AdjustRequest is one stock mutation. Delta is signed; the movement
// type states what the change represents.
type AdjustRequest struct {
	Key           VariantKey
	Delta         int64
	Type          MovementType
	Reason        string
	ReferenceType ReferenceType
	ReferenceID   string
}

type MovementResponse struct {
	ID                string        `json:"id"`
	ProductID         string        `json:"product_id"`
	Color             string        `json:"color"`
	Size              string        `json:"size"`
	Delta             int64         `json:"delta"`
	Type              MovementType  `json:"type"`
	Reason            string        `json:"reason"`
	ResultingQuantity int64         `json:"resulting_quantity"`
	ReferenceType     ReferenceType `json:"reference_type"`
	ReferenceID       string        `json:"reference_id"`
	CorrelationID     string        `json:"correlation_id"`
	CreatedAt         time.Time     `json:"created_at"`
}

// AdjustResult reports one request of a bulk adjustment. Requests are
// applied independently; a failed one never rolls back the others.
type AdjustResult struct {
	Request  AdjustRequest     `json:"-"`
	Movement *MovementResponse `json:"movement,omitempty"`
	Err      error             `json:"-"`
}

type HistoryRequest struct {
	Key       VariantKey
	PageSize  int
	PageToken string
}

type HistoryResponse struct {
	Movements     []MovementResponse `json:"movements"`
	NextPageToken string             `json:"next_page_token"`
	HasMore       bool               `json:"has_more"`
}

type StatusResponse struct {
	ProductID      string      `json:"product_id"`
	Color          string      `json:"color"`
	Size           string      `json:"size"`
	QuantityOnHand int64       `json:"quantity_on_hand"`
	Status         StockStatus `json:"status"`
}

type Service interface {
	Adjust(ctx context.Context, req AdjustRequest) (*MovementResponse, error)
	AdjustMany(ctx context.Context, reqs []AdjustRequest) []AdjustResult
	HistoryOf(ctx context.Context, req HistoryRequest) (*HistoryResponse, error)
	StatusOf(ctx context.Context, key VariantKey) (*StatusResponse, error)

	// ApplyTx records a movement inside a caller-owned transaction.
	// Statement processing uses it to keep a statement's movements,
	// mileage entry and status flip in one atomic unit.
	ApplyTx(ctx context.Context, tx *gorm.DB, req AdjustRequest) (*StockMovement, error)
}

var (
	ErrInsufficientStock = errors.New("insufficient_stock")
	ErrInvalidVariant    = errors.New("invalid_variant")
	ErrInvalidDelta      = errors.New("invalid_delta")
	ErrInvalidType       = errors.New("invalid_movement_type")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
