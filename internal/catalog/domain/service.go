package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ResolveRequest identifies a variant either by product id or by the
// free-text product name carried on older statement lines.
type ResolveRequest struct {
	ProductID   snowflake.ID
	ProductName string
	Color       string
	Size        string
}

// Variant is a resolved variant key with its current unit price.
type Variant struct {
	ProductID snowflake.ID
	Color     string
	Size      string
	Price     int64
}

type CreateProductRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
}

type AddOptionRequest struct {
	ProductID  string `json:"product_id"`
	Color      string `json:"color"`
	Size       string `json:"size"`
	PriceDelta int64  `json:"price_delta"`
}

type ProductResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	BasePrice int64  `json:"base_price"`
	Active    bool   `json:"active"`
}

type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	AddOption(ctx context.Context, req AddOptionRequest) error
	GetProduct(ctx context.Context, id string) (*ProductResponse, error)

	// ResolveVariant validates a variant key against the catalog and
	// returns its current price. Statement processing fails the whole
	// statement when any line cannot be resolved.
	ResolveVariant(ctx context.Context, req ResolveRequest) (*Variant, error)
}

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, product *Product) error
	InsertOption(ctx context.Context, conn *gorm.DB, option *ProductOption) error
	FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*Product, error)
	FindByName(ctx context.Context, conn *gorm.DB, name string) (*Product, error)
	FindOption(ctx context.Context, conn *gorm.DB, productID snowflake.ID, color, size string) (*ProductOption, error)
	CountOptions(ctx context.Context, conn *gorm.DB, productID snowflake.ID) (int64, error)
}

var (
	ErrUnknownProduct = errors.New("unknown_product")
	ErrUnknownVariant = errors.New("unknown_variant")
	ErrInvalidCode    = errors.New("invalid_code")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidID      = errors.New("invalid_id")
	ErrDuplicateCode  = errors.New("duplicate_code")
)
