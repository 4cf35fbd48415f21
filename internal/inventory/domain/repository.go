package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindForUpdate loads the stock row for a variant inside tx,
	// taking a row lock on dialects that support one.
	FindForUpdate(ctx context.Context, tx *gorm.DB, key VariantKey) (*StockRecord, error)
	Create(ctx context.Context, tx *gorm.DB, record *StockRecord) error
	UpdateQuantity(ctx context.Context, tx *gorm.DB, record *StockRecord) error
	InsertMovement(ctx context.Context, tx *gorm.DB, movement *StockMovement) error

	FindByKey(ctx context.Context, conn *gorm.DB, key VariantKey) (*StockRecord, error)
	ListMovements(ctx context.Context, conn *gorm.DB, key VariantKey, limit int, beforeID int64) ([]StockMovement, error)
}
