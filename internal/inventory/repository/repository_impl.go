package repository

import (
	"context"

	"github.com/domaehub/settle/internal/inventory/domain"
	"github.com/domaehub/settle/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindForUpdate(ctx context.Context, tx *gorm.DB, key domain.VariantKey) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := tx.WithContext(ctx).Raw(
		`SELECT id, product_id, color, size, quantity_on_hand, created_at, updated_at
		 FROM stock_records
		 WHERE product_id = ? AND color = ? AND size = ?`+db.LockSuffix(tx),
		key.ProductID,
		key.Color,
		key.Size,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *repo) Create(ctx context.Context, tx *gorm.DB, record *domain.StockRecord) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO stock_records (id, product_id, color, size, quantity_on_hand, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.ProductID,
		record.Color,
		record.Size,
		record.QuantityOnHand,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) UpdateQuantity(ctx context.Context, tx *gorm.DB, record *domain.StockRecord) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE stock_records SET quantity_on_hand = ?, updated_at = ? WHERE id = ?`,
		record.QuantityOnHand,
		record.UpdatedAt,
		record.ID,
	).Error
}

func (r *repo) InsertMovement(ctx context.Context, tx *gorm.DB, movement *domain.StockMovement) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO stock_movements (
			id, product_id, color, size, delta, type, reason,
			resulting_quantity, reference_type, reference_id, correlation_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID,
		movement.ProductID,
		movement.Color,
		movement.Size,
		movement.Delta,
		string(movement.Type),
		movement.Reason,
		movement.ResultingQuantity,
		string(movement.ReferenceType),
		movement.ReferenceID,
		movement.CorrelationID,
		movement.CreatedAt,
	).Error
}

func (r *repo) FindByKey(ctx context.Context, conn *gorm.DB, key domain.VariantKey) (*domain.StockRecord, error) {
	var rec domain.StockRecord
	err := conn.WithContext(ctx).Raw(
		`SELECT id, product_id, color, size, quantity_on_hand, created_at, updated_at
		 FROM stock_records
		 WHERE product_id = ? AND color = ? AND size = ?`,
		key.ProductID,
		key.Color,
		key.Size,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *repo) ListMovements(ctx context.Context, conn *gorm.DB, key domain.VariantKey, limit int, beforeID int64) ([]domain.StockMovement, error) {
	var items []domain.StockMovement
	query := `SELECT id, product_id, color, size, delta, type, reason,
			resulting_quantity, reference_type, reference_id, correlation_id, created_at
		 FROM stock_movements
		 WHERE product_id = ? AND color = ? AND size = ?`
	args := []any{key.ProductID, key.Color, key.Size}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
