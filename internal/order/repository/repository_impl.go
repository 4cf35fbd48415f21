package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/order/domain"
	"github.com/domaehub/settle/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, order *domain.Order, items []domain.OrderItem) error {
	err := conn.WithContext(ctx).Exec(
		`INSERT INTO orders (id, order_number, company_id, user_id, status, tracking_number, business_day, placed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrderNumber,
		order.CompanyID,
		order.UserID,
		order.Status,
		order.TrackingNumber,
		order.BusinessDay,
		order.PlacedAt,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
	if err != nil {
		return err
	}
	for _, item := range items {
		err := conn.WithContext(ctx).Exec(
			`INSERT INTO order_items (id, order_id, product_id, color, size, quantity, unit_price, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Color,
			item.Size,
			item.Quantity,
			item.UnitPrice,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	return r.findByID(ctx, conn, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	return r.findByID(ctx, tx, id, db.LockSuffix(tx))
}

func (r *repo) findByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, lock string) (*domain.Order, error) {
	var o domain.Order
	err := conn.WithContext(ctx).Raw(
		`SELECT id, order_number, company_id, user_id, status, tracking_number, business_day, placed_at, created_at, updated_at
		 FROM orders WHERE id = ?`+lock,
		id,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) ListItems(ctx context.Context, conn *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := conn.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, color, size, quantity, unit_price, created_at
		 FROM order_items WHERE order_id = ? ORDER BY id ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByDay(ctx context.Context, conn *gorm.DB, companyID snowflake.ID, businessDay string) ([]domain.Order, error) {
	var orders []domain.Order
	err := conn.WithContext(ctx).Raw(
		`SELECT id, order_number, company_id, user_id, status, tracking_number, business_day, placed_at, created_at, updated_at
		 FROM orders WHERE company_id = ? AND business_day = ? ORDER BY placed_at ASC, id ASC`,
		companyID,
		businessDay,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateStatus(ctx context.Context, conn *gorm.DB, id snowflake.ID, status domain.OrderStatus, updatedAt time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		updatedAt,
		id,
	).Error
}

func (r *repo) UpdateTracking(ctx context.Context, conn *gorm.DB, id snowflake.ID, trackingNumber string, updatedAt time.Time) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE orders SET tracking_number = ?, updated_at = ? WHERE id = ?`,
		trackingNumber,
		updatedAt,
		id,
	).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	if err := conn.WithContext(ctx).Exec(`DELETE FROM order_items WHERE order_id = ?`, id).Error; err != nil {
		return err
	}
	return conn.WithContext(ctx).Exec(`DELETE FROM orders WHERE id = ?`, id).Error
}
