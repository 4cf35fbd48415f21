package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, product *domain.Product) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO products (id, code, name, base_price, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Code,
		product.Name,
		product.BasePrice,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) InsertOption(ctx context.Context, conn *gorm.DB, option *domain.ProductOption) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO product_options (id, product_id, color, size, price_delta, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		option.ID,
		option.ProductID,
		option.Color,
		option.Size,
		option.PriceDelta,
		option.Active,
		option.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := conn.WithContext(ctx).Raw(
		`SELECT id, code, name, base_price, active, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByName(ctx context.Context, conn *gorm.DB, name string) (*domain.Product, error) {
	var p domain.Product
	err := conn.WithContext(ctx).Raw(
		`SELECT id, code, name, base_price, active, created_at, updated_at
		 FROM products WHERE name = ? ORDER BY created_at ASC LIMIT 1`,
		name,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindOption(ctx context.Context, conn *gorm.DB, productID snowflake.ID, color, size string) (*domain.ProductOption, error) {
	var opt domain.ProductOption
	err := conn.WithContext(ctx).Raw(
		`SELECT id, product_id, color, size, price_delta, active, created_at
		 FROM product_options WHERE product_id = ? AND color = ? AND size = ?`,
		productID,
		color,
		size,
	).Scan(&opt).Error
	if err != nil {
		return nil, err
	}
	if opt.ID == 0 {
		return nil, nil
	}
	return &opt, nil
}

func (r *repo) CountOptions(ctx context.Context, conn *gorm.DB, productID snowflake.ID) (int64, error) {
	var count int64
	err := conn.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM product_options WHERE product_id = ?`,
		productID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
