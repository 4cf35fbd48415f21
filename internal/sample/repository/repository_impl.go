package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/sample/domain"
	"github.com/domaehub/settle/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const sampleColumns = `id, company_id, product_id, color, size, quantity, status, due_date, returned_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, sample *domain.Sample) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO samples (`+sampleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.ID,
		sample.CompanyID,
		sample.ProductID,
		sample.Color,
		sample.Size,
		sample.Quantity,
		sample.Status,
		sample.DueDate,
		sample.ReturnedAt,
		sample.CreatedAt,
		sample.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Sample, error) {
	return r.findByID(ctx, conn, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Sample, error) {
	return r.findByID(ctx, tx, id, db.LockSuffix(tx))
}

func (r *repo) findByID(ctx context.Context, conn *gorm.DB, id snowflake.ID, lock string) (*domain.Sample, error) {
	var s domain.Sample
	err := conn.WithContext(ctx).Raw(
		`SELECT `+sampleColumns+` FROM samples WHERE id = ?`+lock,
		id,
	).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *repo) ListByCompany(ctx context.Context, conn *gorm.DB, companyID snowflake.ID) ([]domain.Sample, error) {
	var samples []domain.Sample
	err := conn.WithContext(ctx).Raw(
		`SELECT `+sampleColumns+` FROM samples WHERE company_id = ? ORDER BY id DESC`,
		companyID,
	).Scan(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *repo) ListDue(ctx context.Context, conn *gorm.DB, before time.Time, limit int) ([]domain.Sample, error) {
	var samples []domain.Sample
	err := conn.WithContext(ctx).Raw(
		`SELECT `+sampleColumns+` FROM samples
		 WHERE status = ? AND due_date < ? ORDER BY due_date ASC LIMIT ?`,
		domain.StatusCheckedOut,
		before,
		limit,
	).Scan(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *repo) UpdateStatus(ctx context.Context, conn *gorm.DB, sample *domain.Sample) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE samples SET status = ?, returned_at = ?, updated_at = ? WHERE id = ?`,
		sample.Status,
		sample.ReturnedAt,
		sample.UpdatedAt,
		sample.ID,
	).Error
}
