package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/company/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, company *domain.Company) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO companies (id, name, business_no, owner_user_id, contact_email, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		company.ID,
		company.Name,
		company.BusinessNo,
		company.OwnerUserID,
		company.ContactEmail,
		company.Active,
		company.CreatedAt,
		company.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Company, error) {
	var c domain.Company
	err := conn.WithContext(ctx).Raw(
		`SELECT id, name, business_no, owner_user_id, contact_email, active, created_at, updated_at
		 FROM companies WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}
