package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/domaehub/settle/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, log *domain.AuditLog) error {
	return conn.WithContext(ctx).Create(log).Error
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, companyID *snowflake.ID, targetType, targetID string, limit int) ([]domain.AuditLog, error) {
	query := conn.WithContext(ctx).Model(&domain.AuditLog{})
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	if strings.TrimSpace(targetType) != "" {
		query = query.Where("target_type = ?", targetType)
	}
	if strings.TrimSpace(targetID) != "" {
		query = query.Where("target_id = ?", targetID)
	}

	var logs []domain.AuditLog
	err := query.Order("id DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
