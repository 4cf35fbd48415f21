package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Entry struct {
	CompanyID  *snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]interface{}
}

type ListRequest struct {
	CompanyID  string `json:"company_id"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Limit      int    `json:"limit"`
}

type Service interface {
	// AuditLog writes one entry, taking the actor and request metadata
	// from the context. Failures are swallowed after logging.
	AuditLog(ctx context.Context, entry Entry)

	// AuditLogTx writes inside the caller's transaction so the trail
	// commits with the mutation it describes.
	AuditLogTx(ctx context.Context, tx *gorm.DB, entry Entry)

	List(ctx context.Context, req ListRequest) ([]AuditLog, error)
}

type Repository interface {
	Insert(ctx context.Context, conn *gorm.DB, log *AuditLog) error
	List(ctx context.Context, conn *gorm.DB, companyID *snowflake.ID, targetType, targetID string, limit int) ([]AuditLog, error)
}
