package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of who changed what. Rows are
// written best-effort alongside the mutation they describe; a failed
// write is logged, never surfaced to the caller.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	CompanyID  *snowflake.ID     `gorm:"index"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    string            `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   string            `gorm:"type:text;index"`
	RequestID  string            `gorm:"type:text"`
	IPAddress  string            `gorm:"type:text"`
	UserAgent  string            `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:json"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

const (
	ActorSystem = "system"
	ActorUser   = "user"
)
