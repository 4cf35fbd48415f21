package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type EntryKind string

const (
	KindEarn  EntryKind = "earn"
	KindSpend EntryKind = "spend"
)

type EntrySource string

const (
	SourceOrder  EntrySource = "order"
	SourceRefund EntrySource = "refund"
	SourceManual EntrySource = "manual"
	SourceAuto   EntrySource = "auto"
)

type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
	StatusCancelled EntryStatus = "cancelled"
)

// MileageEntry is the append-only ledger row. Amount is signed: earn
// entries are positive, spend entries negative. A balance is the sum of
// completed entries; cancellation is a new compensating entry.
type MileageEntry struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	UserID      snowflake.ID `gorm:"not null;index"`
	Amount      int64        `gorm:"not null"`
	Kind        EntryKind    `gorm:"type:text;not null"`
	Source      EntrySource  `gorm:"type:text;not null"`
	ReferenceID string       `gorm:"type:text;not null;index"`
	Status      EntryStatus  `gorm:"type:text;not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MileageEntry) TableName() string { return "mileage_entries" }

// MileageAccount is the per-user balance projection, updated in the
// same transaction as every entry insert. Reads gate future debits, so
// no eventual consistency window is tolerated.
type MileageAccount struct {
	UserID    snowflake.ID `gorm:"primaryKey"`
	Balance   int64        `gorm:"not null;default:0"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MileageAccount) TableName() string { return "mileage_accounts" }
