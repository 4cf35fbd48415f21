package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreditRequest struct {
	UserID      snowflake.ID
	Amount      int64
	Source      EntrySource
	ReferenceID string
}

type DebitRequest struct {
	UserID      snowflake.ID
	Amount      int64
	Source      EntrySource
	ReferenceID string

	// Override lets an administrative correction push a balance
	// negative. Normal debits fail instead.
	Override bool
}

type EntryResponse struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Amount      int64       `json:"amount"`
	Kind        EntryKind   `json:"kind"`
	Source      EntrySource `json:"source"`
	ReferenceID string      `json:"reference_id"`
	Status      EntryStatus `json:"status"`
	Balance     int64       `json:"balance"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Service interface {
	Credit(ctx context.Context, req CreditRequest) (*EntryResponse, error)
	Debit(ctx context.Context, req DebitRequest) (*EntryResponse, error)
	BalanceOf(ctx context.Context, userID snowflake.ID) (int64, error)

	// Reverse appends a compensating entry for an earlier one.
	// Ledger rows are immutable; this is the only form of cancel.
	Reverse(ctx context.Context, entryID snowflake.ID) (*EntryResponse, error)

	// CreditTx/DebitTx run inside a caller-owned transaction so a
	// statement's mileage settlement commits with its movements.
	CreditTx(ctx context.Context, tx *gorm.DB, req CreditRequest) (*MileageEntry, error)
	DebitTx(ctx context.Context, tx *gorm.DB, req DebitRequest) (*MileageEntry, error)
}

type Repository interface {
	FindAccountForUpdate(ctx context.Context, tx *gorm.DB, userID snowflake.ID) (*MileageAccount, error)
	CreateAccount(ctx context.Context, tx *gorm.DB, account *MileageAccount) error
	UpdateBalance(ctx context.Context, tx *gorm.DB, account *MileageAccount) error
	InsertEntry(ctx context.Context, tx *gorm.DB, entry *MileageEntry) error

	FindAccount(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*MileageAccount, error)
	FindEntry(ctx context.Context, conn *gorm.DB, entryID snowflake.ID) (*MileageEntry, error)
	SumCompleted(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (int64, error)
}

var (
	ErrInsufficientMileage = errors.New("insufficient_mileage")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrEntryNotFound       = errors.New("entry_not_found")
)
