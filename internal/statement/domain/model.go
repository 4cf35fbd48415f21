package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type StatementType string

const (
	TypeReturn    StatementType = "return"
	TypeDeduction StatementType = "deduction"
)

func (t StatementType) Valid() bool {
	return t == TypeReturn || t == TypeDeduction
}

// NumberPrefix distinguishes return (RS) and deduction (DS) statements
// in the human-readable statement number.
func (t StatementType) NumberPrefix() string {
	if t == TypeDeduction {
		return "DS"
	}
	return "RS"
}

type StatementStatus string

const (
	StatusPending StatementStatus = "pending"

	// Terminal processed states. Returns settle to refunded,
	// deductions to completed.
	StatusRefunded  StatementStatus = "refunded"
	StatusCompleted StatementStatus = "completed"

	// Terminal rejected states, no ledger effects.
	StatusRejected  StatementStatus = "rejected"
	StatusCancelled StatementStatus = "cancelled"
)

// Processed reports whether the statement already settled its ledgers.
func (s StatementStatus) Processed() bool {
	return s == StatusRefunded || s == StatusCompleted
}

func (s StatementStatus) Terminal() bool {
	return s.Processed() || s == StatusRejected || s == StatusCancelled
}

type RefundMethod string

const (
	RefundMileage RefundMethod = "mileage"
	RefundBank    RefundMethod = "bank"
)

// Statement is a return or deduction settlement header. Monetary
// totals are never stored; they are recomputed from the lines on
// every read and at processing time.
type Statement struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	StatementNumber string          `gorm:"type:text;not null;uniqueIndex"`
	Type            StatementType   `gorm:"type:text;not null;index"`
	CompanyID       snowflake.ID    `gorm:"not null;index"`
	OrderID         *snowflake.ID   `gorm:"index"`
	Status          StatementStatus `gorm:"type:text;not null;index"`
	RefundMethod    RefundMethod    `gorm:"type:text"`
	ReasonCode      string          `gorm:"type:text"`
	RejectReason    string          `gorm:"type:text"`
	BusinessDay     string          `gorm:"type:text;not null;index"`
	ProcessedAt     *time.Time
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Statement) TableName() string { return "statements" }

type StatementItem struct {
	ID          snowflake.ID  `gorm:"primaryKey"`
	StatementID snowflake.ID  `gorm:"not null;uniqueIndex:ux_statement_items_line,priority:1"`
	LineNo      int           `gorm:"not null;uniqueIndex:ux_statement_items_line,priority:2"`
	ProductID   *snowflake.ID `gorm:"index"`
	ProductName string        `gorm:"type:text;not null"`
	Color       string        `gorm:"type:text;not null"`
	Size        string        `gorm:"type:text;not null"`
	Quantity    int64         `gorm:"not null"`
	UnitPrice   int64         `gorm:"not null"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (StatementItem) TableName() string { return "statement_items" }
