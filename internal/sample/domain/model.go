package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type SampleStatus string

const (
	StatusCheckedOut SampleStatus = "checked_out"
	StatusReturned   SampleStatus = "returned"
	StatusOverdue    SampleStatus = "overdue"
)

// Sample is a loaned demo unit. Checking one out moves stock through
// the inventory ledger; the scheduler sweep marks loans overdue once
// the due date passes.
type Sample struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	CompanyID  snowflake.ID `gorm:"not null;index"`
	ProductID  snowflake.ID `gorm:"not null"`
	Color      string       `gorm:"type:text;not null"`
	Size       string       `gorm:"type:text;not null"`
	Quantity   int64        `gorm:"not null"`
	Status     SampleStatus `gorm:"type:text;not null;index"`
	DueDate    time.Time    `gorm:"not null;index"`
	ReturnedAt *time.Time
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Sample) TableName() string { return "samples" }
