package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Company is a wholesale buyer account. OwnerUserID is the user whose
// mileage balance absorbs refunds and deductions for the company.
type Company struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Name         string       `gorm:"type:text;not null"`
	BusinessNo   string       `gorm:"type:text;not null;uniqueIndex"`
	OwnerUserID  snowflake.ID `gorm:"not null;index"`
	ContactEmail string       `gorm:"type:text"`
	Active       bool         `gorm:"not null;default:true"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Company) TableName() string { return "companies" }
