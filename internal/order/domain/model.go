package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusPreparing OrderStatus = "preparing"
	StatusShipped   OrderStatus = "shipped"
	StatusRefunded  OrderStatus = "refunded"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPlaced, StatusPreparing, StatusShipped, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// Order groups purchases under the settlement business day they belong
// to. BusinessDay is fixed at creation from PlacedAt and the cutoff
// calendar; it never moves afterwards.
type Order struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	OrderNumber    string       `gorm:"type:text;not null;uniqueIndex"`
	CompanyID      snowflake.ID `gorm:"not null;index"`
	UserID         snowflake.ID `gorm:"not null;index"`
	Status         OrderStatus  `gorm:"type:text;not null"`
	TrackingNumber string       `gorm:"type:text"`
	BusinessDay    string       `gorm:"type:text;not null;index"`
	PlacedAt       time.Time    `gorm:"not null"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrderID   snowflake.ID `gorm:"not null;index"`
	ProductID snowflake.ID `gorm:"not null"`
	Color     string       `gorm:"type:text;not null"`
	Size      string       `gorm:"type:text;not null"`
	Quantity  int64        `gorm:"not null"`
	UnitPrice int64        `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderItem) TableName() string { return "order_items" }
