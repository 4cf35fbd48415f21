package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Product is a wholesale catalog item. Products without registered
// options are tracked under the default/default variant.
type Product struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Code      string       `gorm:"type:text;not null;uniqueIndex"`
	Name      string       `gorm:"type:text;not null;index"`
	BasePrice int64        `gorm:"not null"`
	Active    bool         `gorm:"not null;default:true"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

// ProductOption registers one sellable color/size combination.
type ProductOption struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ProductID  snowflake.ID `gorm:"not null;uniqueIndex:ux_product_options_variant,priority:1"`
	Color      string       `gorm:"type:text;not null;uniqueIndex:ux_product_options_variant,priority:2"`
	Size       string       `gorm:"type:text;not null;uniqueIndex:ux_product_options_variant,priority:3"`
	PriceDelta int64        `gorm:"not null;default:0"`
	Active     bool         `gorm:"not null;default:true"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductOption) TableName() string { return "product_options" }
