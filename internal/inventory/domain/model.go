package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// OptionDefault is the sentinel color/size for products sold without
// options. A variant key is always stored fully normalized.
const OptionDefault = "default"

// VariantKey identifies one stock row: product x color x size.
type VariantKey struct {
	ProductID snowflake.ID
	Color     string
	Size      string
}

func (k VariantKey) Normalize() VariantKey {
	k.Color = normalizeOption(k.Color)
	k.Size = normalizeOption(k.Size)
	return k
}

func (k VariantKey) String() string {
	return k.ProductID.String() + "/" + k.Color + "/" + k.Size
}

func normalizeOption(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return OptionDefault
	}
	return value
}

type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLow        StockStatus = "low"
	StockStatusNormal     StockStatus = "normal"
)

const lowStockThreshold = 10

// StatusFor derives the stock status from a quantity. The status is
// never stored separately from quantity_on_hand.
func StatusFor(quantity int64) StockStatus {
	switch {
	case quantity <= 0:
		return StockStatusOutOfStock
	case quantity <= lowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusNormal
	}
}

// StockRecord is the per-variant projection. It is mutated only through
// movements and must always equal the resulting quantity of the latest
// movement for its key.
type StockRecord struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	ProductID      snowflake.ID `gorm:"not null;uniqueIndex:ux_stock_records_variant,priority:1"`
	Color          string       `gorm:"type:text;not null;uniqueIndex:ux_stock_records_variant,priority:2"`
	Size           string       `gorm:"type:text;not null;uniqueIndex:ux_stock_records_variant,priority:3"`
	QuantityOnHand int64        `gorm:"not null;default:0"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (StockRecord) TableName() string { return "stock_records" }

func (r StockRecord) Key() VariantKey {
	return VariantKey{ProductID: r.ProductID, Color: r.Color, Size: r.Size}
}

func (r StockRecord) Status() StockStatus {
	return StatusFor(r.QuantityOnHand)
}

type MovementType string

const (
	MovementInbound    MovementType = "inbound"
	MovementOutbound   MovementType = "outbound"
	MovementAdjustment MovementType = "adjustment"
	MovementReturnIn   MovementType = "return_in"
	MovementReturnOut  MovementType = "return_out"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementInbound, MovementOutbound, MovementAdjustment, MovementReturnIn, MovementReturnOut:
		return true
	default:
		return false
	}
}

type ReferenceType string

const (
	ReferenceOrder     ReferenceType = "order"
	ReferenceStatement ReferenceType = "statement"
	ReferenceSample    ReferenceType = "sample"
	ReferenceManual    ReferenceType = "manual"
)

// StockMovement is the append-only ledger row. Once written it is never
// updated or deleted; corrections are new compensating movements.
type StockMovement struct {
	ID                snowflake.ID  `gorm:"primaryKey"`
	ProductID         snowflake.ID  `gorm:"not null;index:idx_stock_movements_variant,priority:1"`
	Color             string        `gorm:"type:text;not null;index:idx_stock_movements_variant,priority:2"`
	Size              string        `gorm:"type:text;not null;index:idx_stock_movements_variant,priority:3"`
	Delta             int64         `gorm:"not null"`
	Type              MovementType  `gorm:"type:text;not null"`
	Reason            string        `gorm:"type:text;not null"`
	ResultingQuantity int64         `gorm:"not null"`
	ReferenceType     ReferenceType `gorm:"type:text;not null"`
	ReferenceID       string        `gorm:"type:text;not null;index"`
	CorrelationID     string        `gorm:"type:text;not null"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (StockMovement) TableName() string { return "stock_movements" }
