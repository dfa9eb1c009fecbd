package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a concrete purchasable (size, color) combination with
// its own authoritative price and stock count.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	SKU        string    `gorm:"column:sku;not null"`
	Size       *string   `gorm:"column:size"`
	Color      *string   `gorm:"column:color"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	StockQty   int       `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock is derived, never stored.
func (v ProductVariant) InStock() bool {
	return v.StockQty > 0
}
