package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is the canonical catalog listing. Rows are immutable once seeded;
// only variant stock moves.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	PriceCents  int              `gorm:"column:price_cents;not null"`
	ImageURL    string           `gorm:"column:image_url;not null"`
	Category    string           `gorm:"column:category;not null"`
	Description string           `gorm:"column:description;not null"`
	Sizes       pq.StringArray   `gorm:"column:sizes;type:text[];not null;default:ARRAY[]::text[]"`
	Colors      pq.StringArray   `gorm:"column:colors;type:text[];not null;default:ARRAY[]::text[]"`
	InStock     bool             `gorm:"column:in_stock;not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// HasVariants reports whether the product declares concrete stock-bearing
// variants. A product without any is sold as a single implicit variant with
// no stock ceiling.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}
