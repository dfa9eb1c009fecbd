package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
)

// ProductDTO is the catalog listing payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	PriceCents  int          `json:"price_cents"`
	ImageURL    string       `json:"image_url"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Sizes       []string     `json:"sizes"`
	Colors      []string     `json:"colors"`
	InStock     bool         `json:"in_stock"`
	Variants    []VariantDTO `json:"variants,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// VariantDTO exposes one purchasable (size, color) combination.
type VariantDTO struct {
	ID         uuid.UUID `json:"id"`
	SKU        string    `json:"sku"`
	Size       *string   `json:"size,omitempty"`
	Color      *string   `json:"color,omitempty"`
	PriceCents int       `json:"price_cents"`
	StockQty   int       `json:"stock_qty"`
	InStock    bool      `json:"in_stock"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		PriceCents:  product.PriceCents,
		ImageURL:    product.ImageURL,
		Category:    product.Category,
		Description: product.Description,
		Sizes:       append([]string{}, product.Sizes...),
		Colors:      append([]string{}, product.Colors...),
		InStock:     product.InStock,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}

	if len(product.Variants) > 0 {
		dto.Variants = make([]VariantDTO, len(product.Variants))
		for i, v := range product.Variants {
			dto.Variants[i] = VariantDTO{
				ID:         v.ID,
				SKU:        v.SKU,
				Size:       v.Size,
				Color:      v.Color,
				PriceCents: v.PriceCents,
				StockQty:   v.StockQty,
				InStock:    v.InStock(),
			}
		}
	}

	return dto
}
