package orders

import (
	"time"

	"github.com/google/uuid"
)

// ReceiptRecord is the joined order + customer row behind the receipt view.
type ReceiptRecord struct {
	OrderID         uuid.UUID `json:"order_id"`
	OrderTimestamp  time.Time `json:"order_timestamp"`
	Status          string    `json:"status"`
	ShippingAddress string    `json:"shipping_address"`
	SubtotalCents   int       `json:"subtotal_cents"`
	ShippingCents   int       `json:"shipping_cents"`
	TaxCents        int       `json:"tax_cents"`
	TotalCents      int       `json:"total_cents"`
	CustomerID      uuid.UUID `json:"customer_id"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerName    string    `json:"customer_name"`
}

// LineItemRecord is one receipt line joined back to its catalog rows.
type LineItemRecord struct {
	ID             uuid.UUID  `json:"id"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unit_price_cents"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductID      uuid.UUID  `json:"product_id"`
	ProductName    string     `json:"product_name"`
	ImageURL       string     `json:"image_url"`
	Size           *string    `json:"size,omitempty"`
	Color          *string    `json:"color,omitempty"`
	SKU            *string    `json:"sku,omitempty"`
}

// OrderItemInput is one (variant, quantity) pair submitted at commit time.
type OrderItemInput struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Quantity       int
	UnitPriceCents int
}

// CreateOrderInput carries everything the commit phase knows when the order
// row is written.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	ShippingAddress string
	ShippingCents   int
	SubtotalCents   int
	TaxCents        int
	TotalCents      int
	Items           []OrderItemInput
}
