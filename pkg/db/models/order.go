package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/pkg/enums"
)

// Order is the persisted result of a successful commit phase.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	OrderTimestamp  time.Time         `gorm:"column:order_timestamp;not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	SubtotalCents   int               `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int               `gorm:"column:shipping_cents;not null;default:0"`
	TaxCents        int               `gorm:"column:tax_cents;not null"`
	TotalCents      int               `gorm:"column:total_cents;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
