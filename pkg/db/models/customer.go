package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is created during the commit phase from contact + shipping data.
// The password hash holds a generated placeholder; the storefront has no
// login flow.
type Customer struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string    `gorm:"column:email;not null"`
	PasswordHash    string    `gorm:"column:password_hash;not null"`
	FullName        string    `gorm:"column:full_name;not null"`
	Phone           *string   `gorm:"column:phone"`
	ShippingAddress string    `gorm:"column:shipping_address;not null"`
	BillingAddress  string    `gorm:"column:billing_address;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
