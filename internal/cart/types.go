package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

// Line is one cart entry. Display fields and the unit price are snapshots
// captured at add-time; only stock moves after that.
type Line struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	Name           string     `json:"name"`
	ImageURL       string     `json:"image_url"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	Size           *string    `json:"size,omitempty"`
	Color          *string    `json:"color,omitempty"`
	UnitPriceCents int        `json:"unit_price_cents"`
	Quantity       int        `json:"quantity"`
	MaxStock       int        `json:"max_stock"`
}

// Unlimited reports whether the line has no effective stock ceiling.
func (l Line) Unlimited(sentinel int) bool {
	return l.MaxStock >= sentinel
}

// Cart is the per-session line collection. All mutation goes through the
// methods below; lines are addressed by index because two lines may share a
// product with different variants.
type Cart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// sameIdentity matches lines on the (product, variant) pair; two absent
// variants match each other.
func sameIdentity(a Line, b Line) bool {
	if a.ProductID != b.ProductID {
		return false
	}
	if a.VariantID == nil && b.VariantID == nil {
		return true
	}
	if a.VariantID == nil || b.VariantID == nil {
		return false
	}
	return *a.VariantID == *b.VariantID
}

// AddLine merges the candidate into an existing line with the same identity
// (incrementing its quantity by one) or appends it with quantity 1. Hitting
// the line's stock ceiling leaves the cart unchanged.
func (c *Cart) AddLine(candidate Line) error {
	for i := range c.Lines {
		if !sameIdentity(c.Lines[i], candidate) {
			continue
		}
		if c.Lines[i].Quantity+1 > c.Lines[i].MaxStock {
			return pkgerrors.New(pkgerrors.CodeStockLimitReached,
				fmt.Sprintf("only %d of %s available", c.Lines[i].MaxStock, c.Lines[i].Name))
		}
		c.Lines[i].Quantity++
		return nil
	}

	candidate.Quantity = 1
	c.Lines = append(c.Lines, candidate)
	return nil
}

// UpdateQuantity applies a delta to the line at index. A delta that drives
// the quantity to zero or below is a no-op; removal is explicit via
// RemoveLine. A delta past the stock ceiling is rejected.
func (c *Cart) UpdateQuantity(index int, delta int) error {
	if index < 0 || index >= len(c.Lines) {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line index out of range")
	}

	line := c.Lines[index]
	next := line.Quantity + delta
	if next <= 0 {
		return nil
	}
	if next > line.MaxStock {
		return pkgerrors.New(pkgerrors.CodeStockLimitReached,
			fmt.Sprintf("only %d of %s available", line.MaxStock, line.Name))
	}

	c.Lines[index].Quantity = next
	c.purge()
	return nil
}

// RemoveLine deletes the line at index unconditionally.
func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.Lines) {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line index out of range")
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
	return nil
}

// purge drops any line whose quantity fell to zero or below.
func (c *Cart) purge() {
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	c.Lines = kept
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
