package cart

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

func testLine(name string, maxStock int) Line {
	variantID := uuid.New()
	return Line{
		ProductID:      uuid.New(),
		VariantID:      &variantID,
		Name:           name,
		UnitPriceCents: 4999,
		Quantity:       1,
		MaxStock:       maxStock,
	}
}

func TestAddLineMergesSameIdentity(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	line := testLine("Classic Black Hoodie", 5)

	if err := cart.AddLine(line); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := cart.AddLine(line); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", cart.Lines[0].Quantity)
	}
}

func TestAddLineDistinctVariantsStaySeparate(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	a := testLine("Classic Black Hoodie", 5)
	b := a
	otherVariant := uuid.New()
	b.VariantID = &otherVariant

	if err := cart.AddLine(a); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := cart.AddLine(b); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected two lines for distinct variants, got %d", len(cart.Lines))
	}
}

func TestAddLineRespectsStockCeiling(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	line := testLine("Premium Snapback", 1)

	if err := cart.AddLine(line); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := cart.AddLine(line)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStockLimitReached {
		t.Fatalf("expected STOCK_LIMIT_REACHED, got %v", err)
	}
	if cart.Lines[0].Quantity != 1 {
		t.Fatalf("line must be unchanged after rejected add, got quantity %d", cart.Lines[0].Quantity)
	}
}

func TestUpdateQuantityClampsAndNoOps(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	if err := cart.AddLine(testLine("Canvas Tote Bag", 3)); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Driving quantity to zero or below is a no-op, not a removal.
	if err := cart.UpdateQuantity(0, -1); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 1 {
		t.Fatalf("expected untouched line, got %+v", cart.Lines)
	}

	if err := cart.UpdateQuantity(0, 2); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Lines[0].Quantity)
	}

	err := cart.UpdateQuantity(0, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStockLimitReached {
		t.Fatalf("expected STOCK_LIMIT_REACHED, got %v", err)
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("line must be unchanged after rejected update, got %d", cart.Lines[0].Quantity)
	}
}

func TestUpdateQuantityBadIndex(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	err := cart.UpdateQuantity(0, 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveLineDeletesExactlyOne(t *testing.T) {
	cart := &Cart{SessionID: "s1"}
	first := testLine("Classic Black Hoodie", 5)
	second := testLine("Canvas Tote Bag", 3)
	if err := cart.AddLine(first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cart.AddLine(second); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := cart.RemoveLine(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Name != "Canvas Tote Bag" {
		t.Fatalf("expected only the tote to remain, got %+v", cart.Lines)
	}
}

func TestComputeTotalsFlatTax(t *testing.T) {
	lines := []Line{
		{UnitPriceCents: 4999, Quantity: 1},
		{UnitPriceCents: 2499, Quantity: 2},
	}

	totals := ComputeTotals(lines, 8)
	if totals.SubtotalCents != 9997 {
		t.Fatalf("expected subtotal 9997, got %d", totals.SubtotalCents)
	}
	// 9997 * 0.08 = 799.76, rounds to 800.
	if totals.TaxCents != 800 {
		t.Fatalf("expected tax 800, got %d", totals.TaxCents)
	}
	if totals.ShippingCents != 0 {
		t.Fatalf("expected free shipping, got %d", totals.ShippingCents)
	}
	if totals.TotalCents != 10797 {
		t.Fatalf("expected total 10797, got %d", totals.TotalCents)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, 8)
	if totals.TotalCents != 0 || totals.TaxCents != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}
