package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/internal/cart"
	"github.com/merchstorehq/merchstore-backend/internal/catalog"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

type stubStockReader struct {
	stocks map[uuid.UUID]*catalog.VariantStock
	calls  int
}

func (s *stubStockReader) FetchVariantStock(_ context.Context, variantID uuid.UUID) (*catalog.VariantStock, error) {
	s.calls++
	if stock, ok := s.stocks[variantID]; ok {
		return stock, nil
	}
	return &catalog.VariantStock{VariantID: variantID}, nil
}

func lineWithVariant(name string, variantID uuid.UUID, qty int) cart.Line {
	return cart.Line{
		ProductID:      uuid.New(),
		VariantID:      &variantID,
		Name:           name,
		UnitPriceCents: 4999,
		Quantity:       qty,
		MaxStock:       10,
	}
}

func TestStockValidatorPasses(t *testing.T) {
	variantID := uuid.New()
	reader := &stubStockReader{stocks: map[uuid.UUID]*catalog.VariantStock{
		variantID: {VariantID: variantID, Quantity: 5, InStock: true},
	}}
	v := NewStockValidator(reader)

	err := v.Validate(context.Background(), []cart.Line{lineWithVariant("Classic Black Hoodie", variantID, 2)})
	if err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestStockValidatorFailsFastNamingProduct(t *testing.T) {
	depleted := uuid.New()
	never := uuid.New()
	reader := &stubStockReader{stocks: map[uuid.UUID]*catalog.VariantStock{
		depleted: {VariantID: depleted, Quantity: 0, InStock: false},
		never:    {VariantID: never, Quantity: 50, InStock: true},
	}}
	v := NewStockValidator(reader)

	lines := []cart.Line{
		lineWithVariant("Classic Black Hoodie", depleted, 1),
		lineWithVariant("Premium Snapback", never, 1),
	}
	err := v.Validate(context.Background(), lines)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStockConflict {
		t.Fatalf("expected STOCK_CONFLICT, got %v", err)
	}

	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected conflict details, got %v", typed.Details())
	}
	if details["product"] != "Classic Black Hoodie" {
		t.Fatalf("expected product name in details, got %v", details["product"])
	}
	if details["requested"] != 1 || details["available"] != 0 {
		t.Fatalf("expected requested/available counts, got %v", details)
	}
	if reader.calls != 1 {
		t.Fatalf("expected fail-fast after first line, got %d calls", reader.calls)
	}
}

func TestStockValidatorShortQuantity(t *testing.T) {
	variantID := uuid.New()
	reader := &stubStockReader{stocks: map[uuid.UUID]*catalog.VariantStock{
		variantID: {VariantID: variantID, Quantity: 1, InStock: true},
	}}
	v := NewStockValidator(reader)

	err := v.Validate(context.Background(), []cart.Line{lineWithVariant("Canvas Tote Bag", variantID, 3)})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStockConflict {
		t.Fatalf("expected STOCK_CONFLICT, got %v", err)
	}
}

func TestStockValidatorExemptsVariantLessLines(t *testing.T) {
	reader := &stubStockReader{}
	v := NewStockValidator(reader)

	line := cart.Line{ProductID: uuid.New(), Name: "Canvas Tote Bag", Quantity: 4, MaxStock: 999}
	if err := v.Validate(context.Background(), []cart.Line{line}); err != nil {
		t.Fatalf("expected exemption, got %v", err)
	}
	if reader.calls != 0 {
		t.Fatalf("expected no stock reads, got %d", reader.calls)
	}
}
