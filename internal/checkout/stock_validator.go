package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/internal/cart"
	"github.com/merchstorehq/merchstore-backend/internal/catalog"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

type stockReader interface {
	FetchVariantStock(ctx context.Context, variantID uuid.UUID) (*catalog.VariantStock, error)
}

// StockValidator re-checks every cart line against live stock immediately
// before commit. It narrows, but does not close, the race between add-to-cart
// and purchase: nothing is locked or reserved here.
type StockValidator struct {
	stock stockReader
}

// NewStockValidator builds a validator over the authoritative stock reader.
func NewStockValidator(stock stockReader) *StockValidator {
	return &StockValidator{stock: stock}
}

// Validate fails fast on the first line whose live stock cannot cover the
// requested quantity. Lines without a variant identity are exempt.
func (v *StockValidator) Validate(ctx context.Context, lines []cart.Line) error {
	for _, line := range lines {
		if line.VariantID == nil {
			continue
		}

		stock, err := v.stock.FetchVariantStock(ctx, *line.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
				fmt.Sprintf("fetching stock for %s", line.Name))
		}

		if !stock.InStock || stock.Quantity < line.Quantity {
			return pkgerrors.New(pkgerrors.CodeStockConflict,
				fmt.Sprintf("%s has insufficient stock", line.Name)).
				WithDetails(map[string]any{
					"product":   line.Name,
					"requested": line.Quantity,
					"available": stock.Quantity,
				})
		}
	}
	return nil
}
