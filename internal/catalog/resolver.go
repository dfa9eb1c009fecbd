package catalog

import (
	"fmt"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

// Selection is a candidate (size, color) pair. A nil dimension means the
// shopper has not picked it yet.
type Selection struct {
	Size  *string
	Color *string
}

// Options lists the size/color values still selectable given the opposite
// dimension's current selection.
type Options struct {
	Sizes  []string `json:"sizes"`
	Colors []string `json:"colors"`
}

// ResolveVariant maps a product plus a selection to the concrete
// stock-bearing variant.
//
// A product without variants resolves to (nil, nil): it sells as a single
// implicit variant with no stock ceiling. A product that declares a
// dimension the selection omits is an incomplete pick, not a wildcard.
func ResolveVariant(product *models.Product, sel Selection) (*models.ProductVariant, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "resolve variant: nil product")
	}
	if !product.HasVariants() {
		return nil, nil
	}

	if len(product.Sizes) > 0 && sel.Size == nil {
		return nil, pkgerrors.New(pkgerrors.CodeAmbiguousSelection,
			fmt.Sprintf("%s requires a size selection", product.Name))
	}
	if len(product.Colors) > 0 && sel.Color == nil {
		return nil, pkgerrors.New(pkgerrors.CodeAmbiguousSelection,
			fmt.Sprintf("%s requires a color selection", product.Name))
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		if dimensionMatches(v.Size, sel.Size) && dimensionMatches(v.Color, sel.Color) {
			return v, nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeNoMatchingVariant,
		fmt.Sprintf("no variant of %s matches the selected options", product.Name))
}

// SelectableOptions cross-filters the product's declared sizes and colors
// against in-stock variants sharing the opposite selection. An unselected
// opposite dimension falls back to the full declared set, as does a
// selection no in-stock variant shares.
func SelectableOptions(product *models.Product, sel Selection) Options {
	if product == nil {
		return Options{}
	}

	opts := Options{
		Sizes:  append([]string{}, product.Sizes...),
		Colors: append([]string{}, product.Colors...),
	}
	if !product.HasVariants() {
		return opts
	}

	if sel.Color != nil {
		if sizes := filterDeclared(product.Sizes, func(size string) bool {
			return hasInStockVariant(product, &size, sel.Color)
		}); len(sizes) > 0 {
			opts.Sizes = sizes
		}
	}
	if sel.Size != nil {
		if colors := filterDeclared(product.Colors, func(color string) bool {
			return hasInStockVariant(product, sel.Size, &color)
		}); len(colors) > 0 {
			opts.Colors = colors
		}
	}

	return opts
}

// dimensionMatches compares a variant dimension against a selection: both
// absent is a match, one-sided absence is not.
func dimensionMatches(have, want *string) bool {
	if have == nil && want == nil {
		return true
	}
	if have == nil || want == nil {
		return false
	}
	return *have == *want
}

func hasInStockVariant(product *models.Product, size, color *string) bool {
	for i := range product.Variants {
		v := &product.Variants[i]
		if !v.InStock() {
			continue
		}
		if matchesIfSet(v.Size, size) && matchesIfSet(v.Color, color) {
			return true
		}
	}
	return false
}

// matchesIfSet treats an unset filter as a wildcard, unlike resolution.
func matchesIfSet(have, want *string) bool {
	if want == nil {
		return true
	}
	return have != nil && *have == *want
}

// filterDeclared keeps declared ordering while filtering.
func filterDeclared(declared []string, keep func(string) bool) []string {
	out := make([]string, 0, len(declared))
	for _, value := range declared {
		if keep(value) {
			out = append(out, value)
		}
	}
	return out
}
