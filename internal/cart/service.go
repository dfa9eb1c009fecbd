package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchstorehq/merchstore-backend/internal/catalog"
	"github.com/merchstorehq/merchstore-backend/pkg/config"
	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

// AddItemInput identifies the product and the shopper's current selection.
type AddItemInput struct {
	ProductID uuid.UUID
	Size      *string
	Color     *string
}

// Totals are derived from line snapshots, never re-read from the catalog.
type Totals struct {
	SubtotalCents int `json:"subtotal_cents"`
	TaxCents      int `json:"tax_cents"`
	ShippingCents int `json:"shipping_cents"`
	TotalCents    int `json:"total_cents"`
}

// CartDTO is the cart payload returned to clients.
type CartDTO struct {
	SessionID string `json:"session_id"`
	Lines     []Line `json:"lines"`
	Totals    Totals `json:"totals"`
}

type storage interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Clear(ctx context.Context, sessionID string) error
}

type selectionResolver interface {
	ResolveSelection(ctx context.Context, productID uuid.UUID, sel catalog.Selection) (*models.Product, *models.ProductVariant, error)
}

type processingChecker interface {
	IsProcessing(ctx context.Context, sessionID string) (bool, error)
}

// Service exposes cart reads and mutations for one session.
type Service interface {
	Get(ctx context.Context, sessionID string) (*CartDTO, error)
	Snapshot(ctx context.Context, sessionID string) (*Cart, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, sessionID string, index, delta int) (*CartDTO, error)
	RemoveItem(ctx context.Context, sessionID string, index int) (*CartDTO, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store    storage
	resolver selectionResolver
	busy     processingChecker
	cfg      config.CheckoutConfig
}

// NewService constructs a cart service instance.
func NewService(store storage, resolver selectionResolver, busy processingChecker, cfg config.CheckoutConfig) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("selection resolver required")
	}
	if busy == nil {
		return nil, fmt.Errorf("processing checker required")
	}
	return &service{store: store, resolver: resolver, busy: busy, cfg: cfg}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*CartDTO, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(cart), nil
}

// Snapshot returns the raw cart for checkout to consume at commit time.
func (s *service) Snapshot(ctx context.Context, sessionID string) (*Cart, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartDTO, error) {
	if err := s.ensureNotProcessing(ctx, sessionID); err != nil {
		return nil, err
	}

	product, variant, err := s.resolver.ResolveSelection(ctx, input.ProductID, catalog.Selection{
		Size:  input.Size,
		Color: input.Color,
	})
	if err != nil {
		return nil, err
	}
	if variant != nil && !variant.InStock() {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock,
			fmt.Sprintf("%s is out of stock", product.Name))
	}

	line := Line{
		ProductID:      product.ID,
		Name:           product.Name,
		ImageURL:       product.ImageURL,
		Category:       product.Category,
		Description:    product.Description,
		Size:           input.Size,
		Color:          input.Color,
		UnitPriceCents: product.PriceCents,
		MaxStock:       s.cfg.MaxUnlimitedQty,
	}
	if variant != nil {
		id := variant.ID
		line.VariantID = &id
		line.UnitPriceCents = variant.PriceCents
		line.MaxStock = variant.StockQty
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := cart.AddLine(line); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.toDTO(cart), nil
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID string, index, delta int) (*CartDTO, error) {
	if err := s.ensureNotProcessing(ctx, sessionID); err != nil {
		return nil, err
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := cart.UpdateQuantity(index, delta); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.toDTO(cart), nil
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, index int) (*CartDTO, error) {
	if err := s.ensureNotProcessing(ctx, sessionID); err != nil {
		return nil, err
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveLine(index); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.toDTO(cart), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}

// ensureNotProcessing blocks cart mutation while a checkout commit for the
// same session is in flight. This is the only concurrency guard; it stops a
// double-submit, not another session depleting stock.
func (s *service) ensureNotProcessing(ctx context.Context, sessionID string) error {
	busy, err := s.busy.IsProcessing(ctx, sessionID)
	if err != nil {
		return err
	}
	if busy {
		return pkgerrors.New(pkgerrors.CodeCheckoutState, "cart is locked while checkout is processing")
	}
	return nil
}

func (s *service) toDTO(cart *Cart) *CartDTO {
	return &CartDTO{
		SessionID: cart.SessionID,
		Lines:     cart.Lines,
		Totals:    ComputeTotals(cart.Lines, s.cfg.TaxRatePercent),
	}
}

// ComputeTotals sums the line snapshots and applies the flat tax rate.
// Shipping is always free. Tax rounds half-up to a whole cent.
func ComputeTotals(lines []Line, taxRatePercent float64) Totals {
	subtotal := 0
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Quantity
	}

	tax := decimal.NewFromInt(int64(subtotal)).
		Mul(decimal.NewFromFloat(taxRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      int(tax),
		ShippingCents: 0,
		TotalCents:    subtotal + int(tax),
	}
}
