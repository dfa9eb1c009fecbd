package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category *string `json:"category,omitempty"`
	Query    string  `json:"q,omitempty"`
}

// ProductPage is one page of catalog listings plus the cursor for the next.
type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// Service exposes storefront catalog reads and variant resolution.
type Service interface {
	ListProducts(ctx context.Context, filters ListFilters, page pagination.Params) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	VariantOptions(ctx context.Context, productID uuid.UUID, sel Selection) (*Options, error)
	ResolveSelection(ctx context.Context, productID uuid.UUID, sel Selection) (*models.Product, *models.ProductVariant, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters, page pagination.Params) (*ProductPage, error) {
	rows, nextCursor, err := s.repo.ListProducts(ctx, filters, page)
	if err != nil {
		if page.Cursor != "" {
			if _, parseErr := pagination.ParseCursor(page.Cursor); parseErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid pagination cursor")
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing catalog products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return &ProductPage{Items: out, NextCursor: nextCursor}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) VariantOptions(ctx context.Context, productID uuid.UUID, sel Selection) (*Options, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	opts := SelectableOptions(product, sel)
	return &opts, nil
}

// ResolveSelection loads the product and resolves the selection against its
// variant grid in one pass, so callers get both the listing snapshot and the
// concrete variant.
func (s *service) ResolveSelection(ctx context.Context, productID uuid.UUID, sel Selection) (*models.Product, *models.ProductVariant, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	variant, err := ResolveVariant(product, sel)
	if err != nil {
		return nil, nil, err
	}
	return product, variant, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	return product, nil
}
