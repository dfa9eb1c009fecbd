package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/api/responses"
	"github.com/merchstorehq/merchstore-backend/api/validators"
	catalogsvc "github.com/merchstorehq/merchstore-backend/internal/catalog"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
	"github.com/merchstorehq/merchstore-backend/pkg/pagination"
)

const maxSearchQueryLen = 120

// ListCatalog handles storefront browsing with optional category and text
// filters plus cursor pagination.
func ListCatalog(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		filters := catalogsvc.ListFilters{
			Query: validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen),
		}
		if category := validators.SanitizeString(r.URL.Query().Get("category"), maxSearchQueryLen); category != "" {
			filters.Category = &category
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		products, err := svc.ListProducts(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// GetCatalogProduct returns one product with its variant grid.
func GetCatalogProduct(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// CatalogVariantOptions returns the size/color values still selectable given
// the shopper's current partial selection.
func CatalogVariantOptions(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		options, err := svc.VariantOptions(r.Context(), productID, selectionFromQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, options)
	}
}

func parseProductID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "productId")
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return id, nil
}

func selectionFromQuery(r *http.Request) catalogsvc.Selection {
	var sel catalogsvc.Selection
	if size := validators.SanitizeString(r.URL.Query().Get("size"), maxSearchQueryLen); size != "" {
		sel.Size = &size
	}
	if color := validators.SanitizeString(r.URL.Query().Get("color"), maxSearchQueryLen); color != "" {
		sel.Color = &color
	}
	return sel
}
