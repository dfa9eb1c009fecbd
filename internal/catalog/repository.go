package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	"github.com/merchstorehq/merchstore-backend/pkg/pagination"
)

// VariantStock is the authoritative point-read used by checkout revalidation.
type VariantStock struct {
	VariantID uuid.UUID
	Quantity  int
	InStock   bool
}

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FetchCatalog returns the full catalog with variant grids preloaded. Used
// once per storefront session.
func (r *Repository) FetchCatalog(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("sku ASC")
		}).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListProducts returns one page of catalog listings matching the filters,
// variants preloaded. The second return value is the cursor for the next
// page, empty when this page is the last.
func (r *Repository) ListProducts(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(page.Limit)

	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("sku ASC")
		})

	if filters.Category != nil {
		qb = qb.Where("category = ?", *filters.Category)
	}
	if search := filters.Query; search != "" {
		pattern := "%" + search + "%"
		qb = qb.Where("LOWER(name) LIKE LOWER(?)", pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at > ?) OR (created_at = ? AND id > ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err = qb.Order("created_at ASC").Order("id ASC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// GetProductDetail fetches one product with its variant grid.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("sku ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads a variant row without its parent.
func (r *Repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// FetchVariantStock re-reads the live stock count for a variant.
func (r *Repository) FetchVariantStock(ctx context.Context, variantID uuid.UUID) (*VariantStock, error) {
	variant, err := r.FindVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return &VariantStock{
		VariantID: variant.ID,
		Quantity:  variant.StockQty,
		InStock:   variant.InStock(),
	}, nil
}
