package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindReceipt(ctx context.Context, orderID uuid.UUID) (*ReceiptRecord, error)
	FindLineItems(ctx context.Context, orderID uuid.UUID) ([]LineItemRecord, error)
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).
		Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

const receiptQuery = `
SELECT o.id AS order_id,
       o.order_timestamp,
       o.status,
       o.shipping_address,
       o.subtotal_cents,
       o.shipping_cents,
       o.tax_cents,
       o.total_cents,
       c.id AS customer_id,
       c.email AS customer_email,
       c.full_name AS customer_name
FROM orders o
JOIN customers c ON c.id = o.customer_id
WHERE o.id = ?
`

func (r *repository) FindReceipt(ctx context.Context, orderID uuid.UUID) (*ReceiptRecord, error) {
	var record ReceiptRecord
	result := r.db.WithContext(ctx).Raw(receiptQuery, orderID).Scan(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &record, nil
}

const lineItemsQuery = `
SELECT oi.id,
       oi.quantity,
       oi.unit_price_cents,
       oi.variant_id,
       p.id AS product_id,
       p.name AS product_name,
       p.image_url,
       v.size,
       v.color,
       v.sku
FROM order_items oi
JOIN products p ON p.id = oi.product_id
LEFT JOIN product_variants v ON v.id = oi.variant_id
WHERE oi.order_id = ?
ORDER BY oi.created_at ASC
`

func (r *repository) FindLineItems(ctx context.Context, orderID uuid.UUID) ([]LineItemRecord, error) {
	var records []LineItemRecord
	if err := r.db.WithContext(ctx).Raw(lineItemsQuery, orderID).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindPendingOrdersBefore returns orders still pending past the cutoff. These
// are commits where the paid marker never landed.
func (r *repository) FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
