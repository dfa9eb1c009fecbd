package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order persistence operations consumed by checkout and the
// receipt endpoints.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (uuid.UUID, error)
	SetOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	GetReceipt(ctx context.Context, orderID uuid.UUID) (*ReceiptRecord, error)
	GetLineItems(ctx context.Context, orderID uuid.UUID) ([]LineItemRecord, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CreateOrder writes the order row and its items in one transaction. The
// order lands as pending; payment marking is a separate call.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (uuid.UUID, error) {
	if len(input.Items) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      input.CustomerID,
		OrderTimestamp:  time.Now().UTC(),
		Status:          enums.OrderStatusPending,
		ShippingAddress: input.ShippingAddress,
		SubtotalCents:   input.SubtotalCents,
		ShippingCents:   input.ShippingCents,
		TaxCents:        input.TaxCents,
		TotalCents:      input.TotalCents,
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			VariantID:      item.VariantID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return repo.CreateOrderItems(ctx, items)
	})
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
	}
	return order.ID, nil
}

func (s *service) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}
	return nil
}

func (s *service) GetReceipt(ctx context.Context, orderID uuid.UUID) (*ReceiptRecord, error) {
	record, err := s.repo.FindReceipt(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading receipt")
	}
	return record, nil
}

func (s *service) GetLineItems(ctx context.Context, orderID uuid.UUID) ([]LineItemRecord, error) {
	records, err := s.repo.FindLineItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order line items")
	}
	return records, nil
}
