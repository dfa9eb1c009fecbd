package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/internal/cart"
	"github.com/merchstorehq/merchstore-backend/internal/customers"
	"github.com/merchstorehq/merchstore-backend/internal/orders"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

type customerCreator interface {
	CreateCustomer(ctx context.Context, input customers.CreateCustomerInput) (uuid.UUID, error)
}

type orderWriter interface {
	CreateOrder(ctx context.Context, input orders.CreateOrderInput) (uuid.UUID, error)
	SetOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

// SubmitInput is the committed snapshot the submitter turns into a persisted
// order.
type SubmitInput struct {
	Customer CustomerInfo
	Shipping ShippingInfo
	Lines    []cart.Line
	Totals   cart.Totals
}

// Submitter runs the three remote operations that follow revalidation:
// create customer, create order, mark paid. The sequence is strict and
// non-transactional; no operation is retried and nothing is rolled back. A
// customer created before a failed order creation stays orphaned.
type Submitter struct {
	customers customerCreator
	orders    orderWriter
}

// NewSubmitter builds a submitter over the customer and order writers.
func NewSubmitter(customers customerCreator, orders orderWriter) (*Submitter, error) {
	if customers == nil {
		return nil, fmt.Errorf("customer creator required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	return &Submitter{customers: customers, orders: orders}, nil
}

// Submit executes the commit sequence and returns the new order ID. On
// failure the failing stage is returned alongside a stage-tagged error.
func (s *Submitter) Submit(ctx context.Context, input SubmitInput) (uuid.UUID, enums.CommitStage, error) {
	address := input.Shipping.FormatAddress()

	var phone *string
	if input.Customer.Phone != "" {
		p := input.Customer.Phone
		phone = &p
	}
	customerID, err := s.customers.CreateCustomer(ctx, customers.CreateCustomerInput{
		Email:           input.Customer.Email,
		FullName:        input.Customer.FullName(),
		Phone:           phone,
		ShippingAddress: address,
		BillingAddress:  address,
	})
	if err != nil {
		return uuid.Nil, enums.CommitStageCreateCustomer, stageError(enums.CommitStageCreateCustomer, err)
	}

	items := make([]orders.OrderItemInput, 0, len(input.Lines))
	for _, line := range input.Lines {
		items = append(items, orders.OrderItemInput{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}
	orderID, err := s.orders.CreateOrder(ctx, orders.CreateOrderInput{
		CustomerID:      customerID,
		ShippingAddress: address,
		ShippingCents:   input.Totals.ShippingCents,
		SubtotalCents:   input.Totals.SubtotalCents,
		TaxCents:        input.Totals.TaxCents,
		TotalCents:      input.Totals.TotalCents,
		Items:           items,
	})
	if err != nil {
		return uuid.Nil, enums.CommitStageCreateOrder, stageError(enums.CommitStageCreateOrder, err)
	}

	// Payment is simulated: marking the order paid is the whole gateway.
	if err := s.orders.SetOrderStatus(ctx, orderID, enums.OrderStatusPaid); err != nil {
		return orderID, enums.CommitStageMarkPaid, stageError(enums.CommitStageMarkPaid, err)
	}

	return orderID, "", nil
}

func stageError(stage enums.CommitStage, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeOrderSubmission, err,
		fmt.Sprintf("order submission failed during %s", stage)).
		WithDetails(map[string]any{"stage": stage.String()})
}
