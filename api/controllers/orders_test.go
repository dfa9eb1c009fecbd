package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/merchstorehq/merchstore-backend/internal/orders"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
)

type stubOrdersService struct {
	receipt *ordersvc.ReceiptRecord
	items   []ordersvc.LineItemRecord
	err     error
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input ordersvc.CreateOrderInput) (uuid.UUID, error) {
	panic("unimplemented")
}

func (s *stubOrdersService) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	panic("unimplemented")
}

func (s *stubOrdersService) GetReceipt(ctx context.Context, orderID uuid.UUID) (*ordersvc.ReceiptRecord, error) {
	return s.receipt, s.err
}

func (s *stubOrdersService) GetLineItems(ctx context.Context, orderID uuid.UUID) ([]ordersvc.LineItemRecord, error) {
	return s.items, s.err
}

func withOrderID(ctx context.Context, id string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", id)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func TestOrderReceipt(t *testing.T) {
	orderID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubOrdersService{receipt: &ordersvc.ReceiptRecord{OrderID: orderID, Status: "paid"}}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/receipt", nil).
			WithContext(withOrderID(context.Background(), orderID.String()))
		rec := httptest.NewRecorder()
		OrderReceipt(stub, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope/receipt", nil).
			WithContext(withOrderID(context.Background(), "nope"))
		rec := httptest.NewRecorder()
		OrderReceipt(&stubOrdersService{}, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/receipt", nil).
			WithContext(withOrderID(context.Background(), orderID.String()))
		rec := httptest.NewRecorder()
		OrderReceipt(stub, testLogger()).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestOrderLineItems(t *testing.T) {
	orderID := uuid.New()
	stub := &stubOrdersService{items: []ordersvc.LineItemRecord{{ID: uuid.New(), Quantity: 2}}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/items", nil).
		WithContext(withOrderID(context.Background(), orderID.String()))
	rec := httptest.NewRecorder()
	OrderLineItems(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
