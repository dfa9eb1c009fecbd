package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/api/middleware"
	cartsvc "github.com/merchstorehq/merchstore-backend/internal/cart"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
)

type stubCartService struct {
	cart       *cartsvc.CartDTO
	err        error
	addInput   cartsvc.AddItemInput
	lastIndex  int
	lastDelta  int
	cleared    bool
	sessionIDs []string
}

func (s *stubCartService) Get(ctx context.Context, sessionID string) (*cartsvc.CartDTO, error) {
	s.sessionIDs = append(s.sessionIDs, sessionID)
	return s.cart, s.err
}

func (s *stubCartService) Snapshot(ctx context.Context, sessionID string) (*cartsvc.Cart, error) {
	panic("unimplemented")
}

func (s *stubCartService) AddItem(ctx context.Context, sessionID string, input cartsvc.AddItemInput) (*cartsvc.CartDTO, error) {
	s.sessionIDs = append(s.sessionIDs, sessionID)
	s.addInput = input
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, sessionID string, index, delta int) (*cartsvc.CartDTO, error) {
	s.sessionIDs = append(s.sessionIDs, sessionID)
	s.lastIndex = index
	s.lastDelta = delta
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, sessionID string, index int) (*cartsvc.CartDTO, error) {
	s.sessionIDs = append(s.sessionIDs, sessionID)
	s.lastIndex = index
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, sessionID string) error {
	s.sessionIDs = append(s.sessionIDs, sessionID)
	s.cleared = true
	return s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

func sessionContext(sessionID string) context.Context {
	return middleware.WithSessionID(context.Background(), sessionID)
}

func withLineIndex(ctx context.Context, index string) context.Context {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("index", index)
	return context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
}

func emptyCartDTO(sessionID string) *cartsvc.CartDTO {
	return &cartsvc.CartDTO{SessionID: sessionID, Lines: []cartsvc.Line{}}
}

func TestGetCart(t *testing.T) {
	sessionID := uuid.NewString()
	stub := &stubCartService{cart: emptyCartDTO(sessionID)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil).
		WithContext(sessionContext(sessionID))
	rec := httptest.NewRecorder()
	GetCart(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(stub.sessionIDs) != 1 || stub.sessionIDs[0] != sessionID {
		t.Fatalf("expected session id %s to reach the service, got %v", sessionID, stub.sessionIDs)
	}
}

func TestCartAddItem(t *testing.T) {
	sessionID := uuid.NewString()
	productID := uuid.New()

	makeRequest := func(stub *stubCartService, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(body)).
			WithContext(sessionContext(sessionID))
		rec := httptest.NewRecorder()
		CartAddItem(stub, testLogger()).ServeHTTP(rec, req)
		return rec
	}

	t.Run("success", func(t *testing.T) {
		stub := &stubCartService{cart: emptyCartDTO(sessionID)}
		rec := makeRequest(stub, `{"product_id":"`+productID.String()+`","size":"M","color":"Black"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.addInput.ProductID != productID {
			t.Fatalf("expected product id to reach the service")
		}
		if stub.addInput.Size == nil || *stub.addInput.Size != "M" {
			t.Fatalf("expected size M, got %v", stub.addInput.Size)
		}
	})

	t.Run("blank selection fields become nil", func(t *testing.T) {
		stub := &stubCartService{cart: emptyCartDTO(sessionID)}
		rec := makeRequest(stub, `{"product_id":"`+productID.String()+`","size":"  "}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if stub.addInput.Size != nil {
			t.Fatalf("expected blank size to be dropped, got %v", *stub.addInput.Size)
		}
	})

	t.Run("missing product id", func(t *testing.T) {
		rec := makeRequest(&stubCartService{}, `{"size":"M"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		rec := makeRequest(&stubCartService{}, `{"product_id":"`+productID.String()+`","qty":3}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("out of stock maps to 409", func(t *testing.T) {
		stub := &stubCartService{err: pkgerrors.New(pkgerrors.CodeOutOfStock, "Vintage Graphic Tee is out of stock")}
		rec := makeRequest(stub, `{"product_id":"`+productID.String()+`"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestCartUpdateQuantity(t *testing.T) {
	sessionID := uuid.NewString()

	makeRequest := func(stub *stubCartService, index, body string) *httptest.ResponseRecorder {
		ctx := withLineIndex(sessionContext(sessionID), index)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/"+index, bytes.NewBufferString(body)).
			WithContext(ctx)
		rec := httptest.NewRecorder()
		CartUpdateQuantity(stub, testLogger()).ServeHTTP(rec, req)
		return rec
	}

	t.Run("success", func(t *testing.T) {
		stub := &stubCartService{cart: emptyCartDTO(sessionID)}
		rec := makeRequest(stub, "1", `{"delta":-1}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.lastIndex != 1 || stub.lastDelta != -1 {
			t.Fatalf("expected index 1 delta -1, got %d %d", stub.lastIndex, stub.lastDelta)
		}
	})

	t.Run("non-numeric index", func(t *testing.T) {
		rec := makeRequest(&stubCartService{}, "abc", `{"delta":1}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("stock limit maps to 409", func(t *testing.T) {
		stub := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStockLimitReached, "only 15 available")}
		rec := makeRequest(stub, "0", `{"delta":1}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestCartRemoveItem(t *testing.T) {
	sessionID := uuid.NewString()
	stub := &stubCartService{cart: emptyCartDTO(sessionID)}

	ctx := withLineIndex(sessionContext(sessionID), "2")
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/2", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	CartRemoveItem(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.lastIndex != 2 {
		t.Fatalf("expected index 2, got %d", stub.lastIndex)
	}
}

func TestCartClear(t *testing.T) {
	sessionID := uuid.NewString()
	stub := &stubCartService{}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil).
		WithContext(sessionContext(sessionID))
	rec := httptest.NewRecorder()
	CartClear(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !stub.cleared {
		t.Fatalf("expected Clear to be invoked")
	}
}

func TestCartLockedDuringProcessing(t *testing.T) {
	sessionID := uuid.NewString()
	stub := &stubCartService{err: pkgerrors.New(pkgerrors.CodeCheckoutState, "cart is locked while checkout is processing")}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		bytes.NewBufferString(`{"product_id":"`+uuid.NewString()+`"}`)).
		WithContext(sessionContext(sessionID))
	rec := httptest.NewRecorder()
	CartAddItem(stub, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeCheckoutState) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}
