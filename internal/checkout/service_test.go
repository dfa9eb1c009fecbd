package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/merchstorehq/merchstore-backend/internal/cart"
	"github.com/merchstorehq/merchstore-backend/pkg/config"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
	"github.com/merchstorehq/merchstore-backend/pkg/metrics"
)

type memorySessions struct {
	docs map[string]*Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{docs: map[string]*Session{}}
}

func (m *memorySessions) Get(_ context.Context, sessionID string) (*Session, error) {
	if doc, ok := m.docs[sessionID]; ok {
		copied := *doc
		return &copied, nil
	}
	return &Session{SessionID: sessionID, State: enums.CheckoutStateInformation}, nil
}

func (m *memorySessions) Save(_ context.Context, session *Session) error {
	copied := *session
	m.docs[session.SessionID] = &copied
	return nil
}

func (m *memorySessions) Delete(_ context.Context, sessionID string) error {
	delete(m.docs, sessionID)
	return nil
}

type memoryCartAccess struct {
	cart       *cart.Cart
	clearCalls int
}

func (m *memoryCartAccess) Snapshot(_ context.Context, sessionID string) (*cart.Cart, error) {
	if m.cart == nil {
		return &cart.Cart{SessionID: sessionID, Lines: []cart.Line{}}, nil
	}
	return m.cart, nil
}

func (m *memoryCartAccess) Clear(context.Context, string) error {
	m.clearCalls++
	m.cart = nil
	return nil
}

type stubStockChecker struct {
	calls int
	err   error
}

func (s *stubStockChecker) Validate(context.Context, []cart.Line) error {
	s.calls++
	return s.err
}

type stubSubmitter struct {
	calls   int
	orderID uuid.UUID
	stage   enums.CommitStage
	err     error
	last    SubmitInput
}

func (s *stubSubmitter) Submit(_ context.Context, input SubmitInput) (uuid.UUID, enums.CommitStage, error) {
	s.calls++
	s.last = input
	if s.err != nil {
		return uuid.Nil, s.stage, s.err
	}
	return s.orderID, "", nil
}

type memoryLock struct {
	held map[string]bool
}

func newMemoryLock() *memoryLock {
	return &memoryLock{held: map[string]bool{}}
}

func (m *memoryLock) Acquire(_ context.Context, sessionID string) (bool, error) {
	if m.held[sessionID] {
		return false, nil
	}
	m.held[sessionID] = true
	return true, nil
}

func (m *memoryLock) Release(_ context.Context, sessionID string) error {
	delete(m.held, sessionID)
	return nil
}

func (m *memoryLock) IsProcessing(_ context.Context, sessionID string) (bool, error) {
	return m.held[sessionID], nil
}

type checkoutFixture struct {
	svc       Service
	sessions  *memorySessions
	carts     *memoryCartAccess
	stock     *stubStockChecker
	submitter *stubSubmitter
	lock      *memoryLock
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	variantID := uuid.New()
	f := &checkoutFixture{
		sessions: newMemorySessions(),
		carts: &memoryCartAccess{cart: &cart.Cart{
			SessionID: "s1",
			Lines: []cart.Line{{
				ProductID:      uuid.New(),
				VariantID:      &variantID,
				Name:           "Classic Black Hoodie",
				UnitPriceCents: 4999,
				Quantity:       1,
				MaxStock:       5,
			}},
		}},
		stock:     &stubStockChecker{},
		submitter: &stubSubmitter{orderID: uuid.New()},
		lock:      newMemoryLock(),
	}

	cfg := config.CheckoutConfig{TaxRatePercent: 8, DefaultCountry: "United States", MaxUnlimitedQty: 999}
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(f.sessions, f.carts, f.stock, f.submitter, f.lock,
		metrics.NewCheckoutMetrics(nil), logg, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *checkoutFixture) walkToPayment(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.svc.SubmitInformation(ctx, "s1", validCustomer()); err != nil {
		t.Fatalf("information step: %v", err)
	}
	if _, err := f.svc.SubmitShipping(ctx, "s1", validShipping()); err != nil {
		t.Fatalf("shipping step: %v", err)
	}
}

func TestFullValidFlowCompletesAndClearsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	session, err := f.svc.Get(ctx, "s1")
	if err != nil || session.State != enums.CheckoutStateInformation {
		t.Fatalf("expected fresh wizard at information, got %v / %v", session, err)
	}

	f.walkToPayment(t)

	session, _ = f.svc.Get(ctx, "s1")
	if session.State != enums.CheckoutStatePayment {
		t.Fatalf("expected payment state, got %s", session.State)
	}

	result, err := f.svc.SubmitPayment(ctx, "s1", validCard())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.State != enums.CheckoutStateComplete {
		t.Fatalf("expected complete, got %s", result.State)
	}
	if result.OrderID != f.submitter.orderID {
		t.Fatalf("expected submitted order id")
	}
	if f.carts.clearCalls != 1 {
		t.Fatalf("expected cart cleared once, got %d", f.carts.clearCalls)
	}
	if _, ok := f.sessions.docs["s1"]; ok {
		t.Fatal("expected session teardown after completion")
	}
	if f.lock.held["s1"] {
		t.Fatal("expected lock released after completion")
	}
}

func TestRevalidationFailureAbortsBeforeCustomerCreation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)

	f.stock.err = pkgerrors.New(pkgerrors.CodeStockConflict, "Classic Black Hoodie has insufficient stock").
		WithDetails(map[string]any{"product": "Classic Black Hoodie", "requested": 1, "available": 0})

	_, err := f.svc.SubmitPayment(ctx, "s1", validCard())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStockConflict {
		t.Fatalf("expected STOCK_CONFLICT, got %v", err)
	}
	if f.submitter.calls != 0 {
		t.Fatalf("customer creation must not be attempted, got %d submit calls", f.submitter.calls)
	}

	session, _ := f.svc.Get(ctx, "s1")
	if session.State != enums.CheckoutStatePayment {
		t.Fatalf("wizard must return to payment, got %s", session.State)
	}
	if f.lock.held["s1"] {
		t.Fatal("expected lock released after failure")
	}
	if f.carts.clearCalls != 0 {
		t.Fatal("cart must survive a failed commit")
	}
}

func TestSubmissionFailureReturnsToPayment(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)

	f.submitter.stage = enums.CommitStageCreateOrder
	f.submitter.err = pkgerrors.New(pkgerrors.CodeOrderSubmission, "order submission failed during create_order").
		WithDetails(map[string]any{"stage": "create_order"})

	_, err := f.svc.SubmitPayment(ctx, "s1", validCard())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOrderSubmission {
		t.Fatalf("expected ORDER_SUBMISSION_FAILED, got %v", err)
	}

	session, _ := f.svc.Get(ctx, "s1")
	if session.State != enums.CheckoutStatePayment {
		t.Fatalf("wizard must return to payment, got %s", session.State)
	}
}

func TestInvalidPaymentNeverReachesProcessing(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)

	bad := validCard()
	bad.CardNumber = "4111"
	_, err := f.svc.SubmitPayment(ctx, "s1", bad)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.stock.calls != 0 || f.submitter.calls != 0 {
		t.Fatal("commit must not start with invalid payment input")
	}
}

func TestShippingRequiresContactFirst(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.SubmitShipping(context.Background(), "s1", validShipping())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCheckoutState {
		t.Fatalf("expected CHECKOUT_STATE_CONFLICT, got %v", err)
	}
}

func TestShippingDefaultsCountry(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SubmitInformation(ctx, "s1", validCustomer()); err != nil {
		t.Fatalf("information: %v", err)
	}

	info := validShipping()
	info.Country = ""
	session, err := f.svc.SubmitShipping(ctx, "s1", info)
	if err != nil {
		t.Fatalf("shipping: %v", err)
	}
	if session.Shipping.Country != "United States" {
		t.Fatalf("expected defaulted country, got %q", session.Shipping.Country)
	}
}

func TestPaymentFromWrongStateBlocked(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.SubmitPayment(context.Background(), "s1", validCard())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCheckoutState {
		t.Fatalf("expected CHECKOUT_STATE_CONFLICT, got %v", err)
	}
}

func TestEmptyCartBlocksCommit(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)
	f.carts.cart = nil

	_, err := f.svc.SubmitPayment(ctx, "s1", validCard())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}

func TestDoubleSubmitBlockedByLock(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)

	f.lock.held["s1"] = true
	_, err := f.svc.SubmitPayment(ctx, "s1", validCard())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCheckoutState {
		t.Fatalf("expected CHECKOUT_STATE_CONFLICT on double submit, got %v", err)
	}
	if f.submitter.calls != 0 {
		t.Fatal("locked session must not reach the submitter")
	}
}

func TestBackNavigation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)

	session, err := f.svc.Back(ctx, "s1")
	if err != nil || session.State != enums.CheckoutStateShipping {
		t.Fatalf("expected shipping after back, got %v / %v", session, err)
	}

	session, err = f.svc.Back(ctx, "s1")
	if err != nil || session.State != enums.CheckoutStateInformation {
		t.Fatalf("expected information after back, got %v / %v", session, err)
	}

	_, err = f.svc.Back(ctx, "s1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCheckoutState {
		t.Fatalf("expected CHECKOUT_STATE_CONFLICT at information, got %v", err)
	}
}

func TestBackBlockedWhileProcessing(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)
	f.lock.held["s1"] = true

	_, err := f.svc.Back(ctx, "s1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCheckoutState {
		t.Fatalf("expected CHECKOUT_STATE_CONFLICT while processing, got %v", err)
	}
}

func TestCardDataNeverPersists(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)
	f.submitter.err = pkgerrors.New(pkgerrors.CodeOrderSubmission, "order submission failed during create_order")
	f.submitter.stage = enums.CommitStageCreateOrder

	_, _ = f.svc.SubmitPayment(ctx, "s1", PaymentInfo{
		Method:     enums.PaymentMethodCard,
		CardNumber: "4242424242424242",
		CardName:   "Ada Lovelace",
		Expiry:     "12/30",
		CVV:        "123",
	})

	session, _ := f.svc.Get(ctx, "s1")
	if session.Payment == nil || session.Payment.Method != enums.PaymentMethodCard {
		t.Fatalf("expected payment method to persist, got %+v", session.Payment)
	}
	if session.Payment.CardNumber != "" || session.Payment.CVV != "" {
		t.Fatalf("card fields must not persist, got %+v", session.Payment)
	}
}

func TestAbandonDropsSessionKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)

	if err := f.svc.Abandon(ctx, "s1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	session, _ := f.svc.Get(ctx, "s1")
	if session.State != enums.CheckoutStateInformation {
		t.Fatalf("expected a fresh wizard after abandon, got %s", session.State)
	}
	if f.carts.clearCalls != 0 {
		t.Fatalf("abandon must not clear the cart")
	}
}

func TestAbandonBlockedWhileProcessing(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)
	f.lock.held["s1"] = true

	err := f.svc.Abandon(ctx, "s1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCheckoutState {
		t.Fatalf("expected CHECKOUT_STATE_CONFLICT while processing, got %v", err)
	}
}

func TestCommitTotalsComeFromSnapshot(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.walkToPayment(t)

	if _, err := f.svc.SubmitPayment(ctx, "s1", PaymentInfo{Method: enums.PaymentMethodPayPal}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if f.submitter.last.Totals.SubtotalCents != 4999 {
		t.Fatalf("expected subtotal 4999, got %d", f.submitter.last.Totals.SubtotalCents)
	}
	// 4999 * 0.08 = 399.92 -> 400.
	if f.submitter.last.Totals.TaxCents != 400 {
		t.Fatalf("expected tax 400, got %d", f.submitter.last.Totals.TaxCents)
	}
	if f.submitter.last.Totals.TotalCents != 5399 {
		t.Fatalf("expected total 5399, got %d", f.submitter.last.Totals.TotalCents)
	}
}
