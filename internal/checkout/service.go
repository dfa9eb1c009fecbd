package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/internal/cart"
	"github.com/merchstorehq/merchstore-backend/pkg/config"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
	"github.com/merchstorehq/merchstore-backend/pkg/metrics"
)

type sessionStorage interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, sessionID string) error
}

type cartAccess interface {
	Snapshot(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type stockChecker interface {
	Validate(ctx context.Context, lines []cart.Line) error
}

type orderSubmitter interface {
	Submit(ctx context.Context, input SubmitInput) (uuid.UUID, enums.CommitStage, error)
}

type busyLock interface {
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string) error
	IsProcessing(ctx context.Context, sessionID string) (bool, error)
}

// CommitResult is returned when the full commit sequence succeeds.
type CommitResult struct {
	OrderID uuid.UUID           `json:"order_id"`
	State   enums.CheckoutState `json:"state"`
}

// Service drives the checkout wizard: three guarded information steps, back
// navigation, and the Processing commit phase.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	SubmitInformation(ctx context.Context, sessionID string, info CustomerInfo) (*Session, error)
	SubmitShipping(ctx context.Context, sessionID string, info ShippingInfo) (*Session, error)
	Back(ctx context.Context, sessionID string) (*Session, error)
	SubmitPayment(ctx context.Context, sessionID string, info PaymentInfo) (*CommitResult, error)
	Abandon(ctx context.Context, sessionID string) error
}

type service struct {
	sessions  sessionStorage
	carts     cartAccess
	stock     stockChecker
	submitter orderSubmitter
	lock      busyLock
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	cfg       config.CheckoutConfig
}

// NewService constructs the checkout service.
func NewService(
	sessions sessionStorage,
	carts cartAccess,
	stock stockChecker,
	submitter orderSubmitter,
	lock busyLock,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	cfg config.CheckoutConfig,
) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart access required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock validator required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if lock == nil {
		return nil, fmt.Errorf("processing lock required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		sessions:  sessions,
		carts:     carts,
		stock:     stock,
		submitter: submitter,
		lock:      lock,
		metrics:   checkoutMetrics,
		logg:      logg,
		cfg:       cfg,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// SubmitInformation stores validated contact data. From the Information step
// it advances to Shipping; from a later step it just updates the data.
func (s *service) SubmitInformation(ctx context.Context, sessionID string, info CustomerInfo) (*Session, error) {
	session, err := s.editableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ValidateCustomerInfo(info); err != nil {
		return nil, err
	}

	session.Customer = &info
	if session.State == enums.CheckoutStateInformation {
		session.State = enums.CheckoutStateShipping
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitShipping stores validated address data and advances to Payment. It
// requires the contact step to have completed first.
func (s *service) SubmitShipping(ctx context.Context, sessionID string, info ShippingInfo) (*Session, error) {
	session, err := s.editableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State == enums.CheckoutStateInformation || session.Customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutState, "complete contact information first")
	}

	if info.Country == "" {
		info.Country = s.cfg.DefaultCountry
	}
	if err := ValidateShippingInfo(info); err != nil {
		return nil, err
	}

	session.Shipping = &info
	if session.State == enums.CheckoutStateShipping {
		session.State = enums.CheckoutStatePayment
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back steps the wizard one state toward Information. It is unavailable
// while Processing and meaningless at Information or Complete.
func (s *service) Back(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.editableSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.State {
	case enums.CheckoutStatePayment:
		session.State = enums.CheckoutStateShipping
	case enums.CheckoutStateShipping:
		session.State = enums.CheckoutStateInformation
	default:
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutState,
			fmt.Sprintf("cannot navigate back from %s", session.State))
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitPayment validates the payment step and runs the commit phase:
// revalidate stock, create customer, create order, mark paid — strictly in
// that order, short-circuiting on the first failure. Any failure returns the
// wizard to Payment so the shopper can retry.
func (s *service) SubmitPayment(ctx context.Context, sessionID string, info PaymentInfo) (*CommitResult, error) {
	ctx = s.logg.WithSessionID(ctx, sessionID)

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State != enums.CheckoutStatePayment {
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutState,
			fmt.Sprintf("cannot submit payment from %s", session.State))
	}
	if session.Customer == nil || session.Shipping == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutState, "checkout steps incomplete")
	}
	if err := ValidatePaymentInfo(info); err != nil {
		return nil, err
	}

	snapshot, err := s.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	acquired, err := s.lock.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutState, "checkout is already processing")
	}

	// Card fields are validated and discarded; only the method persists.
	session.Payment = &PaymentInfo{Method: info.Method}
	session.State = enums.CheckoutStateProcessing
	if err := s.sessions.Save(ctx, session); err != nil {
		s.releaseLock(ctx, sessionID)
		return nil, err
	}

	started := time.Now()
	s.logg.Info(ctx, "checkout commit started")

	if err := s.stock.Validate(ctx, snapshot.Lines); err != nil {
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStockConflict {
			err = stageError(enums.CommitStageRevalidateStock, err)
		}
		return nil, s.failCommit(ctx, session, enums.CommitStageRevalidateStock, started, err)
	}

	orderID, stage, err := s.submitter.Submit(ctx, SubmitInput{
		Customer: *session.Customer,
		Shipping: *session.Shipping,
		Lines:    snapshot.Lines,
		Totals:   cart.ComputeTotals(snapshot.Lines, s.cfg.TaxRatePercent),
	})
	if err != nil {
		return nil, s.failCommit(ctx, session, stage, started, err)
	}

	// Success: record the order, tear down the session, clear the cart.
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	session.State = enums.CheckoutStateComplete
	session.OrderID = &orderID

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "clearing cart after commit", err)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "tearing down checkout session", err)
	}
	s.releaseLock(ctx, sessionID)

	s.metrics.IncCompleted()
	s.metrics.ObserveCommit("completed", time.Since(started))
	s.logg.Info(ctx, "checkout commit completed")

	return &CommitResult{OrderID: orderID, State: enums.CheckoutStateComplete}, nil
}

// Abandon tears down the wizard session. The cart is left intact so the
// shopper can start checkout again later. Abandoning mid-commit is refused.
func (s *service) Abandon(ctx context.Context, sessionID string) error {
	busy, err := s.lock.IsProcessing(ctx, sessionID)
	if err != nil {
		return err
	}
	if busy {
		return pkgerrors.New(pkgerrors.CodeCheckoutState, "checkout is processing")
	}
	return s.sessions.Delete(ctx, sessionID)
}

// failCommit aborts the remaining stages, clears the busy flag, and returns
// the wizard to Payment.
func (s *service) failCommit(ctx context.Context, session *Session, stage enums.CommitStage, started time.Time, cause error) error {
	s.metrics.IncFailed(stage)
	s.metrics.ObserveCommit("failed", time.Since(started))
	s.logg.Error(ctx, fmt.Sprintf("checkout commit failed during %s", stage), cause)

	session.State = enums.CheckoutStatePayment
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logg.Error(ctx, "restoring checkout session after failed commit", err)
	}
	s.releaseLock(ctx, session.SessionID)
	return cause
}

func (s *service) releaseLock(ctx context.Context, sessionID string) {
	if err := s.lock.Release(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "releasing processing lock", err)
	}
}

// editableSession loads the session and rejects edits while a commit is in
// flight or after completion.
func (s *service) editableSession(ctx context.Context, sessionID string) (*Session, error) {
	busy, err := s.lock.IsProcessing(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutState, "checkout is processing")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.State == enums.CheckoutStateProcessing || session.State == enums.CheckoutStateComplete {
		return nil, pkgerrors.New(pkgerrors.CodeCheckoutState,
			fmt.Sprintf("checkout is %s", session.State))
	}
	return session, nil
}
