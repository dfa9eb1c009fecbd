package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/redis"
)

// CustomerInfo is the contact step's form state.
type CustomerInfo struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,lenient_phone"`
}

// FullName joins the contact name the way the customer record stores it.
func (c CustomerInfo) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ShippingInfo is the address step's form state. Country is defaulted by the
// service before validation, so it is always present here.
type ShippingInfo struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required,postal_code"`
	Country    string `json:"country" validate:"required"`
}

// FormatAddress renders the single-line address string persisted on orders
// and customers.
func (s ShippingInfo) FormatAddress() string {
	return s.Address + ", " + s.City + ", " + s.State + " " + s.PostalCode + ", " + s.Country
}

// PaymentInfo is the payment step's form state. Card fields are only
// collected, never charged; non-card methods carry no extra input.
type PaymentInfo struct {
	Method     enums.PaymentMethod `json:"method" validate:"required"`
	CardNumber string              `json:"card_number,omitempty" validate:"required_if=Method card,omitempty,card_number"`
	CardName   string              `json:"card_name,omitempty" validate:"required_if=Method card"`
	Expiry     string              `json:"expiry,omitempty" validate:"required_if=Method card,omitempty,card_expiry"`
	CVV        string              `json:"cvv,omitempty" validate:"required_if=Method card,omitempty,card_cvv"`
}

// Session is the per-session wizard document. Form state lives only here and
// is torn down on completion or abandonment.
type Session struct {
	SessionID string              `json:"session_id"`
	State     enums.CheckoutState `json:"state"`
	Customer  *CustomerInfo       `json:"customer,omitempty"`
	Shipping  *ShippingInfo       `json:"shipping,omitempty"`
	Payment   *PaymentInfo        `json:"payment,omitempty"`
	OrderID   *uuid.UUID          `json:"order_id,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SessionStore persists wizard documents in Redis next to the cart.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore builds a session store with the given TTL.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Get loads the session's wizard document; a missing document is a fresh
// wizard at the Information step.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.client.CheckoutKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return &Session{SessionID: sessionID, State: enums.CheckoutStateInformation}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading checkout session")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding checkout session")
	}
	session.SessionID = sessionID
	return &session, nil
}

// Save writes the wizard document back, refreshing its TTL.
func (s *SessionStore) Save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout session")
	}
	if err := s.client.Set(ctx, s.client.CheckoutKey(session.SessionID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving checkout session")
	}
	return nil
}

// Delete tears the wizard document down.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.CheckoutKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting checkout session")
	}
	return nil
}
