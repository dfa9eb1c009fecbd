package cart

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/redis"
)

// Store persists per-session carts as JSON documents in Redis. A missing
// document reads back as an empty cart.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore builds a cart store with the given session TTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get loads the session's cart.
func (s *Store) Get(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return &Cart{SessionID: sessionID, Lines: []Line{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding cart document")
	}
	cart.SessionID = sessionID
	if cart.Lines == nil {
		cart.Lines = []Line{}
	}
	return &cart, nil
}

// Save writes the cart back, refreshing the session TTL.
func (s *Store) Save(ctx context.Context, cart *Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding cart document")
	}
	if err := s.client.Set(ctx, s.client.CartKey(cart.SessionID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart")
	}
	return nil
}

// Clear drops the session's cart document.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}
