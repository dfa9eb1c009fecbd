package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
)

type stubStaleOrderRepo struct {
	pending    []models.Order
	findErr    error
	updateErr  map[uuid.UUID]error
	cancelled  []uuid.UUID
	lastCutoff time.Time
}

func (s *stubStaleOrderRepo) FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	s.lastCutoff = cutoff
	return s.pending, s.findErr
}

func (s *stubStaleOrderRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if err, ok := s.updateErr[orderID]; ok {
		return err
	}
	if status != enums.OrderStatusCancelled {
		return errors.New("unexpected status")
	}
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

func cronTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

func TestStaleOrderJobCancelsStalePending(t *testing.T) {
	first := models.Order{ID: uuid.New()}
	second := models.Order{ID: uuid.New()}
	repo := &stubStaleOrderRepo{pending: []models.Order{first, second}}

	job, err := NewStaleOrderJob(StaleOrderJobParams{Logger: cronTestLogger(), Orders: repo})
	if err != nil {
		t.Fatalf("NewStaleOrderJob: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.(*staleOrderJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.cancelled) != 2 {
		t.Fatalf("expected 2 cancellations, got %d", len(repo.cancelled))
	}
	wantCutoff := now.Add(-defaultMaxPendingAge)
	if !repo.lastCutoff.Equal(wantCutoff) {
		t.Fatalf("expected cutoff %s, got %s", wantCutoff, repo.lastCutoff)
	}
}

func TestStaleOrderJobContinuesPastFailures(t *testing.T) {
	failing := models.Order{ID: uuid.New()}
	healthy := models.Order{ID: uuid.New()}
	repo := &stubStaleOrderRepo{
		pending:   []models.Order{failing, healthy},
		updateErr: map[uuid.UUID]error{failing.ID: errors.New("deadlock")},
	}

	job, err := NewStaleOrderJob(StaleOrderJobParams{Logger: cronTestLogger(), Orders: repo})
	if err != nil {
		t.Fatalf("NewStaleOrderJob: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatalf("expected aggregated error")
	}
	if len(repo.cancelled) != 1 || repo.cancelled[0] != healthy.ID {
		t.Fatalf("expected the healthy order to still be cancelled, got %v", repo.cancelled)
	}
}

func TestStaleOrderJobPropagatesQueryError(t *testing.T) {
	repo := &stubStaleOrderRepo{findErr: errors.New("connection reset")}
	job, err := NewStaleOrderJob(StaleOrderJobParams{Logger: cronTestLogger(), Orders: repo})
	if err != nil {
		t.Fatalf("NewStaleOrderJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected query error to propagate")
	}
}
