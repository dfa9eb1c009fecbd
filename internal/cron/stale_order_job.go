package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/merchstorehq/merchstore-backend/pkg/db/models"
	"github.com/merchstorehq/merchstore-backend/pkg/enums"
	"github.com/merchstorehq/merchstore-backend/pkg/logger"
)

// defaultMaxPendingAge is how long an order may sit in pending before the
// sweeper treats the paid marker as lost and cancels it.
const defaultMaxPendingAge = 24 * time.Hour

type staleOrderRepo interface {
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

// StaleOrderJobParams configure the pending-order sweeper.
type StaleOrderJobParams struct {
	Logger        *logger.Logger
	Orders        staleOrderRepo
	MaxPendingAge time.Duration
}

// NewStaleOrderJob builds the job that cancels orders whose commit sequence
// created the row but never reached the paid marker.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	maxAge := params.MaxPendingAge
	if maxAge <= 0 {
		maxAge = defaultMaxPendingAge
	}
	return &staleOrderJob{
		logg:   params.Logger,
		orders: params.Orders,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	orders staleOrderRepo
	maxAge time.Duration
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-order-sweeper" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	stale, err := j.orders.FindPendingOrdersBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	cancelled := 0
	for _, order := range stale {
		if err := j.orders.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			errs = append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"found":     len(stale),
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "stale pending order sweep complete")
	return multierr.Combine(errs...)
}
