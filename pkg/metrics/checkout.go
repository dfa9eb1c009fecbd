package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/merchstorehq/merchstore-backend/pkg/enums"
)

// CheckoutMetrics records commit-phase outcomes.
type CheckoutMetrics struct {
	duration  *prometheus.HistogramVec
	completed prometheus.Counter
	failed    *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_commit_duration_seconds",
		Help:    "Duration of checkout commit attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_completed",
		Help: "Orders that reached the paid marker.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commit_failures",
		Help: "Commit attempts aborted, labelled by failing stage.",
	}, []string{"stage"})
	reg.MustRegister(duration, completed, failed)
	return &CheckoutMetrics{
		duration:  duration,
		completed: completed,
		failed:    failed,
	}
}

// ObserveCommit records the duration of one commit attempt.
func (c *CheckoutMetrics) ObserveCommit(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncCompleted increments the completed-order counter.
func (c *CheckoutMetrics) IncCompleted() {
	if c == nil || c.completed == nil {
		return
	}
	c.completed.Inc()
}

// IncFailed increments the failure counter for the given stage.
func (c *CheckoutMetrics) IncFailed(stage enums.CommitStage) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(stage.String())).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
