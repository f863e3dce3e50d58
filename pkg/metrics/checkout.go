package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the purchase pipeline.
type CheckoutMetrics struct {
	purchases       *prometheus.CounterVec
	paymentSessions prometheus.Counter
	finalizeReplays prometheus.Counter
	purchaseSeconds prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_purchases_total",
		Help: "Purchase submissions by payment method and outcome.",
	}, []string{"method", "outcome"})
	paymentSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_payment_sessions_total",
		Help: "External payment sessions created.",
	})
	finalizeReplays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_finalize_replays_total",
		Help: "Finalize calls suppressed by the one-shot latch.",
	})
	purchaseSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_purchase_duration_seconds",
		Help:    "Duration of purchase submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(purchases, paymentSessions, finalizeReplays, purchaseSeconds)
	return &CheckoutMetrics{
		purchases:       purchases,
		paymentSessions: paymentSessions,
		finalizeReplays: finalizeReplays,
		purchaseSeconds: purchaseSeconds,
	}
}

// IncPurchase counts a purchase submission outcome for a payment method.
func (m *CheckoutMetrics) IncPurchase(method, outcome string) {
	if m == nil || m.purchases == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.purchases.WithLabelValues(method, outcome).Inc()
}

// IncPaymentSession counts a created external payment session.
func (m *CheckoutMetrics) IncPaymentSession() {
	if m == nil || m.paymentSessions == nil {
		return
	}
	m.paymentSessions.Inc()
}

// IncFinalizeReplay counts a latched (suppressed) duplicate finalize.
func (m *CheckoutMetrics) IncFinalizeReplay() {
	if m == nil || m.finalizeReplays == nil {
		return
	}
	m.finalizeReplays.Inc()
}

// ObservePurchaseDuration records how long a purchase submission took.
func (m *CheckoutMetrics) ObservePurchaseDuration(d time.Duration) {
	if m == nil || m.purchaseSeconds == nil {
		return
	}
	m.purchaseSeconds.Observe(d.Seconds())
}
