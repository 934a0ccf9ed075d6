package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts orchestrator outcomes and payment bridge movement.
type CheckoutMetrics struct {
	Attempts          *prometheus.CounterVec
	BridgeTransitions *prometheus.CounterVec
	TotalMismatches   prometheus.Counter
}

func New(reg prometheus.Registerer) *CheckoutMetrics {
	factory := promauto.With(reg)

	return &CheckoutMetrics{
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts by terminal outcome.",
		}, []string{"outcome"}),
		BridgeTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "checkout",
			Name:      "bridge_transitions_total",
			Help:      "Payment bridge state transitions.",
		}, []string{"state"}),
		TotalMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "checkout",
			Name:      "total_mismatches_total",
			Help:      "Orders whose server total diverged from the displayed subtotal.",
		}),
	}
}

func (m *CheckoutMetrics) Outcome(outcome string) {
	m.Attempts.WithLabelValues(outcome).Inc()
}

func (m *CheckoutMetrics) Bridge(state string) {
	m.BridgeTransitions.WithLabelValues(state).Inc()
}

// HandlerFor exposes the given registry on /metrics.
func HandlerFor(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
