package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"namecheck/internal/ownercheck/models"
)

// Metrics provides observability for name verification. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	// Final verdicts by label: match, mismatch, inconclusive, timeout, failure
	Verdicts *prometheus.CounterVec

	// End-to-end latency of one verification
	VerifyLatency prometheus.Histogram

	// Per-adapter answers by outcome
	AdapterResults *prometheus.CounterVec
	AdapterLatency *prometheus.HistogramVec

	// Second rounds by what triggered them
	Fallbacks *prometheus.CounterVec

	// 1 while an adapter's circuit is open
	BreakerOpen *prometheus.GaugeVec

	// Bank logins by method (login, refresh) and outcome
	Authentications *prometheus.CounterVec
}

// New registers the verification metrics with reg. A nil reg means the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "namecheck_verdicts_total",
			Help: "Total verification verdicts by label",
		}, []string{"verdict"}),

		VerifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "namecheck_verify_duration_seconds",
			Help:    "Duration of a full verification including fallback",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 6, 8, 12},
		}),

		AdapterResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "namecheck_adapter_results_total",
			Help: "Bank adapter answers by bank and outcome",
		}, []string{"bank", "outcome"}),

		AdapterLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "namecheck_adapter_duration_seconds",
			Help:    "Duration of a single bank adapter check",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 6},
		}, []string{"bank"}),

		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "namecheck_fallback_rounds_total",
			Help: "Fallback rounds by trigger",
		}, []string{"trigger"}), // trigger: "unavailable", "timeout"

		BreakerOpen: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "namecheck_adapter_circuit_open",
			Help: "Whether a bank adapter circuit is open (1) or closed (0)",
		}, []string{"bank"}),

		Authentications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "namecheck_bank_authentications_total",
			Help: "Bank authentication attempts by method and outcome",
		}, []string{"bank", "method", "outcome"}),
	}
}

// ObserveVerdict records a final verdict and its latency.
func (m *Metrics) ObserveVerdict(v models.Verdict, d time.Duration) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(v.Label()).Inc()
	m.VerifyLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveAdapterResult(bank string, outcome models.Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.AdapterResults.WithLabelValues(bank, string(outcome)).Inc()
	m.AdapterLatency.WithLabelValues(bank).Observe(d.Seconds())
}

func (m *Metrics) ObserveFallback(trigger string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(trigger).Inc()
	}
}

func (m *Metrics) ObserveBreakerChange(bank string, open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.WithLabelValues(bank).Set(1)
		return
	}
	m.BreakerOpen.WithLabelValues(bank).Set(0)
}

// ObserveAuthentication counts bank logins and token refreshes.
func (m *Metrics) ObserveAuthentication(bank, method, outcome string) {
	if m != nil {
		m.Authentications.WithLabelValues(bank, method, outcome).Inc()
	}
}
