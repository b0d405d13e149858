package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"namecheck/internal/ownercheck/models"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveVerdict(models.Verdict{Matched: true}, 300*time.Millisecond)
	m.ObserveVerdict(models.Verdict{Message: "timeout"}, 12*time.Second)
	m.ObserveAdapterResult("ACB", models.OutcomeUnavailable, time.Second)
	m.ObserveFallback("timeout")
	m.ObserveBreakerChange("ACB", true)
	m.ObserveAuthentication("ACB", "login", "success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterResults.WithLabelValues("ACB", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerOpen.WithLabelValues("ACB")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Authentications.WithLabelValues("ACB", "login", "success")))

	m.ObserveBreakerChange("ACB", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerOpen.WithLabelValues("ACB")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveVerdict(models.Verdict{}, time.Second)
		m.ObserveAdapterResult("ACB", models.OutcomeMatch, time.Second)
		m.ObserveFallback("unavailable")
		m.ObserveBreakerChange("ACB", true)
		m.ObserveAuthentication("ACB", "refresh", "failure")
	})
}
