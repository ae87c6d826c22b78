package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementLogin("success")
	m.IncrementLogin("success")
	m.IncrementLogin("invalid_credentials")
	m.IncrementAlertTransition("dispatched")
	m.SetActiveAlerts(3)
	m.IncrementStaleTransition()

	assert.InDelta(t, 2, testutil.ToFloat64(m.Logins.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Logins.WithLabelValues("invalid_credentials")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertTransitions.WithLabelValues("dispatched")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.AlertsActive), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertStaleTransitions), 0)
}

func TestNew_SeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
