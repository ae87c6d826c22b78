package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Logins                 *prometheus.CounterVec
	Logouts                prometheus.Counter
	LoginDurationMs        prometheus.Histogram
	GuardDecisions         *prometheus.CounterVec
	AlertTransitions       *prometheus.CounterVec
	AlertsActive           prometheus.Gauge
	AlertStaleTransitions  prometheus.Counter
	AlertLocationFallbacks prometheus.Counter
	NotificationsAdded     prometheus.Counter
}

// New creates and registers all metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction never collides.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		Logouts: f.NewCounter(prometheus.CounterOpts{
			Name: "medgate_logouts_total",
			Help: "Total number of logouts",
		}),
		LoginDurationMs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "medgate_login_duration_ms",
			Help:    "Credential verification latency in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		GuardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_guard_decisions_total",
			Help: "Page guard decisions by outcome",
		}, []string{"outcome"}),
		AlertTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_alert_transitions_total",
			Help: "Emergency alert status transitions by target status",
		}, []string{"status"}),
		AlertsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "medgate_alerts_active",
			Help: "Current number of non-terminal emergency alerts",
		}),
		AlertStaleTransitions: f.NewCounter(prometheus.CounterOpts{
			Name: "medgate_alert_stale_transitions_total",
			Help: "Deferred alert transitions skipped because the alert had moved on",
		}),
		AlertLocationFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "medgate_alert_location_fallbacks_total",
			Help: "Alerts triggered with the fallback location",
		}),
		NotificationsAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "medgate_notifications_added_total",
			Help: "Notifications added to any inbox",
		}),
	}
}

func (m *Metrics) IncrementLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementLogout() {
	m.Logouts.Inc()
}

func (m *Metrics) ObserveLoginDuration(durationMs float64) {
	m.LoginDurationMs.Observe(durationMs)
}

func (m *Metrics) IncrementGuardDecision(outcome string) {
	m.GuardDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementAlertTransition(status string) {
	m.AlertTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) SetActiveAlerts(count int) {
	m.AlertsActive.Set(float64(count))
}

func (m *Metrics) IncrementStaleTransition() {
	m.AlertStaleTransitions.Inc()
}

func (m *Metrics) IncrementLocationFallback() {
	m.AlertLocationFallbacks.Inc()
}

func (m *Metrics) IncrementNotificationsAdded() {
	m.NotificationsAdded.Inc()
}
