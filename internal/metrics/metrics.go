package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "license"

// LicenseMetrics records lifecycle activity. A nil *LicenseMetrics is valid and records nothing.
type LicenseMetrics struct {
	submitted   prometheus.Counter
	resolved    *prometheus.CounterVec
	operations  *prometheus.CounterVec
	loginChecks *prometheus.CounterVec
	stats       *prometheus.GaugeVec
	statsAt     prometheus.Gauge
}

// NewLicenseMetrics registers the lifecycle collectors on reg.
func NewLicenseMetrics(reg prometheus.Registerer) *LicenseMetrics {
	if reg == nil {
		return nil
	}
	m := &LicenseMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_submitted_total",
			Help:      "License requests submitted by users.",
		}),
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_resolved_total",
			Help:      "License requests resolved by an administrator.",
		}, []string{"outcome"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Administrative license operations.",
		}, []string{"operation"}),
		loginChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_checks_total",
			Help:      "Login entitlement checks by outcome.",
		}, []string{"outcome"}),
		stats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stats",
			Help:      "Latest license statistics snapshot.",
		}, []string{"kind"}),
		statsAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stats_snapshot_timestamp_seconds",
			Help:      "Unix time of the latest statistics snapshot.",
		}),
	}
	reg.MustRegister(m.submitted, m.resolved, m.operations, m.loginChecks, m.stats, m.statsAt)
	return m
}

func (m *LicenseMetrics) IncSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

func (m *LicenseMetrics) IncResolved(outcome string) {
	if m == nil {
		return
	}
	m.resolved.WithLabelValues(outcome).Inc()
}

func (m *LicenseMetrics) IncOperation(operation string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation).Inc()
}

func (m *LicenseMetrics) IncLoginCheck(outcome string) {
	if m == nil {
		return
	}
	m.loginChecks.WithLabelValues(outcome).Inc()
}

// SetStats publishes a statistics snapshot keyed by counter name.
func (m *LicenseMetrics) SetStats(values map[string]int, at time.Time) {
	if m == nil {
		return
	}
	for kind, v := range values {
		m.stats.WithLabelValues(kind).Set(float64(v))
	}
	m.statsAt.Set(float64(at.Unix()))
}
