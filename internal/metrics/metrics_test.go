package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLicenseMetricsIsSafe(t *testing.T) {
	var m *LicenseMetrics
	assert.Nil(t, NewLicenseMetrics(nil))
	assert.NotPanics(t, func() {
		m.IncSubmitted()
		m.IncResolved("approved")
		m.IncOperation("extend")
		m.IncLoginCheck("ok")
		m.SetStats(map[string]int{"total_requests": 1}, time.Now())
	})

	var j *JobMetrics
	assert.NotPanics(t, func() {
		j.Observe("job", time.Second, nil)
		NewJobMetrics(nil).Observe("job", time.Second, errors.New("boom"))
	})
}

func TestLicenseMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLicenseMetrics(reg)

	m.IncSubmitted()
	m.IncSubmitted()
	m.IncResolved("approved")
	m.IncLoginCheck("expired")
	m.SetStats(map[string]int{"pending_requests": 4, "expired_users": 2}, time.Unix(1735689600, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolved.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginChecks.WithLabelValues("expired")))

	expected := `
# HELP license_stats Latest license statistics snapshot.
# TYPE license_stats gauge
license_stats{kind="expired_users"} 2
license_stats{kind="pending_requests"} 4
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "license_stats"))
	assert.Equal(t, 1735689600.0, testutil.ToFloat64(m.statsAt))
}

func TestJobMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	j := NewJobMetrics(reg)

	j.Observe("license:stats:snapshot", 10*time.Millisecond, nil)
	j.Observe("license:stats:snapshot", 10*time.Millisecond, errors.New("boom"))
	j.Observe("", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(j.success.WithLabelValues("license:stats:snapshot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(j.failure.WithLabelValues("license:stats:snapshot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(j.success.WithLabelValues("unknown")))
	assert.Equal(t, 2, testutil.CollectAndCount(j.duration))
}
