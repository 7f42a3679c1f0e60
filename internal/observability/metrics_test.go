package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequest("/admin", "GET", 303, 5*time.Millisecond)
	m.RecordRequest("/admin", "GET", 303, 5*time.Millisecond)
	m.RecordResolution("admin", "resolved")
	m.RecordDecision("redirect_home")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/admin", "GET", "303")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("admin", "resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("redirect_home")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "INTERNAL_ERROR")
		m.RecordResolution("admin", "resolved")
		m.RecordDecision("render")
	})
	assert.Nil(t, NewMetrics(nil))
}
