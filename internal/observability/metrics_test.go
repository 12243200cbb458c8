package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Unregistered(t *testing.T) {
	m := NewMetricsForTesting()

	m.UpstreamRequests.WithLabelValues("spc", "success").Inc()
	m.UpstreamRequests.WithLabelValues("spc", "success").Inc()
	assert.InDelta(t, 2, counterValue(t, m.UpstreamRequests.WithLabelValues("spc", "success")), 0)

	// Registering into a fresh registry proves the collectors are not already
	// owned by the default one.
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.UpstreamRequests))
}

func TestCollectors_CoverEveryField(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewPedanticRegistry()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}
	assert.Len(t, m.collectors(), 14)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
