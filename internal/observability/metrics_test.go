package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Requests.WithLabelValues("query").Inc()
	a.ProviderRequests.WithLabelValues("error").Add(2)

	assert.InEpsilon(t, 1.0, counterValue(t, a.Requests.WithLabelValues("query")), 0.0001)
	assert.InEpsilon(t, 2.0, counterValue(t, a.ProviderRequests.WithLabelValues("error")), 0.0001)
	assert.Zero(t, counterValue(t, b.Requests.WithLabelValues("query")))
}
