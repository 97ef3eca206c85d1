package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAndIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.HeartbeatsIngested.Add(3)
	m.AlertsEmitted.WithLabelValues("CRITICAL").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]*dto.MetricFamily{}
	for _, f := range families {
		found[f.GetName()] = f
	}

	require.Contains(t, found, "monitoring_heartbeats_ingested_total")
	assert.Equal(t, float64(3), found["monitoring_heartbeats_ingested_total"].Metric[0].GetCounter().GetValue())

	require.Contains(t, found, "monitoring_alerts_emitted_total")
}
