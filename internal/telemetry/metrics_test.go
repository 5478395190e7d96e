package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewMetrics(registry)
	m.ObserveToolCall("get_columns", OutcomeOK, 2*time.Millisecond)
	m.ObserveToolCall("get_columns", OutcomeFormat, time.Millisecond)
	m.ObserveToolCall("get_database_description", OutcomeNotFound, time.Millisecond)
	m.SetCatalogRows("functions", 2)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}

	assert.Contains(t, names, "casmcp_tool_calls_total")
	assert.Contains(t, names, "casmcp_tool_call_duration_seconds")
	assert.Contains(t, names, "casmcp_catalog_rows")
	assert.Contains(t, names, "go_goroutines")

	assert.InDelta(t, 1, testutil.ToFloat64(m.toolCalls.WithLabelValues("get_columns", OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.toolCalls.WithLabelValues("get_columns", OutcomeFormat)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.catalogRows.WithLabelValues("functions")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveToolCall("get_functions", OutcomeOK, time.Millisecond)
		m.SetCatalogRows("databases", 1)
	})
}
