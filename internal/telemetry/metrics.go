package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for tool calls
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeFormat   = "format_error"
	OutcomeInvalid  = "invalid_arguments"
)

// Metrics records tool invocations
type Metrics struct {
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	catalogRows  *prometheus.GaugeVec
}

// NewMetrics registers the tool metrics and the Go runtime collectors on registerer
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registerer)

	if registerer != prometheus.DefaultRegisterer {
		registerer.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Metrics{
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casmcp_tool_calls_total",
				Help: "Total number of catalog tool calls",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "casmcp_tool_call_duration_seconds",
				Help:    "Duration of catalog tool calls in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"tool"},
		),
		catalogRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "casmcp_catalog_rows",
				Help: "Rows loaded per catalog dataset",
			},
			[]string{"dataset"},
		),
	}
}

// ObserveToolCall records one call of tool with its outcome
func (m *Metrics) ObserveToolCall(tool, outcome string, duration time.Duration) {
	if m == nil {
		return
	}

	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// SetCatalogRows publishes the loaded row count of a dataset
func (m *Metrics) SetCatalogRows(dataset string, rows int) {
	if m == nil {
		return
	}

	m.catalogRows.WithLabelValues(dataset).Set(float64(rows))
}
