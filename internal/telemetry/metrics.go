// Package telemetry exposes Prometheus metrics for the gateway client.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one coordinator.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ToolCalls        *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec
	RefreshTotal     *prometheus.CounterVec
	CatalogSize      prometheus.Gauge
	ConnectionState  prometheus.Gauge
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_tool_calls_total",
				Help: "Total number of gateway tool calls",
			},
			[]string{"tool", "status"},
		),
		ToolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpgate_tool_call_duration_seconds",
				Help:    "Duration of gateway tool calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpgate_catalog_refresh_total",
				Help: "Total number of catalog refresh attempts",
			},
			[]string{"status"},
		),
		CatalogSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcpgate_catalog_tools",
				Help: "Number of tools in the published catalog",
			},
		),
		ConnectionState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcpgate_connection_state",
				Help: "Coordinator state (0=idle 1=connecting 2=ready 3=degraded 4=closed)",
			},
		),
	}
}

// ObserveCall records one tool call outcome and its duration.
func (m *Metrics) ObserveCall(tool, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordRefresh records one catalog refresh attempt.
func (m *Metrics) RecordRefresh(ok bool, tools int) {
	if m == nil {
		return
	}
	if ok {
		m.RefreshTotal.WithLabelValues("ok").Inc()
		m.CatalogSize.Set(float64(tools))
		return
	}
	m.RefreshTotal.WithLabelValues("error").Inc()
}

// SetConnectionState publishes the coordinator state as a gauge.
func (m *Metrics) SetConnectionState(state int) {
	if m == nil {
		return
	}
	m.ConnectionState.Set(float64(state))
}
