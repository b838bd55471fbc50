// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the canvas core.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/errors"
)

// Collector holds all Prometheus metrics for one canvas instance.
type Collector struct {
	registry *prometheus.Registry

	// Dispatch metrics
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	// History metrics
	HistoryOps *prometheus.CounterVec

	// Board metrics
	Nodes         prometheus.Gauge
	Edges         prometheus.Gauge
	VisibleNodes  prometheus.Gauge
	EdgesRerouted prometheus.Counter
	ViewportScale prometheus.Gauge
}

// NewCollector creates a collector with its own registry, so several
// canvases (and tests) never collide on registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of dispatched commands",
			},
			[]string{"command", "status"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command handling duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"command"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Total number of events delivered to collaborators",
			},
			[]string{"event"},
		),
		EventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dropped_total",
				Help:      "Total number of events that could not be delivered",
			},
			[]string{"event", "reason"},
		),
		HistoryOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_operations_total",
				Help:      "Total number of undo and redo attempts",
			},
			[]string{"op", "status"},
		),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Number of nodes on the board",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "edges",
			Help:      "Number of edges on the board",
		}),
		VisibleNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_nodes",
			Help:      "Number of nodes in the last rendered frame",
		}),
		EdgesRerouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_rerouted_total",
			Help:      "Total number of edge route recomputations",
		}),
		ViewportScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "viewport_scale",
			Help:      "Current viewport scale",
		}),
	}

	registry.MustRegister(
		c.Commands,
		c.CommandDuration,
		c.EventsPublished,
		c.EventsDropped,
		c.HistoryOps,
		c.Nodes,
		c.Edges,
		c.VisibleNodes,
		c.EdgesRerouted,
		c.ViewportScale,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordCommand records one dispatched command.
func (c *Collector) RecordCommand(name string, duration time.Duration, err error) {
	c.Commands.WithLabelValues(name, commandStatus(err)).Inc()
	c.CommandDuration.WithLabelValues(name).Observe(duration.Seconds())
}

func commandStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case shared.IsSilentRejection(err):
		return "ignored"
	case errors.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}

// EventPublished records a delivered event.
func (c *Collector) EventPublished(name string) {
	c.EventsPublished.WithLabelValues(name).Inc()
}

// EventDropped records an undelivered event.
func (c *Collector) EventDropped(name, reason string) {
	c.EventsDropped.WithLabelValues(name, reason).Inc()
}

// HistoryOp records an undo or redo attempt.
func (c *Collector) HistoryOp(op string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	c.HistoryOps.WithLabelValues(op, status).Inc()
}

// ObserveBoard records board sizes.
func (c *Collector) ObserveBoard(nodes, edges int) {
	c.Nodes.Set(float64(nodes))
	c.Edges.Set(float64(edges))
}

// ObserveFrame records a rendered frame.
func (c *Collector) ObserveFrame(visible int, scale float64) {
	c.VisibleNodes.Set(float64(visible))
	c.ViewportScale.Set(scale)
}

// Rerouted records recomputed edge routes.
func (c *Collector) Rerouted(n int) {
	c.EdgesRerouted.Add(float64(n))
}
