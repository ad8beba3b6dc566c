// Package metrics exposes phase execution metrics through Prometheus. The
// collector plugs into the orchestrator as a tracer, so it observes every
// outcome without touching control flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vk/stagehand/internal/ident"
	"github.com/vk/stagehand/internal/orchestrator"
	"github.com/vk/stagehand/internal/phase"
)

// Collector records phase outcomes as Prometheus metrics.
type Collector struct {
	phaseTotal    *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	layerCount    prometheus.Gauge
	rollbacks     prometheus.Counter
}

// NewCollector creates a collector registered against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		phaseTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stagehand_phase_total",
				Help: "Total phase executions by phase and status",
			},
			[]string{"phase", "status"},
		),
		phaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stagehand_phase_duration_seconds",
				Help:    "Phase hook execution time",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		layerCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stagehand_layers",
			Help: "Number of dependency layers in the current layering",
		}),
		rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_rollback_stops_total",
			Help: "Stop operations executed as rollback cleanup",
		}),
	}
}

// Tracer adapts the collector to the orchestrator's tracer callbacks.
func (c *Collector) Tracer() orchestrator.Tracer {
	return orchestrator.Tracer{
		OnLayers: func(layers [][]*ident.ID) {
			c.layerCount.Set(float64(len(layers)))
		},
		OnOutcome: func(o phase.Outcome) {
			status := "ok"
			switch {
			case o.TimedOut:
				status = "timeout"
			case !o.OK:
				status = "error"
			}
			c.phaseTotal.WithLabelValues(string(o.Phase), status).Inc()
			c.phaseDuration.WithLabelValues(string(o.Phase)).Observe(o.Duration.Seconds())
			if o.Context == phase.ContextRollback {
				c.rollbacks.Inc()
			}
		},
	}
}
