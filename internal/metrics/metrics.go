// Package metrics records resolution statistics with Prometheus.
//
// A Recorder owns a private registry rather than the global one, so several
// recorders can coexist in one process and tests stay isolated.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/model"
)

// Recorder implements resolver.Observer.
type Recorder struct {
	registry *prometheus.Registry

	resolutions     *prometheus.CounterVec
	errors          *prometheus.CounterVec
	duration        prometheus.Histogram
	subtreeDuration prometheus.Histogram
	subtreeNodes    prometheus.Counter
	machines        prometheus.Gauge
	recipes         prometheus.Gauge
}

// NewRecorder creates a recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prodchain_resolutions_total",
				Help: "Number of resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prodchain_resolution_errors_total",
				Help: "Number of resolution errors by kind.",
			},
			[]string{"kind"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prodchain_resolution_duration_seconds",
			Help:    "Wall time of a whole resolution.",
			Buckets: prometheus.DefBuckets,
		}),
		subtreeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prodchain_subtree_duration_seconds",
			Help:    "Wall time spent resolving one root subtree.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		subtreeNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prodchain_nodes_resolved_total",
			Help: "Number of producer and machine nodes resolved.",
		}),
		machines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prodchain_model_machines",
			Help: "Machines in the last resolved model.",
		}),
		recipes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prodchain_model_recipes",
			Help: "Machine and recipe pairs in the last resolved model.",
		}),
	}
	r.registry.MustRegister(
		r.resolutions, r.errors, r.duration, r.subtreeDuration,
		r.subtreeNodes, r.machines, r.recipes,
	)
	return r
}

// Registry exposes the underlying registry as a gatherer.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// SubtreeResolved records one finished worker.
func (r *Recorder) SubtreeResolved(_ string, nodes int, elapsed time.Duration) {
	r.subtreeDuration.Observe(elapsed.Seconds())
	r.subtreeNodes.Add(float64(nodes))
}

// ResolutionFinished records the outcome of a resolution.
func (r *Recorder) ResolutionFinished(m *model.Model, err error, elapsed time.Duration) {
	r.duration.Observe(elapsed.Seconds())
	if err != nil {
		r.resolutions.WithLabelValues("failure").Inc()
		for _, e := range diag.Flatten(err) {
			r.errors.WithLabelValues(string(e.Kind())).Inc()
		}
		return
	}
	r.resolutions.WithLabelValues("success").Inc()
	r.machines.Set(float64(m.Len()))
	r.recipes.Set(float64(m.RecipeCount()))
}

// WriteFile writes the current values in the text exposition format. The
// file is replaced atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
