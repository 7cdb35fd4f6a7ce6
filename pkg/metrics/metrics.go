// Package metrics records Prometheus metrics for matching runs and writes them to a
// node-exporter textfile, since the CLI exits before any scrape could happen.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jakechorley/dance-matcher/pkg/core/matching"
)

// Option applies a configuration option to the Recorder
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithConstLabels adds labels (e.g. environment) to every metric
func WithConstLabels(labels map[string]string) Option {
	return func(r *Recorder) {
		if labels != nil {
			r.constLabels = labels
		}
	}
}

// Recorder owns a private registry holding the metrics of a single run
type Recorder struct {
	namespace   string
	constLabels prometheus.Labels
	registry    *prometheus.Registry

	proposals         prometheus.Counter
	rejections        prometheus.Counter
	displacements     prometheus.Counter
	dancersMatched    prometheus.Gauge
	dancersUnmatched  prometheus.Gauge
	dancesUnderfilled prometheus.Gauge
	openSpots         prometheus.Gauge
	runDuration       prometheus.Gauge
	lastRunUnix       prometheus.Gauge
	validationErrors  prometheus.Gauge
}

// NewRecorder creates a recorder with its metrics registered
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "dance_matcher",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: r.namespace, Name: name, Help: help, ConstLabels: r.constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: r.namespace, Name: name, Help: help, ConstLabels: r.constLabels,
		})
	}

	r.proposals = counter("proposals_total", "Proposals made by dancers during matching")
	r.rejections = counter("rejections_total", "Proposals to dances that did not rank the dancer")
	r.displacements = counter("displacements_total", "Held dancers displaced by a better ranked dancer")
	r.dancersMatched = gauge("dancers_matched", "Dancers assigned to a dance")
	r.dancersUnmatched = gauge("dancers_unmatched", "Dancers without an assignment")
	r.dancesUnderfilled = gauge("dances_underfilled", "Dances with fewer dancers than quota")
	r.openSpots = gauge("open_spots", "Unfilled places summed over all dances")
	r.runDuration = gauge("run_duration_seconds", "Wall time of the matching run")
	r.lastRunUnix = gauge("last_run_timestamp_seconds", "Unix time the run finished")
	r.validationErrors = gauge("validation_errors", "Invariant violations found after matching")

	return r
}

// Registry exposes the recorder's registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records the outcome of a matching run
func (r *Recorder) ObserveRun(result *matching.Result, openSpots int, validationErrors int, duration time.Duration) {
	r.proposals.Add(float64(result.Proposals))
	r.rejections.Add(float64(result.Rejections))
	r.displacements.Add(float64(result.Displacements))
	r.dancersMatched.Set(float64(result.MatchedCount()))
	r.dancersUnmatched.Set(float64(len(result.UnmatchedDancers)))
	r.dancesUnderfilled.Set(float64(len(result.UnderfilledDances)))
	r.openSpots.Set(float64(openSpots))
	r.validationErrors.Set(float64(validationErrors))
	r.runDuration.Set(duration.Seconds())
	r.lastRunUnix.SetToCurrentTime()
}

// WriteTextfile writes every metric in the textfile collector format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
