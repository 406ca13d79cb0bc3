// Package metrics counts ingestion outcomes with Prometheus collectors and
// optionally pushes them to a Pushgateway at the end of a run.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "guideline_agent"
	// DefaultJob is the Pushgateway job name.
	DefaultJob = "guideline_agent"
)

// Recorder holds the run's collectors on a private registry.
type Recorder struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	pages    *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Listing entries by ingestion outcome.",
		}, []string{"outcome"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_pages_total",
			Help:      "Listing pages visited by origin.",
		}, []string{"origin"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stored_characters_total",
			Help:      "Characters of body text stored.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.outcomes, r.pages, r.bytes, r.duration, r.lastRun)
	return r
}

// Registry exposes the registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Outcome counts one entry with the given outcome label.
func (r *Recorder) Outcome(outcome string) {
	r.outcomes.WithLabelValues(outcome).Inc()
}

// Page counts one visited listing page.
func (r *Recorder) Page(origin string) {
	r.pages.WithLabelValues(origin).Inc()
}

// Stored adds the characters of a stored body.
func (r *Recorder) Stored(characters int) {
	if characters > 0 {
		r.bytes.Add(float64(characters))
	}
}

// Finished records the run's duration and end time.
func (r *Recorder) Finished(seconds float64, unix int64) {
	r.duration.Set(seconds)
	r.lastRun.Set(float64(unix))
}

// OutcomeCounter returns the counter for one outcome, for tests and reports.
func (r *Recorder) OutcomeCounter(outcome string) prometheus.Counter {
	return r.outcomes.WithLabelValues(outcome)
}

// PageCounter returns the counter for one origin.
func (r *Recorder) PageCounter(origin string) prometheus.Counter {
	return r.pages.WithLabelValues(origin)
}

// Push sends every collector to the Pushgateway at url under job, grouped by
// instance when it is not empty.
func (r *Recorder) Push(ctx context.Context, url, job, instance string) error {
	if url == "" {
		return fmt.Errorf("pushgateway URL cannot be empty")
	}
	if job == "" {
		job = DefaultJob
	}
	pusher := push.New(url, job).Gatherer(r.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
