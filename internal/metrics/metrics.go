// Package metrics records per-invocation counters and pushes them to a
// Prometheus Pushgateway.
//
// magnet is a short-lived batch job, so nothing is scraped. A Recorder keeps
// its own registry and is pushed once when the command finishes.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "magnet"
	jobName   = "magnet"
)

// Recorder owns the metric collectors of one invocation.
type Recorder struct {
	registry *prometheus.Registry

	instancesCreated *prometheus.CounterVec
	resourcesDeleted *prometheus.CounterVec
	probeResults     *prometheus.CounterVec
	probeDuration    prometheus.Histogram
}

// NewRecorder creates a Recorder with a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		instancesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "instances_created_total",
				Help:      "Total number of instances created by provider",
			},
			[]string{"provider"},
		),
		resourcesDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_deleted_total",
				Help:      "Total number of resources deleted by teardown step",
			},
			[]string{"system"},
		),
		probeResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probe_results_total",
				Help:      "Total number of health probes by result",
			},
			[]string{"result"},
		),
		probeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Duration of a single instance health probe in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4min
			},
		),
	}

	r.registry.MustRegister(
		r.instancesCreated,
		r.resourcesDeleted,
		r.probeResults,
		r.probeDuration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// InstancesCreated adds n created instances for provider.
func (r *Recorder) InstancesCreated(provider string, n int) {
	r.instancesCreated.WithLabelValues(provider).Add(float64(n))
}

// ResourcesDeleted adds n deletions for a teardown step.
func (r *Recorder) ResourcesDeleted(system string, n int) {
	r.resourcesDeleted.WithLabelValues(system).Add(float64(n))
}

// ProbeFinished records one probe outcome.
func (r *Recorder) ProbeFinished(healthy bool, duration time.Duration) {
	result := "unhealthy"
	if healthy {
		result = "healthy"
	}
	r.probeResults.WithLabelValues(result).Inc()
	r.probeDuration.Observe(duration.Seconds())
}

// Push sends all collected metrics to the Pushgateway at url, replacing the
// previous push of the same job and prefix grouping.
func (r *Recorder) Push(ctx context.Context, url, prefix string) error {
	err := push.New(url, jobName).
		Gatherer(r.registry).
		Grouping("prefix", prefix).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
