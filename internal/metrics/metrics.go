package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels.
const (
	// StatusOK marks a target that was archived.
	StatusOK = "ok"
	// StatusFailed marks a target that failed.
	StatusFailed = "failed"
)

// Recorder captures per-target packaging metrics.
type Recorder interface {
	ObservePackage(target, status string, durationSeconds float64)
	SetArchiveBytes(target string, size int64)
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

// ObservePackage does nothing.
func (Noop) ObservePackage(string, string, float64) {}

// SetArchiveBytes does nothing.
func (Noop) SetArchiveBytes(string, int64) {}

// Prom implements Recorder backed by Prometheus collectors.
type Prom struct {
	// registry owns the collectors below.
	registry *prometheus.Registry
	// packages counts packaged targets by status.
	packages *prometheus.CounterVec
	// duration observes the time spent per target.
	duration *prometheus.HistogramVec
	// archiveBytes is the size of the last archive per target.
	archiveBytes *prometheus.GaugeVec
}

// NewProm creates collectors under namespace and registers them in a private registry.
func NewProm(namespace string) *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		packages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packages_total",
			Help:      "Packaged targets by status",
		}, []string{"target", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "package_duration_seconds",
			Help:      "Time spent assembling and archiving a target",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"target"}),
		archiveBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_bytes",
			Help:      "Size of the produced archive",
		}, []string{"target"}),
	}

	p.registry.MustRegister(p.packages, p.duration, p.archiveBytes)

	return p
}

// ObservePackage counts a finished target and records its duration.
func (p *Prom) ObservePackage(target, status string, durationSeconds float64) {
	p.packages.WithLabelValues(target, status).Inc()
	p.duration.WithLabelValues(target).Observe(durationSeconds)
}

// SetArchiveBytes records the archive size of a target.
func (p *Prom) SetArchiveBytes(target string, size int64) {
	p.archiveBytes.WithLabelValues(target).Set(float64(size))
}

// Registry exposes the private registry for gathering.
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (p *Prom) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}
