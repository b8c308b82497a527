package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/qrdoc-tracker/constants"
)

// Metrics holds the batch counters on a private registry so each process
// (and each test) writes only its own series to the textfile.
type Metrics struct {
	registry *prometheus.Registry

	// Files handled per terminal outcome
	Files *prometheus.CounterVec

	// Alert delivery attempts by result ("sent", "failed")
	Alerts *prometheus.CounterVec

	RunDuration prometheus.Histogram

	LastSuccess prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qrdoc_files_total",
			Help: "Files handled by the batch, by terminal outcome",
		}, []string{"outcome"}),

		Alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qrdoc_alerts_total",
			Help: "Alert delivery attempts by result",
		}, []string{"result"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "qrdoc_run_duration_seconds",
			Help:    "Wall time of a full batch run",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),

		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qrdoc_last_run_success_timestamp_seconds",
			Help: "Unix time of the last run that completed without a batch-fatal error",
		}),
	}
	// export zero-valued series for every outcome
	for _, o := range constants.AllOutcomes {
		m.Files.WithLabelValues(string(o))
	}
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFile records the terminal outcome of one file.
func (m *Metrics) ObserveFile(outcome constants.Outcome) {
	if m != nil {
		m.Files.WithLabelValues(string(outcome)).Inc()
	}
}

// ObserveAlert records one delivery attempt; err is the send result.
func (m *Metrics) ObserveAlert(err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Alerts.WithLabelValues(result).Inc()
}

// ObserveRun records the duration of a run and, when it succeeded, its end time.
func (m *Metrics) ObserveRun(d time.Duration, succeeded bool, end time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
	if succeeded {
		m.LastSuccess.Set(float64(end.Unix()))
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
