// Package metrics exposes prometheus counters for processed files.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded per processed file.
const (
	OutcomeMoved     = "moved"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeUnmatched = "unmatched"
)

// Metrics holds the sorter's collectors.
type Metrics struct {
	Files          *prometheus.CounterVec
	Classification *prometheus.CounterVec
	BytesMoved     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "media_sorter",
			Name:      "files_total",
			Help:      "Files seen in drop directories by media type and outcome.",
		}, []string{"media_type", "outcome"}),
		Classification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "media_sorter",
			Name:      "classifications_total",
			Help:      "Anime filename classifications by convention, or by error when none applied.",
		}, []string{"convention", "result"}),
		BytesMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "media_sorter",
			Name:      "bytes_moved_total",
			Help:      "Bytes relocated into libraries.",
		}, []string{"media_type"}),
	}
	reg.MustRegister(m.Files, m.Classification, m.BytesMoved)
	return m
}

// File counts one processed file.
func (m *Metrics) File(mediaType, outcome string) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(mediaType, outcome).Inc()
}

// Classified counts one classification attempt.
func (m *Metrics) Classified(convention, result string) {
	if m == nil {
		return
	}
	m.Classification.WithLabelValues(convention, result).Inc()
}

// Moved adds relocated bytes.
func (m *Metrics) Moved(mediaType string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesMoved.WithLabelValues(mediaType).Add(float64(n))
}
