// Package metrics exposes domain counters for the dual-store protocol.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	uploads       *prometheus.CounterVec
	compensations *prometheus.CounterVec
	strayBlobs    prometheus.Counter
	reclaimed     prometheus.Counter
}

// New registers the domain collectors on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doclib_uploads_total",
				Help: "Uploaded files by outcome (created, conflict, failed).",
			},
			[]string{"status"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doclib_compensations_total",
				Help: "Compensating deletes after a half-finished upload, by result.",
			},
			[]string{"result"},
		),
		strayBlobs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "doclib_stray_blobs_total",
				Help: "Blobs left behind because deleting them failed after their row was gone.",
			},
		),
		reclaimed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "doclib_stray_blobs_reclaimed_total",
				Help: "Stray blobs overwritten by an upload of the same file name.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.compensations, m.strayBlobs, m.reclaimed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Upload(status string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(status).Inc()
}

// Compensation records a compensating delete; ok is false when the delete itself failed.
func (m *Metrics) Compensation(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) StrayBlob() {
	if m == nil {
		return
	}
	m.strayBlobs.Inc()
}

func (m *Metrics) StrayReclaimed() {
	if m == nil {
		return
	}
	m.reclaimed.Inc()
}
