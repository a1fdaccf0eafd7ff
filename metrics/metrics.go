// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	requestDuration   *prometheus.HistogramVec
	documentsIngested *prometheus.CounterVec
	chunksIngested    prometheus.Counter
	retrievals        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragchat_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by method, route and status",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~41s
			},
			[]string{"method", "route", "status"},
		),
		documentsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragchat_documents_ingested_total",
				Help: "Ingestion attempts by file format and result",
			},
			[]string{"format", "result"},
		),
		chunksIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ragchat_chunks_ingested_total",
				Help: "Chunks written to the vector store",
			},
		),
		retrievals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragchat_retrievals_total",
				Help: "Similarity searches by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.requestDuration, m.documentsIngested, m.chunksIngested, m.retrievals)
	return m
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

// IngestDone records one ingestion attempt; chunks counts only on success.
func (m *Metrics) IngestDone(format string, chunks int, err error) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.documentsIngested.WithLabelValues(format, result(err)).Inc()
	if err == nil {
		m.chunksIngested.Add(float64(chunks))
	}
}

func (m *Metrics) RetrievalDone(err error) {
	if m == nil {
		return
	}
	m.retrievals.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
