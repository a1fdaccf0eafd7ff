package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIngestDone(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IngestDone("pdf", 12, nil)
	m.IngestDone("pdf", 3, nil)
	m.IngestDone("", 0, errors.New("unsupported"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documentsIngested.WithLabelValues("pdf", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documentsIngested.WithLabelValues("unknown", "error")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.chunksIngested))
}

func TestRetrievalDone(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RetrievalDone(nil)
	m.RetrievalDone(errors.New("down"))
	m.RetrievalDone(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retrievals.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retrievals.WithLabelValues("error")))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("POST", "/chat", "200", 0.2)

	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", "200", 1)
		m.IngestDone("txt", 1, nil)
		m.RetrievalDone(nil)
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
