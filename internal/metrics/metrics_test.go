package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Registered()
	m.BindStarted()
	m.BindFinished(ResultOK, 2048)
	m.BindStarted()
	m.BindFinished(ResultError, 0)
	m.Fetched(ResultNotFound)
	m.BindRejected(ResultNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Binds.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Binds.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Binds.WithLabelValues(ResultNotFound)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BindsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues(ResultNotFound)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Registered()
		m.BindStarted()
		m.BindFinished(ResultOK, 1)
		m.BindRejected(ResultError)
		m.Fetched(ResultOK)
	})
}
