// Package metrics описывает prometheus-метрики реестра видео.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "videoregistry"

// Результаты операций для label result.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics набор коллекторов сервиса. Нулевой указатель допустим, все методы тогда no-op.
type Metrics struct {
	Registrations prometheus.Counter
	Binds         *prometheus.CounterVec
	Fetches       *prometheus.CounterVec
	BindsInFlight prometheus.Gauge
	BindBytes     prometheus.Histogram
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Count of registered video metadata records.",
		}),
		Binds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "binds_total",
			Help:      "Count of payload bind attempts by result.",
		}, []string{"result"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Count of payload fetch attempts by result.",
		}, []string{"result"}),
		BindsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "binds_in_flight",
			Help:      "Number of payload binds currently streaming to storage.",
		}),
		BindBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bind_bytes",
			Help:      "Size of successfully bound payloads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Registrations, m.Binds, m.Fetches, m.BindsInFlight, m.BindBytes)
	}
	return m
}

func (m *Metrics) Registered() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

func (m *Metrics) BindStarted() {
	if m == nil {
		return
	}
	m.BindsInFlight.Inc()
}

// BindFinished фиксирует итог bind; size учитывается только для успешных.
func (m *Metrics) BindFinished(result string, size int64) {
	if m == nil {
		return
	}
	m.BindsInFlight.Dec()
	m.Binds.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.BindBytes.Observe(float64(size))
	}
}

// BindRejected учитывает bind, отклонённый до начала передачи данных.
func (m *Metrics) BindRejected(result string) {
	if m == nil {
		return
	}
	m.Binds.WithLabelValues(result).Inc()
}

func (m *Metrics) Fetched(result string) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(result).Inc()
}
