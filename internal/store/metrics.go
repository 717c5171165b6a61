package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelKey        = "key"
	labelResult     = "result"
	labelCollection = "collection"
	labelSource     = "source"

	resultOK     = "ok"
	resultFailed = "failed"
)

type Metrics struct {
	PersistWrites   *prometheus.CounterVec
	PersistLatency  *prometheus.HistogramVec
	Hydrations      *prometheus.CounterVec
	RefreshFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PersistWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketstore_persist_writes_total",
				Help: "Write-through persistence attempts by key and result",
			},
			[]string{labelKey, labelResult},
		),
		PersistLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "pocketstore_persist_duration_seconds",
				Help: "Write-through persistence latency",
			},
			[]string{labelKey},
		),
		Hydrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketstore_hydrations_total",
				Help: "Initial loads by collection and the source that served them",
			},
			[]string{labelCollection, labelSource},
		),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pocketstore_catalog_fetch_failures_total",
			Help: "Remote catalog fetches that failed",
		}),
	}

	reg.MustRegister(m.PersistWrites, m.PersistLatency, m.Hydrations, m.RefreshFailures)
	return m
}

func (m *Metrics) persisted(key string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultFailed
	}
	m.PersistWrites.WithLabelValues(key, result).Inc()
	m.PersistLatency.WithLabelValues(key).Observe(d.Seconds())
}

func (m *Metrics) hydrated(collection string, source Source) {
	if m == nil {
		return
	}
	m.Hydrations.WithLabelValues(collection, string(source)).Inc()
}

func (m *Metrics) fetchFailed() {
	if m == nil {
		return
	}
	m.RefreshFailures.Inc()
}
