package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the ingestion and storage collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	received   prometheus.Counter
	inserted   prometheus.Counter
	failed     *prometheus.CounterVec
	dbDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertapi_alerts_received_total",
			Help: "Alerts received through the webhook.",
		}),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertapi_alerts_inserted_total",
			Help: "Alerts persisted to the store.",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertapi_alerts_failed_total",
			Help: "Alerts dropped from a batch, by failure kind.",
		}, []string{"kind"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alertapi_db_operation_duration_seconds",
			Help:    "Duration of database operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.received, m.inserted, m.failed, m.dbDuration)
	}
	return m
}

func (m *Metrics) Received(n int) {
	if m == nil {
		return
	}
	m.received.Add(float64(n))
}

func (m *Metrics) Inserted() {
	if m == nil {
		return
	}
	m.inserted.Inc()
}

func (m *Metrics) Failed(kind string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(kind).Inc()
}

// ObserveDB records how long a database operation took since start.
func (m *Metrics) ObserveDB(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.dbDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
