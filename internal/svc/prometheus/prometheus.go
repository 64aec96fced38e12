package prometheus

import (
	"github.com/hirebridge/api/internal/instance"
	"github.com/prometheus/client_golang/prometheus"
)

type Options struct {
	Labels prometheus.Labels
}

func New(o Options) instance.Prometheus {
	return &Instance{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "portal_realtime_connections",
			Help:        "The number of open realtime connections",
			ConstLabels: o.Labels,
		}),
		presences: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "portal_realtime_presences",
			Help:        "The number of users reachable for push delivery",
			ConstLabels: o.Labels,
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "portal_realtime_deliveries_total",
			Help:        "Push delivery attempts by event kind and outcome",
			ConstLabels: o.Labels,
		}, []string{"kind", "result"}),
	}
}

type Instance struct {
	connections prometheus.Gauge
	presences   prometheus.Gauge
	deliveries  *prometheus.CounterVec
}

func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.connections,
		m.presences,
		m.deliveries,
	)
}

func (m *Instance) ConnectionOpened() {
	m.connections.Inc()
}

func (m *Instance) ConnectionClosed() {
	m.connections.Dec()
}

func (m *Instance) PresenceEntries(n int) {
	m.presences.Set(float64(n))
}

func (m *Instance) Delivery(kind string, result string) {
	m.deliveries.WithLabelValues(kind, result).Inc()
}
