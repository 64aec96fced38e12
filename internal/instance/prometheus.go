package instance

import "github.com/prometheus/client_golang/prometheus"

type Prometheus interface {
	Register(r prometheus.Registerer)

	ConnectionOpened()
	ConnectionClosed()
	PresenceEntries(n int)
	Delivery(kind string, result string)
}
