package lww

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// Entries is the number of keys in the store.
	Entries prometheus.Gauge

	// Writes is the number of register writes, labelled by 'source' (local
	// or remote) and 'result' (installed or dropped).
	Writes *prometheus.CounterVec

	// Merges is the number of merged batches received from peers.
	Merges prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		Entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mesh",
				Subsystem: "store",
				Name:      "entries",
				Help:      "Number of keys in the store",
			},
		),
		Writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mesh",
				Subsystem: "store",
				Name:      "writes_total",
				Help:      "Total number of register writes",
			},
			[]string{"source", "result"},
		),
		Merges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mesh",
				Subsystem: "store",
				Name:      "merges_total",
				Help:      "Total number of merged batches",
			},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.Entries,
		m.Writes,
		m.Merges,
	)
}
