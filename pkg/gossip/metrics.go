package gossip

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// Rounds is the total number of gossip rounds.
	Rounds prometheus.Counter

	// RoundsSkipped is the total number of rounds skipped since the previous
	// round was still in progress.
	RoundsSkipped prometheus.Counter

	// Deliveries is the total number of snapshot deliveries, labelled by
	// 'result' (ok or failed).
	Deliveries *prometheus.CounterVec

	// DeliveryLatency is the latency delivering a snapshot to a peer.
	DeliveryLatency prometheus.Histogram

	// BytesOutbound is the total number of snapshot bytes sent.
	BytesOutbound prometheus.Counter

	// EntriesOutbound is the total number of entries sent.
	EntriesOutbound prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		Rounds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mesh",
				Subsystem: "gossip",
				Name:      "rounds_total",
				Help:      "Total number of gossip rounds",
			},
		),
		RoundsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mesh",
				Subsystem: "gossip",
				Name:      "rounds_skipped_total",
				Help:      "Total number of skipped gossip rounds",
			},
		),
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mesh",
				Subsystem: "gossip",
				Name:      "deliveries_total",
				Help:      "Total number of snapshot deliveries",
			},
			[]string{"result"},
		),
		DeliveryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "mesh",
				Subsystem: "gossip",
				Name:      "delivery_latency_seconds",
				Help:      "Snapshot delivery latency",
				Buckets:   prometheus.DefBuckets,
			},
		),
		BytesOutbound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mesh",
				Subsystem: "gossip",
				Name:      "bytes_outbound_total",
				Help:      "Total number of written snapshot bytes",
			},
		),
		EntriesOutbound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mesh",
				Subsystem: "gossip",
				Name:      "entries_outbound_total",
				Help:      "Total number of written snapshot entries",
			},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.Rounds,
		m.RoundsSkipped,
		m.Deliveries,
		m.DeliveryLatency,
		m.BytesOutbound,
		m.EntriesOutbound,
	)
}
