package gossip

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleuton/arquitetura360/pkg/log"
	"github.com/cleuton/arquitetura360/pkg/lww"
)

// Snapshotter returns a full copy of the local state.
type Snapshotter interface {
	Snapshot() []lww.Entry
}

// PeerStatus contains the delivery history for a peer.
type PeerStatus struct {
	Addr string `json:"addr"`

	// Deliveries is the number of successful deliveries.
	Deliveries uint64 `json:"deliveries"`

	// Failures is the number of failed deliveries.
	Failures uint64 `json:"failures"`

	// LastDelivery is the time of the last successful delivery.
	LastDelivery time.Time `json:"last_delivery"`

	// LastError is the error from the last delivery, or empty if the last
	// delivery succeeded.
	LastError string `json:"last_error,omitempty"`
}

// Gossip periodically pushes a snapshot of the local state to every peer.
//
// Each delivery is independent, so an unreachable peer doesn't affect the
// delivery to other peers, and a failed delivery is only logged since the
// next round resends the full state.
type Gossip struct {
	nodeID uint64

	snapshotter Snapshotter
	transport   Transport

	encoding Encoding
	config   *Config

	peers map[string]*PeerStatus

	// mu protects the above fields.
	mu sync.Mutex

	// roundInFlight is true while a round is in progress.
	roundInFlight *atomic.Bool

	metrics *Metrics

	logger log.Logger
}

func New(
	nodeID uint64,
	snapshotter Snapshotter,
	transport Transport,
	config *Config,
	logger log.Logger,
) *Gossip {
	// Already validated.
	encoding, err := ParseEncoding(config.Encoding)
	if err != nil {
		encoding = EncodingJSON
	}

	peers := make(map[string]*PeerStatus)
	for _, addr := range config.Peers {
		peers[addr] = &PeerStatus{
			Addr: addr,
		}
	}

	return &Gossip{
		nodeID:        nodeID,
		snapshotter:   snapshotter,
		transport:     transport,
		encoding:      encoding,
		config:        config,
		peers:         peers,
		roundInFlight: atomic.NewBool(false),
		metrics:       newMetrics(),
		logger:        logger.WithSubsystem("gossip"),
	}
}

// Run gossips at the configured interval until the context is cancelled.
//
// Run returns as soon as the context is cancelled without waiting for an
// in-progress round, whose deliveries are bounded by the delivery timeout.
func (g *Gossip) Run(ctx context.Context) {
	g.logger.Info(
		"starting gossip",
		zap.Uint64("node-id", g.nodeID),
		zap.Strings("peers", g.config.Peers),
		zap.Duration("interval", g.config.Interval),
		zap.String("encoding", string(g.encoding)),
	)

	ticker := time.NewTicker(g.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Add 10% jitter to avoid nodes synchronising.
			jitterMs := int64(0)
			if ms := g.config.Interval.Milliseconds(); ms > 0 {
				jitterMs = (rand.Int63() % ms) / 10
			}
			select {
			case <-time.After(time.Duration(jitterMs) * time.Millisecond):
				g.scheduleRound()
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Round sends a snapshot of the local state to every peer, and waits for all
// deliveries to complete.
//
// Returns the number of peers the snapshot was delivered to. Failed
// deliveries are logged and recorded in the peer status.
func (g *Gossip) Round() int {
	g.metrics.Rounds.Inc()

	if len(g.config.Peers) == 0 {
		return 0
	}

	msg := &Message{
		ID:      uuid.New().String(),
		Sender:  g.nodeID,
		Entries: g.snapshotter.Snapshot(),
	}
	if msg.Entries == nil {
		msg.Entries = []lww.Entry{}
	}
	payload, err := Encode(msg, g.encoding)
	if err != nil {
		// Entries come from our own store so this should never happen.
		g.logger.Error("failed to encode snapshot", zap.Error(err))
		return 0
	}

	delivered := atomic.NewInt64(0)

	// The group only waits for every delivery. It has no shared context so
	// one peer failing doesn't cancel delivery to the others, and failures
	// are recorded on the peer status rather than returned.
	var group errgroup.Group
	for _, addr := range g.config.Peers {
		addr := addr
		group.Go(func() error {
			if g.deliver(addr, msg, payload) {
				delivered.Inc()
			}
			return nil
		})
	}
	_ = group.Wait()

	g.logger.Debug(
		"gossip round",
		zap.String("message-id", msg.ID),
		zap.Int("entries", len(msg.Entries)),
		zap.Int("peers", len(g.config.Peers)),
		zap.Int64("delivered", delivered.Load()),
	)

	return int(delivered.Load())
}

// Peers returns the delivery status of each peer, sorted by address.
func (g *Gossip) Peers() []PeerStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	peers := make([]PeerStatus, 0, len(g.peers))
	for _, peer := range g.peers {
		peers = append(peers, *peer)
	}
	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Addr < peers[j].Addr
	})
	return peers
}

func (g *Gossip) Metrics() *Metrics {
	return g.metrics
}

// scheduleRound starts a round in the background, unless the previous round
// is still in progress.
func (g *Gossip) scheduleRound() {
	if !g.roundInFlight.CompareAndSwap(false, true) {
		g.metrics.RoundsSkipped.Inc()
		g.logger.Debug("skipping round; previous round in progress")
		return
	}

	go func() {
		defer g.roundInFlight.Store(false)
		g.Round()
	}()
}

func (g *Gossip) deliver(addr string, msg *Message, payload []byte) bool {
	ctx, cancel := context.WithTimeout(context.Background(), g.config.Timeout)
	defer cancel()

	start := time.Now()
	err := g.transport.Send(ctx, addr, g.encoding, payload)
	g.metrics.DeliveryLatency.Observe(time.Since(start).Seconds())

	g.mu.Lock()
	peer, ok := g.peers[addr]
	if !ok {
		peer = &PeerStatus{Addr: addr}
		g.peers[addr] = peer
	}
	if err != nil {
		peer.Failures++
		peer.LastError = err.Error()
	} else {
		peer.Deliveries++
		peer.LastDelivery = time.Now()
		peer.LastError = ""
	}
	g.mu.Unlock()

	if err != nil {
		g.metrics.Deliveries.WithLabelValues("failed").Inc()
		g.logger.Warn(
			"failed to deliver snapshot",
			zap.String("peer", addr),
			zap.String("message-id", msg.ID),
			zap.Error(err),
		)
		return false
	}

	g.metrics.Deliveries.WithLabelValues("ok").Inc()
	g.metrics.BytesOutbound.Add(float64(len(payload)))
	g.metrics.EntriesOutbound.Add(float64(len(msg.Entries)))
	return true
}
