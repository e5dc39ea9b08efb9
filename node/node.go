package node

import (
	"context"
	"fmt"
	"net"

	rungroup "github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cleuton/arquitetura360/node/config"
	"github.com/cleuton/arquitetura360/node/report"
	"github.com/cleuton/arquitetura360/node/server"
	"github.com/cleuton/arquitetura360/node/status"
	"github.com/cleuton/arquitetura360/node/workload"
	"github.com/cleuton/arquitetura360/pkg/gossip"
	"github.com/cleuton/arquitetura360/pkg/log"
	"github.com/cleuton/arquitetura360/pkg/lww"
)

// Node is a member of the mesh. It owns the local store, accepts snapshots
// from peers, and periodically pushes its own state to every peer.
type Node struct {
	id uint64

	advertiseAddr string

	ln net.Listener

	store *lww.Store

	gossip *gossip.Gossip

	server *server.Server

	generator *workload.Generator

	reporter *report.Reporter

	conf *config.Config

	logger log.Logger
}

// NewNode builds a node serving on the given listener.
//
// If the node ID isn't configured it defaults to the port the listener is
// bound to.
func NewNode(
	ln net.Listener,
	conf *config.Config,
	registry *prometheus.Registry,
	logger log.Logger,
) (*Node, error) {
	id := conf.Node.ID
	if id == 0 {
		var err error
		id, err = config.IDFromAddr(ln.Addr().String())
		if err != nil {
			return nil, fmt.Errorf("node id: %w", err)
		}
	}

	advertiseAddr := conf.Node.AdvertiseAddr
	if advertiseAddr == "" {
		advertiseAddr = ln.Addr().String()
	}

	store := lww.NewStore(logger)

	g := gossip.New(
		id,
		store,
		gossip.NewHTTPTransport(conf.Gossip.Timeout),
		&conf.Gossip,
		logger,
	)

	s := server.NewServer(
		store,
		conf.Gossip.MaxMessageSize,
		conf.Node.AccessLog,
		registry,
		logger,
	)
	s.AddStatus("/store", status.NewStore(store))
	s.AddStatus("/gossip", status.NewGossip(g))

	if registry != nil {
		store.Metrics().Register(registry)
		g.Metrics().Register(registry)
	}

	var generator *workload.Generator
	if conf.Workload.Enabled {
		generator = workload.NewGenerator(
			id,
			store,
			lww.NewClock(),
			&conf.Workload,
			logger,
		)
	}

	return &Node{
		id:            id,
		advertiseAddr: advertiseAddr,
		ln:            ln,
		store:         store,
		gossip:        g,
		server:        s,
		generator:     generator,
		reporter:      report.NewReporter(store.Snapshot, conf.Report.Interval, logger),
		conf:          conf,
		logger:        logger.WithSubsystem("node"),
	}, nil
}

func (n *Node) ID() uint64 {
	return n.id
}

// Addr returns the address the node is listening on.
func (n *Node) Addr() string {
	return n.ln.Addr().String()
}

func (n *Node) AdvertiseAddr() string {
	return n.advertiseAddr
}

func (n *Node) Store() *lww.Store {
	return n.store
}

func (n *Node) Gossip() *gossip.Gossip {
	return n.gossip
}

// Run runs the node until the context is cancelled or a component fails.
//
// On shutdown gossip and the workload stop immediately, then the server is
// given the grace period to complete in-progress requests.
func (n *Node) Run(ctx context.Context) error {
	n.logger.Info(
		"starting node",
		zap.Uint64("id", n.id),
		zap.String("addr", n.Addr()),
		zap.String("advertise-addr", n.advertiseAddr),
	)

	var group rungroup.Group

	// Termination handler.
	runCtx, runCancel := context.WithCancel(ctx)
	group.Add(func() error {
		<-runCtx.Done()
		return nil
	}, func(error) {
		runCancel()
	})

	// Server.
	group.Add(func() error {
		if err := n.server.Serve(n.ln); err != nil {
			return fmt.Errorf("server serve: %w", err)
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			n.conf.GracePeriod,
		)
		defer cancel()

		if err := n.server.Shutdown(shutdownCtx); err != nil {
			n.logger.Warn("failed to gracefully shutdown server", zap.Error(err))
		}

		n.logger.Info("server shut down")
	})

	// Gossip.
	gossipCtx, gossipCancel := context.WithCancel(context.Background())
	group.Add(func() error {
		n.gossip.Run(gossipCtx)
		return nil
	}, func(error) {
		gossipCancel()
	})

	// Workload.
	if n.generator != nil {
		workloadCtx, workloadCancel := context.WithCancel(context.Background())
		group.Add(func() error {
			n.generator.Run(workloadCtx)
			return nil
		}, func(error) {
			workloadCancel()
		})
	}

	// Reporter.
	reportCtx, reportCancel := context.WithCancel(context.Background())
	group.Add(func() error {
		n.reporter.Run(reportCtx)
		return nil
	}, func(error) {
		reportCancel()
	})

	if err := group.Run(); err != nil {
		return err
	}

	n.logger.Info("node stopped")

	return nil
}
