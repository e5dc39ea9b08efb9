package node

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-sockaddr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleuton/arquitetura360/node"
	"github.com/cleuton/arquitetura360/node/config"
	pkgconfig "github.com/cleuton/arquitetura360/pkg/config"
	"github.com/cleuton/arquitetura360/pkg/log"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "start a mesh node",
		Long: `Start a mesh node.

The node listens for snapshots pushed by its peers, merging each into its
local state, and every '--gossip.interval' pushes its own full state to each
peer in '--gossip.peers'.

The node ID breaks ties between writes with equal timestamps, so must be
unique in the mesh. By default the port of '--node.bind-addr' is used.

Examples:
  # Start a node listening on :6000 with two peers.
  mesh node --node.bind-addr :6000 --gossip.peers localhost:6001,localhost:6002

  # Start a node that only merges state from peers without generating writes.
  mesh node --workload.enabled=false --gossip.peers 10.26.104.14:6000

  # Start a node using msgpack encoded snapshots and logging to a file.
  mesh node --gossip.encoding msgpack --log.path /logs/node-6000.log

  # Start a node loading configuration from a YAML file.
  mesh node --config.path ./mesh.yaml --config.expand-env
`,
	}

	conf := config.Default()

	var loadConf pkgconfig.Config

	// Register flags and set default values.
	conf.RegisterFlags(cmd.Flags())
	loadConf.RegisterFlags(cmd.Flags())

	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := pkgconfig.Load(conf, loadConf.Path, loadConf.ExpandEnv); err != nil {
			fmt.Printf("load config: %s\n", err.Error())
			os.Exit(1)
		}

		if err := conf.Validate(); err != nil {
			fmt.Printf("invalid config: %s\n", err.Error())
			os.Exit(1)
		}

		logger, err := log.NewLoggerFromConfig(conf.Log)
		if err != nil {
			fmt.Printf("failed to setup logger: %s\n", err.Error())
			os.Exit(1)
		}
		defer func() {
			_ = logger.Sync()
		}()

		if conf.Node.AdvertiseAddr == "" {
			advertiseAddr, err := advertiseAddrFromBindAddr(conf.Node.BindAddr)
			if err != nil {
				logger.Warn(
					"failed to get advertise address; using listen address",
					zap.Error(err),
				)
			} else {
				conf.Node.AdvertiseAddr = advertiseAddr
			}
		}

		if err := run(conf, logger); err != nil {
			logger.Error("failed to run node", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
	}

	return cmd
}

func run(conf *config.Config, logger log.Logger) error {
	logger = logger.WithSubsystem("main")

	logger.Info("starting mesh node", zap.Any("conf", conf))

	registry := prometheus.NewRegistry()

	ln, err := net.Listen("tcp", conf.Node.BindAddr)
	if err != nil {
		return fmt.Errorf("listen: %s: %w", conf.Node.BindAddr, err)
	}

	n, err := node.NewNode(ln, conf, registry, logger)
	if err != nil {
		ln.Close()
		return fmt.Errorf("node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Termination handler.
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	go func() {
		select {
		case sig := <-signalCh:
			logger.Info(
				"received shutdown signal",
				zap.String("signal", sig.String()),
			)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := n.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func advertiseAddrFromBindAddr(bindAddr string) (string, error) {
	if strings.HasPrefix(bindAddr, ":") {
		bindAddr = "0.0.0.0" + bindAddr
	}

	host, port, err := net.SplitHostPort(bindAddr)
	if err != nil {
		return "", fmt.Errorf("invalid bind addr: %s: %w", bindAddr, err)
	}
	if port == "0" {
		return "", fmt.Errorf("bind addr has no fixed port: %s", bindAddr)
	}

	if host == "0.0.0.0" || host == "::" {
		ip, err := sockaddr.GetPrivateIP()
		if err != nil {
			return "", fmt.Errorf("get interface addr: %w", err)
		}
		if ip == "" {
			return "", fmt.Errorf("no private ip found")
		}
		return net.JoinHostPort(ip, port), nil
	}
	return bindAddr, nil
}
