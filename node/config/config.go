package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/cleuton/arquitetura360/node/report"
	"github.com/cleuton/arquitetura360/node/workload"
	"github.com/cleuton/arquitetura360/pkg/gossip"
	"github.com/cleuton/arquitetura360/pkg/log"
)

type NodeConfig struct {
	// ID is the nodes writer ID, used to break ties between writes with
	// equal timestamps. Must be unique in the mesh.
	//
	// If zero the port of the bind address is used.
	ID uint64 `json:"id" yaml:"id"`

	// BindAddr is the address to bind to listen for incoming HTTP
	// connections, including gossip from peers.
	BindAddr string `json:"bind_addr" yaml:"bind_addr"`

	// AdvertiseAddr is the address peers use to reach this node.
	AdvertiseAddr string `json:"advertise_addr" yaml:"advertise_addr"`

	AccessLog log.AccessLogConfig `json:"access_log" yaml:"access_log"`
}

func (c *NodeConfig) Validate() error {
	if c.BindAddr == "" {
		return fmt.Errorf("missing bind addr")
	}
	if _, _, err := net.SplitHostPort(c.BindAddr); err != nil {
		return fmt.Errorf("invalid bind addr: %w", err)
	}
	return nil
}

func (c *NodeConfig) RegisterFlags(fs *pflag.FlagSet) {
	fs.Uint64Var(
		&c.ID,
		"node.id",
		c.ID,
		`
The nodes writer ID.

When two nodes write the same key with the same timestamp, the write from the
node with the greater ID wins, so each node in the mesh must have a unique ID.

By default the port of the bind address is used, such as a bind address of
':6000' has ID 6000.`,
	)
	fs.StringVar(
		&c.BindAddr,
		"node.bind-addr",
		c.BindAddr,
		`
The host/port to listen for gossip from peers and status requests.

If the host is unspecified it defaults to all listeners, such as
'--node.bind-addr :6000' will listen on '0.0.0.0:6000'`,
	)
	fs.StringVar(
		&c.AdvertiseAddr,
		"node.advertise-addr",
		c.AdvertiseAddr,
		`
Address to advertise to peers.

By default, if the bind address includes an IP to bind to that will be used.
If the bind address does not include an IP (such as ':6000') the nodes
private IP will be used, such as a bind address of ':6000' may have an
advertise address of '10.26.104.14:6000'.`,
	)
	c.AccessLog.RegisterFlags(fs, "node")
}

// IDFromAddr returns the port of the given address to use as the node ID.
func IDFromAddr(addr string) (uint64, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid addr: %s: %w", addr, err)
	}
	id, err := strconv.ParseUint(port, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid port: %s: %w", port, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid port: %s", port)
	}
	return id, nil
}

type Config struct {
	Node     NodeConfig      `json:"node" yaml:"node"`
	Gossip   gossip.Config   `json:"gossip" yaml:"gossip"`
	Workload workload.Config `json:"workload" yaml:"workload"`
	Report   report.Config   `json:"report" yaml:"report"`
	Log      log.Config      `json:"log" yaml:"log"`

	// GracePeriod is the duration to gracefully shutdown the node, waiting
	// for in-progress requests to complete.
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period"`
}

func Default() *Config {
	return &Config{
		Node: NodeConfig{
			BindAddr: ":6000",
		},
		Gossip: gossip.Config{
			Interval:       time.Second * 2,
			Timeout:        time.Second * 3,
			Encoding:       string(gossip.EncodingJSON),
			MaxMessageSize: 16 * 1024 * 1024,
		},
		Workload: workload.Config{
			Enabled:  true,
			Devices:  10,
			Metrics:  []string{"temperature", "vibration"},
			Interval: time.Millisecond * 500,
			MaxValue: 100,
		},
		Report: report.Config{
			Interval: time.Second * 5,
		},
		Log: log.Config{
			Level: "info",
			Path:  "stderr",
		},
		GracePeriod: time.Second * 30,
	}
}

func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	if err := c.Gossip.Validate(); err != nil {
		return fmt.Errorf("gossip: %w", err)
	}
	if err := c.Workload.Validate(); err != nil {
		return fmt.Errorf("workload: %w", err)
	}
	if c.Report.Interval < 0 {
		return fmt.Errorf("report: negative interval")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("missing grace period")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	c.Node.RegisterFlags(fs)
	c.Gossip.RegisterFlags(fs)
	c.Workload.RegisterFlags(fs)
	c.Report.RegisterFlags(fs)
	c.Log.RegisterFlags(fs)

	fs.DurationVar(
		&c.GracePeriod,
		"grace-period",
		c.GracePeriod,
		`
Maximum duration after a shutdown signal is received (SIGTERM or
SIGINT) to gracefully shutdown the node before terminating.

Gossip stops immediately without waiting for in-progress deliveries, then
in-progress gossip requests from peers are given the grace period to
complete.`,
	)
}
