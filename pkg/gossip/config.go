package gossip

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// Peers contains the addresses of the nodes to gossip with, such as
	// '10.26.104.14:6000'.
	Peers []string `json:"peers" yaml:"peers"`

	// Interval is the rate to initiate a gossip round.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Timeout is the timeout delivering a snapshot to a single peer.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Encoding is the encoding of outbound snapshots. Either 'json' or
	// 'msgpack'.
	Encoding string `json:"encoding" yaml:"encoding"`

	// MaxMessageSize is the maximum size of an inbound snapshot in bytes.
	MaxMessageSize int64 `json:"max_message_size" yaml:"max_message_size"`
}

// Validate checks the configuration. Peer addresses are trimmed of
// whitespace and empty addresses are dropped, so a list such as
// 'a:6000, b:6000,' gives two peers.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("missing interval")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("missing timeout")
	}
	if _, err := ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("missing max message size")
	}
	peers := make([]string, 0, len(c.Peers))
	for _, peer := range c.Peers {
		peer = strings.TrimSpace(peer)
		if peer == "" {
			continue
		}
		if err := validatePeer(peer); err != nil {
			return err
		}
		peers = append(peers, peer)
	}
	c.Peers = peers
	return nil
}

func validatePeer(peer string) error {
	hostPort := peer
	if strings.Contains(peer, "://") {
		u, err := url.Parse(peer)
		if err != nil {
			return fmt.Errorf("invalid peer: %s: %w", peer, err)
		}
		hostPort = u.Host
	}
	_, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return fmt.Errorf("invalid peer: %s: %w", peer, err)
	}
	if port == "" {
		return fmt.Errorf("invalid peer: %s: missing port", peer)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(
		&c.Peers,
		"gossip.peers",
		c.Peers,
		`
A list of peer addresses to gossip with, such as
'--gossip.peers 10.26.104.14:6000,10.26.104.75:6000'.

Each round the node sends its full state to every peer. Membership is static,
so every node that should receive this nodes writes must be listed, either
directly or transitively via the peers of other nodes.`,
	)

	fs.DurationVar(
		&c.Interval,
		"gossip.interval",
		c.Interval,
		`
The interval to initiate rounds of gossip.`,
	)

	fs.DurationVar(
		&c.Timeout,
		"gossip.timeout",
		c.Timeout,
		`
Timeout delivering a snapshot to a peer.

A peer that doesn't respond within the timeout is skipped until the next
round.`,
	)

	fs.StringVar(
		&c.Encoding,
		"gossip.encoding",
		c.Encoding,
		`
Encoding of outbound snapshots, either 'json' or 'msgpack'.

Nodes accept both encodings regardless of this setting.`,
	)

	fs.Int64Var(
		&c.MaxMessageSize,
		"gossip.max-message-size",
		c.MaxMessageSize,
		`
The maximum size of an inbound snapshot in bytes.`,
	)
}
