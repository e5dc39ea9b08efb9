package status

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/cleuton/arquitetura360/node/status/client"
	"github.com/cleuton/arquitetura360/pkg/gossip"
)

func newGossipCommand(c *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gossip",
		Short: "inspect gossip state",
	}

	cmd.AddCommand(newGossipPeersCommand(c))

	return cmd
}

func newGossipPeersCommand(c *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peers",
		Short: "inspect gossip peers",
		Long: `Inspect gossip peers.

Queries the node for the delivery status of each configured peer, including
the number of successful and failed deliveries and the last error.

Examples:
  mesh status gossip peers
`,
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		showGossipPeers(c)
	}

	return cmd
}

type gossipPeersOutput struct {
	Peers []gossip.PeerStatus `json:"peers"`
}

func showGossipPeers(c *client.Client) {
	gossip := client.NewGossip(c)

	peers, err := gossip.Peers()
	if err != nil {
		fmt.Printf("failed to get gossip peers: %s\n", err.Error())
		os.Exit(1)
	}

	output := gossipPeersOutput{
		Peers: peers,
	}
	b, _ := yaml.Marshal(output)
	fmt.Println(string(b))
}
