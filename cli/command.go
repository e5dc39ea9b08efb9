package cli

import (
	"github.com/spf13/cobra"

	"github.com/cleuton/arquitetura360/cli/node"
	"github.com/cleuton/arquitetura360/cli/status"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mesh [command] (flags)",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Long: `Mesh replicates a key-value state between a set of peer nodes.

Each node holds a local Last-Writer-Wins map from key to value. Nodes accept
concurrent conflicting writes, then periodically push their full state to
every configured peer. A node merging a peers state keeps the write with the
greater timestamp for each key, breaking ties by the writers node ID, so all
nodes converge to the same value per key.

Start a node with:

  $ mesh node --node.bind-addr :6000 --gossip.peers localhost:6001,localhost:6002

By default each node runs a workload that simulates a set of devices
reporting metrics, which are written to the local state.

You can also inspect the status of a node using:

  $ mesh status store devices --node.url http://localhost:6000
`,
	}

	cmd.AddCommand(node.NewCommand())
	cmd.AddCommand(status.NewCommand())

	return cmd
}

func init() {
	cobra.EnableCommandSorting = false
}
