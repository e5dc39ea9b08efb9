package status

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleuton/arquitetura360/node/status/client"
	"github.com/cleuton/arquitetura360/node/status/config"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "inspect node status",
		Long: `Inspect node status.

Each mesh node exposes a status API to inspect the state of the node, this
can be used to answer questions such as:
* What value does this node have for each key?
* What devices has this node received metrics from?
* Is this node delivering its state to each peer?

See 'status --help' for the availale commands.

Examples:
  # Inspect the entries in the nodes store.
  mesh status store entries

  # Inspect the entries grouped by device on node 10.26.104.56:6001.
  mesh status store devices --node.url http://10.26.104.56:6001

  # Inspect the delivery status of each peer.
  mesh status gossip peers
`,
	}

	var conf config.Config
	conf.RegisterFlags(cmd.PersistentFlags())

	c := client.NewClient(nil)

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if err := conf.Validate(); err != nil {
			fmt.Printf("config: %s\n", err.Error())
			os.Exit(1)
		}

		url, _ := url.Parse(conf.Node.URL)
		c.SetURL(url)
	}

	cmd.AddCommand(newStoreCommand(c))
	cmd.AddCommand(newGossipCommand(c))

	return cmd
}
