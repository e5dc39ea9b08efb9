package status

import (
	"errors"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/cleuton/arquitetura360/node/report"
	"github.com/cleuton/arquitetura360/node/status/client"
	"github.com/cleuton/arquitetura360/pkg/lww"
)

func newStoreCommand(c *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "inspect store state",
	}

	cmd.AddCommand(newStoreEntriesCommand(c))
	cmd.AddCommand(newStoreEntryCommand(c))
	cmd.AddCommand(newStoreDevicesCommand(c))

	return cmd
}

func newStoreEntriesCommand(c *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "inspect store entries",
		Long: `Inspect store entries.

Queries the node for the register of every key in its store, sorted by key.

Examples:
  mesh status store entries
`,
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		showStoreEntries(c)
	}

	return cmd
}

type storeEntriesOutput struct {
	Entries []lww.Entry `json:"entries"`
}

func showStoreEntries(c *client.Client) {
	store := client.NewStore(c)

	entries, err := store.Entries()
	if err != nil {
		fmt.Printf("failed to get store entries: %s\n", err.Error())
		os.Exit(1)
	}

	output := storeEntriesOutput{
		Entries: entries,
	}
	b, _ := yaml.Marshal(output)
	fmt.Println(string(b))
}

func newStoreEntryCommand(c *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Args:  cobra.ExactArgs(1),
		Short: "inspect a store entry",
		Long: `Inspect a store entry.

Queries the node for the register of the given key.

Examples:
  mesh status store entry device3:temperature
`,
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		showStoreEntry(args[0], c)
	}

	return cmd
}

func showStoreEntry(key string, c *client.Client) {
	store := client.NewStore(c)

	entry, err := store.Entry(key)
	if errors.Is(err, client.ErrNotFound) {
		fmt.Printf("key not found: %s\n", key)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("failed to get store entry: %s: %s\n", key, err.Error())
		os.Exit(1)
	}

	b, _ := yaml.Marshal(entry)
	fmt.Println(string(b))
}

func newStoreDevicesCommand(c *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "inspect store entries grouped by device",
		Long: `Inspect store entries grouped by device.

Queries the node for its store entries grouped by device, where each key has
the form '<device>:<metric>'.

Examples:
  mesh status store devices
`,
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		showStoreDevices(c)
	}

	return cmd
}

type storeDevicesOutput struct {
	Devices []report.Device `json:"devices"`
}

func showStoreDevices(c *client.Client) {
	store := client.NewStore(c)

	devices, err := store.Devices()
	if err != nil {
		fmt.Printf("failed to get store devices: %s\n", err.Error())
		os.Exit(1)
	}

	output := storeDevicesOutput{
		Devices: devices,
	}
	b, _ := yaml.Marshal(output)
	fmt.Println(string(b))
}
