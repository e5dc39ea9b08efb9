package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/pflag"
)

type NodeConfig struct {
	// URL is the node URL.
	URL string `json:"url"`
}

func (c *NodeConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("missing url")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url: %s", c.URL)
	}
	return nil
}

type Config struct {
	Node NodeConfig `json:"node"`
}

func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.Node.URL,
		"node.url",
		"http://localhost:6000",
		`
Mesh node URL. This URL should point to the nodes bind address.
`,
	)
}
