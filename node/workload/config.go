package workload

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

type Config struct {
	// Enabled runs the workload on the node.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Devices is the number of simulated devices.
	Devices int `json:"devices" yaml:"devices"`

	// Metrics contains the metric names each device reports.
	Metrics []string `json:"metrics" yaml:"metrics"`

	// Interval is the rate each device reports its metrics.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// MaxValue is the maximum metric value. Values are random integers
	// from 0 to MaxValue.
	MaxValue int `json:"max_value" yaml:"max_value"`
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Devices <= 0 {
		return fmt.Errorf("missing devices")
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("missing metrics")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("missing interval")
	}
	if c.MaxValue < 0 {
		return fmt.Errorf("negative max value")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(
		&c.Enabled,
		"workload.enabled",
		c.Enabled,
		`
Whether to generate local writes.

When enabled the node simulates a set of devices, each periodically reporting
a random value for each metric. Each value is written to the local store with
the node ID as writer.`,
	)
	fs.IntVar(
		&c.Devices,
		"workload.devices",
		c.Devices,
		`
The number of simulated devices.`,
	)
	fs.StringSliceVar(
		&c.Metrics,
		"workload.metrics",
		c.Metrics,
		`
The metrics each device reports. Each device and metric pair is stored with
key '<device>:<metric>', such as 'device3:temperature'.`,
	)
	fs.DurationVar(
		&c.Interval,
		"workload.interval",
		c.Interval,
		`
The interval devices report their metrics.`,
	)
	fs.IntVar(
		&c.MaxValue,
		"workload.max-value",
		c.MaxValue,
		`
The maximum metric value.`,
	)
}
