// Package report summarises the store contents grouped by device.
//
// Keys have the form '<device>:<metric>'. Grouping is only used for
// presentation, the store itself has no notion of devices.
package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cleuton/arquitetura360/pkg/log"
	"github.com/cleuton/arquitetura360/pkg/lww"
)

// defaultMetric is the metric name used for keys without a separator.
const defaultMetric = "value"

type Metric struct {
	Name string `json:"name"`
	lww.Register
}

func (m Metric) String() string {
	return m.Name + "=" + m.Register.String()
}

type Device struct {
	Name    string   `json:"name"`
	Metrics []Metric `json:"metrics"`
}

func (d Device) String() string {
	parts := make([]string, 0, len(d.Metrics))
	for _, m := range d.Metrics {
		parts = append(parts, m.String())
	}
	return d.Name + ": " + strings.Join(parts, ", ")
}

// Group groups the entries by device.
//
// Devices are sorted by their trailing number, such as 'device2' before
// 'device10', then by name. Metrics are sorted by name.
func Group(entries []lww.Entry) []Device {
	byDevice := make(map[string][]Metric)
	for _, entry := range entries {
		device, metric, ok := strings.Cut(entry.Key, ":")
		if !ok {
			metric = defaultMetric
		}
		byDevice[device] = append(byDevice[device], Metric{
			Name:     metric,
			Register: entry.Register(),
		})
	}

	devices := make([]Device, 0, len(byDevice))
	for name, metrics := range byDevice {
		sort.Slice(metrics, func(i, j int) bool {
			return metrics[i].Name < metrics[j].Name
		})
		devices = append(devices, Device{
			Name:    name,
			Metrics: metrics,
		})
	}
	sort.Slice(devices, func(i, j int) bool {
		return deviceLess(devices[i].Name, devices[j].Name)
	})
	return devices
}

// deviceLess orders devices with a trailing number by that number, followed
// by devices without a number.
func deviceLess(a, b string) bool {
	aNum, aOK := trailingNumber(a)
	bNum, bOK := trailingNumber(b)
	switch {
	case aOK && bOK && aNum != bNum:
		return aNum < bNum
	case aOK != bOK:
		return aOK
	default:
		return a < b
	}
}

func trailingNumber(s string) (int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, false
	}
	return n, true
}

type Config struct {
	// Interval is the rate to log the store state. Zero disables.
	Interval time.Duration `json:"interval" yaml:"interval"`
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.DurationVar(
		&c.Interval,
		"report.interval",
		c.Interval,
		`
The interval to log the state of the store, grouped by device.

Comparing these logs across nodes shows whether the mesh has converged. Set to
0 to disable.`,
	)
}

// Reporter periodically logs the store contents grouped by device.
type Reporter struct {
	snapshot func() []lww.Entry

	interval time.Duration

	logger log.Logger
}

func NewReporter(
	snapshot func() []lww.Entry,
	interval time.Duration,
	logger log.Logger,
) *Reporter {
	return &Reporter{
		snapshot: snapshot,
		interval: interval,
		logger:   logger.WithSubsystem("report"),
	}
}

// Run logs the state at the configured interval until the context is
// cancelled. If the interval is zero Run blocks until the context is
// cancelled.
func (r *Reporter) Run(ctx context.Context) {
	if r.interval == 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Report()
		case <-ctx.Done():
			return
		}
	}
}

// Report logs a summary line followed by a line per device.
func (r *Reporter) Report() {
	devices := Group(r.snapshot())

	r.logger.Info(fmt.Sprintf("state: %d devices", len(devices)))
	for _, device := range devices {
		r.logger.Info(
			device.String(),
			zap.String("device", device.Name),
		)
	}
}
