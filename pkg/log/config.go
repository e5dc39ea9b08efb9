package log

import (
	"fmt"

	"github.com/spf13/pflag"
)

type Config struct {
	// Level is the minimum record level to log. Either 'debug', 'info', 'warn'
	// or 'error'.
	Level string `json:"level" yaml:"level"`

	// Subsystems enables debug logging on log records whose 'subsystem'
	// matches one of the given values (overrides `Level`).
	Subsystems []string `json:"subsystems" yaml:"subsystems"`

	// Path is where logs are written. Either 'stderr', 'stdout' or a file
	// path, which is opened in append mode.
	Path string `json:"path" yaml:"path"`
}

func (c *Config) Validate() error {
	if c.Level == "" {
		return fmt.Errorf("missing level")
	}
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	if c.Path == "" {
		return fmt.Errorf("missing path")
	}
	return nil
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		&c.Level,
		"log.level",
		c.Level,
		`
Minimum log level to output.

The available levels are 'debug', 'info', 'warn' and 'error'.`,
	)
	fs.StringSliceVar(
		&c.Subsystems,
		"log.subsystems",
		c.Subsystems,
		`
Each log has a 'subsystem' field where the log occured.

'--log.subsystems' enables all log levels for those given subsystems. This
can be useful to debug a particular subsystem without having to enable all
debug logs.

Such as you can enable 'store' logs, which include every local write and
remote merge, with '--log.subsystems store'.`,
	)
	fs.StringVar(
		&c.Path,
		"log.path",
		c.Path,
		`
Where to write logs. Either 'stderr', 'stdout' or a file path.

When a file path is given the file is created if it doesn't exist and logs are
appended, such as '--log.path /logs/node-6000.log'.`,
	)
}

type AccessLogConfig struct {
	// Enabled logs every HTTP request at 'info' level. Otherwise requests are
	// logged at 'debug' level, except server errors which are always logged
	// at 'warn'.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

func (c *AccessLogConfig) RegisterFlags(fs *pflag.FlagSet, prefix string) {
	fs.BoolVar(
		&c.Enabled,
		prefix+".access-log",
		c.Enabled,
		`
Whether to log every HTTP request at 'info' level.

Gossip requests arrive from every peer on each round, so this is disabled by
default.`,
	)
}
