package log

import (
	"bytes"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes JSON log records to stderr, stdout or an append-only file.
//
// Records below the configured level are dropped, unless the logger's
// subsystem is one of the enabled subsystems, in which case every record is
// written.
type Logger interface {
	Subsystem() string
	// WithSubsystem returns a logger tagging records with the given
	// subsystem.
	WithSubsystem(s string) Logger
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
	// StdLogger adapts the logger for components that need a
	// standard library logger, such as http.Server.
	StdLogger(level zapcore.Level) *stdlog.Logger
}

// NewLoggerFromConfig creates a logger from the log configuration.
func NewLoggerFromConfig(conf Config) (Logger, error) {
	return NewLoggerWithPath(conf.Level, conf.Subsystems, conf.Path)
}

// NewLoggerWithPath creates a logger writing to path, which is either
// 'stderr', 'stdout' or a file. Files are created along with their parent
// directory and opened for append, so a restarted node keeps its history.
func NewLoggerWithPath(lvl string, enabledSubsystems []string, path string) (Logger, error) {
	level, err := parseLevel(lvl)
	if err != nil {
		return nil, err
	}

	sink, err := openSink(path)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	// The zap logger name carries the subsystem.
	encoderConfig.NameKey = "subsystem"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(
		"2006-01-02T15:04:05.999Z07:00",
	)

	return &logger{
		core: &unfilteredCore{zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			sink,
			zap.NewAtomicLevelAt(level),
		)},
		subsystem:         "main",
		verbose:           subsystemMatch("main", enabledSubsystems),
		enabledSubsystems: enabledSubsystems,
		errorOutput:       zapcore.Lock(os.Stderr),
	}, nil
}

func openSink(path string) (zapcore.WriteSyncer, error) {
	if path == "" {
		path = "stderr"
	}
	if path != "stderr" && path != "stdout" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %s: %w", path, err)
		}
	}
	// zap opens files with O_APPEND|O_CREATE.
	sink, _, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sink: %s: %w", path, err)
	}
	return sink, nil
}

type logger struct {
	core zapcore.Core

	subsystem string
	// verbose is set when the subsystem is enabled, so the level filter is
	// bypassed.
	verbose           bool
	enabledSubsystems []string

	errorOutput zapcore.WriteSyncer
}

func (l *logger) Subsystem() string {
	return l.subsystem
}

func (l *logger) WithSubsystem(s string) Logger {
	if s == l.subsystem {
		return l
	}

	clone := *l
	clone.subsystem = s
	clone.verbose = subsystemMatch(s, l.enabledSubsystems)
	return &clone
}

func (l *logger) Debug(msg string, fields ...zap.Field) {
	l.write(zap.DebugLevel, msg, fields)
}

func (l *logger) Info(msg string, fields ...zap.Field) {
	l.write(zap.InfoLevel, msg, fields)
}

func (l *logger) Warn(msg string, fields ...zap.Field) {
	l.write(zap.WarnLevel, msg, fields)
}

func (l *logger) Error(msg string, fields ...zap.Field) {
	l.write(zap.ErrorLevel, msg, fields)
}

func (l *logger) Sync() error {
	return l.core.Sync()
}

func (l *logger) StdLogger(level zapcore.Level) *stdlog.Logger {
	return stdlog.New(stdWriter(func(msg string) {
		l.write(level, msg, nil)
	}), "", 0)
}

func (l *logger) write(lvl zapcore.Level, msg string, fields []zap.Field) {
	if !l.verbose && !l.core.Enabled(lvl) {
		return
	}

	ce := l.core.Check(zapcore.Entry{
		LoggerName: l.subsystem,
		Time:       time.Now(),
		Level:      lvl,
		Message:    msg,
	}, nil)
	if ce == nil {
		return
	}
	ce.ErrorOutput = l.errorOutput
	ce.Write(fields...)
}

type nopLogger struct {
}

func NewNopLogger() Logger {
	return &nopLogger{}
}

func (l *nopLogger) Subsystem() string {
	return ""
}

func (l *nopLogger) WithSubsystem(_ string) Logger {
	return l
}

func (l *nopLogger) Debug(_ string, _ ...zap.Field) {
}

func (l *nopLogger) Info(_ string, _ ...zap.Field) {
}

func (l *nopLogger) Warn(_ string, _ ...zap.Field) {
}

func (l *nopLogger) Error(_ string, _ ...zap.Field) {
}

func (l *nopLogger) Sync() error {
	return nil
}

func (l *nopLogger) StdLogger(_ zapcore.Level) *stdlog.Logger {
	return stdlog.New(stdWriter(func(string) {}), "", 0)
}

// stdWriter passes each line written by a standard library logger to the
// wrapped function.
type stdWriter func(msg string)

func (w stdWriter) Write(p []byte) (int, error) {
	w(string(bytes.TrimSpace(p)))
	return len(p), nil
}

func subsystemMatch(subsystem string, enabled []string) bool {
	for _, s := range enabled {
		if subsystem == s {
			return true
		}
	}
	return false
}

func parseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zap.DebugLevel, nil
	case "info":
		return zap.InfoLevel, nil
	case "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zapcore.Level(0), fmt.Errorf("unsupported level: %s", s)
	}
}

// unfilteredCore wraps a core so Check never filters by level. The logger
// does its own level filtering so enabled subsystems can log below the
// configured level.
type unfilteredCore struct {
	zapcore.Core
}

func (c *unfilteredCore) With(fields []zap.Field) zapcore.Core {
	return &unfilteredCore{c.Core.With(fields)}
}

func (c *unfilteredCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(ent, c.Core)
}
