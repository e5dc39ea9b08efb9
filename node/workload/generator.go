package workload

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cleuton/arquitetura360/pkg/log"
	"github.com/cleuton/arquitetura360/pkg/lww"
)

// Writer writes a register to the local store.
type Writer interface {
	Write(key string, reg lww.Register) bool
}

// Generator simulates devices reporting metrics, writing each value to the
// local store.
type Generator struct {
	writerID uint64
	writer   Writer
	clock    *lww.Clock

	config *Config

	rand *rand.Rand

	logger log.Logger
}

func NewGenerator(
	writerID uint64,
	writer Writer,
	clock *lww.Clock,
	config *Config,
	logger log.Logger,
) *Generator {
	return &Generator{
		writerID: writerID,
		writer:   writer,
		clock:    clock,
		config:   config,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger.WithSubsystem("workload"),
	}
}

// Run generates writes at the configured interval until the context is
// cancelled.
func (g *Generator) Run(ctx context.Context) {
	g.logger.Info(
		"starting workload",
		zap.Int("devices", g.config.Devices),
		zap.Strings("metrics", g.config.Metrics),
		zap.Duration("interval", g.config.Interval),
	)

	ticker := time.NewTicker(g.config.Interval)
	defer ticker.Stop()

	for {
		// Generate immediately on startup.
		g.Generate()

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Generate writes one value for every device and metric. Returns the number
// of installed writes.
func (g *Generator) Generate() int {
	installed := 0
	for device := 0; device != g.config.Devices; device++ {
		for _, metric := range g.config.Metrics {
			reg := lww.Register{
				Value:     float64(g.rand.Intn(g.config.MaxValue + 1)),
				Timestamp: g.clock.Now(),
				WriterID:  g.writerID,
			}
			if g.writer.Write(Key(device, metric), reg) {
				installed++
			}
		}
	}

	g.logger.Debug("generated values", zap.Int("installed", installed))

	return installed
}

// Key returns the store key for a devices metric.
func Key(device int, metric string) string {
	return fmt.Sprintf("device%d:%s", device, metric)
}
