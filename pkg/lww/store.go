package lww

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cleuton/arquitetura360/pkg/log"
)

// Store is a Last-Writer-Wins map from key to register.
//
// The store is the only owner of the nodes view of the mesh state. Local
// writes, remote merges and snapshots are serialised by a single mutex, held
// only while comparing and replacing registers.
type Store struct {
	registers map[string]Register

	// mu protects the above fields.
	mu sync.Mutex

	metrics *Metrics

	logger log.Logger
}

func NewStore(logger log.Logger) *Store {
	return &Store{
		registers: make(map[string]Register),
		metrics:   newMetrics(),
		logger:    logger.WithSubsystem("store"),
	}
}

// Write installs reg for key if the key has no register or reg is greater
// than the existing register. Otherwise the write is discarded.
//
// Returns whether reg was installed. A discarded write is not an error.
func (s *Store) Write(key string, reg Register) bool {
	s.mu.Lock()
	installed := s.installLocked(key, reg)
	entries := len(s.registers)
	s.mu.Unlock()

	s.metrics.Entries.Set(float64(entries))
	if installed {
		s.metrics.Writes.WithLabelValues("local", "installed").Inc()
	} else {
		s.metrics.Writes.WithLabelValues("local", "dropped").Inc()
	}

	s.logger.Info(
		"local write",
		zap.String("key", key),
		zap.Float64("value", reg.Value),
		zap.Int64("ts", reg.Timestamp),
		zap.Uint64("writer-id", reg.WriterID),
		zap.Bool("installed", installed),
	)

	return installed
}

// Merge applies each entry as a Write. The whole batch is applied while
// holding the lock so snapshots never see a partially merged batch.
//
// Entries for unknown keys are always installed, and entries that are not
// greater than the existing register are dropped. Returns the number of
// installed entries.
func (s *Store) Merge(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}

	s.mu.Lock()
	applied := 0
	for _, entry := range entries {
		if s.installLocked(entry.Key, entry.Register()) {
			applied++
		}
	}
	size := len(s.registers)
	s.mu.Unlock()

	s.metrics.Merges.Inc()
	s.metrics.Entries.Set(float64(size))
	s.metrics.Writes.WithLabelValues("remote", "installed").Add(float64(applied))
	s.metrics.Writes.WithLabelValues("remote", "dropped").Add(float64(len(entries) - applied))

	s.logger.Debug(
		"merged entries",
		zap.Int("entries", len(entries)),
		zap.Int("applied", applied),
	)

	return applied
}

// Snapshot returns a point-in-time copy of every register, sorted by key.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.registers))
	for key, reg := range s.registers {
		entries = append(entries, NewEntry(key, reg))
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// Get returns the register for the given key.
func (s *Store) Get(key string) (Register, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registers[key]
	return reg, ok
}

// Len returns the number of keys in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.registers)
}

func (s *Store) Metrics() *Metrics {
	return s.metrics
}

func (s *Store) installLocked(key string, reg Register) bool {
	existing, ok := s.registers[key]
	if ok && !reg.Greater(existing) {
		return false
	}
	s.registers[key] = reg
	return true
}
