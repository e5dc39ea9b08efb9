package lww

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleuton/arquitetura360/pkg/log"
)

func newTestStore() *Store {
	return NewStore(log.NewNopLogger())
}

func TestStore_Write(t *testing.T) {
	t.Run("new key", func(t *testing.T) {
		s := newTestStore()
		assert.True(t, s.Write("k", Register{Value: 5, Timestamp: 100, WriterID: 1}))

		reg, ok := s.Get("k")
		require.True(t, ok)
		assert.Equal(t, Register{Value: 5, Timestamp: 100, WriterID: 1}, reg)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("greater replaces", func(t *testing.T) {
		s := newTestStore()
		s.Write("k", Register{Value: 5, Timestamp: 100, WriterID: 1})
		assert.True(t, s.Write("k", Register{Value: 6, Timestamp: 101, WriterID: 1}))

		reg, _ := s.Get("k")
		assert.Equal(t, 6.0, reg.Value)
	})

	t.Run("older discarded", func(t *testing.T) {
		s := newTestStore()
		s.Write("k", Register{Value: 5, Timestamp: 100, WriterID: 1})
		assert.False(t, s.Write("k", Register{Value: 6, Timestamp: 99, WriterID: 9}))

		reg, _ := s.Get("k")
		assert.Equal(t, 5.0, reg.Value)
	})

	t.Run("identical discarded", func(t *testing.T) {
		s := newTestStore()
		s.Write("k", Register{Value: 5, Timestamp: 100, WriterID: 1})
		assert.False(t, s.Write("k", Register{Value: 7, Timestamp: 100, WriterID: 1}))

		reg, _ := s.Get("k")
		assert.Equal(t, 5.0, reg.Value)
	})
}

// Tests local writes are logged at the default info level.
func TestStore_WriteLogged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.log")
	logger, err := log.NewLoggerWithPath("info", nil, path)
	require.NoError(t, err)

	s := NewStore(logger)
	s.Write("device1:temperature", Register{Value: 21.5, Timestamp: 100, WriterID: 6000})
	require.NoError(t, logger.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var record struct {
		Level     string  `json:"level"`
		Subsystem string  `json:"subsystem"`
		Msg       string  `json:"msg"`
		Key       string  `json:"key"`
		Value     float64 `json:"value"`
		Installed bool    `json:"installed"`
	}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
	assert.Equal(t, "info", record.Level)
	assert.Equal(t, "store", record.Subsystem)
	assert.Equal(t, "local write", record.Msg)
	assert.Equal(t, "device1:temperature", record.Key)
	assert.Equal(t, 21.5, record.Value)
	assert.True(t, record.Installed)
}

func TestStore_Merge(t *testing.T) {
	t.Run("tie break", func(t *testing.T) {
		a := newTestStore()
		a.Write("k", Register{Value: 5, Timestamp: 100, WriterID: 1})
		b := newTestStore()
		b.Write("k", Register{Value: 9, Timestamp: 100, WriterID: 2})

		aSnapshot := a.Snapshot()
		bSnapshot := b.Snapshot()
		a.Merge(bSnapshot)
		b.Merge(aSnapshot)

		for _, s := range []*Store{a, b} {
			reg, ok := s.Get("k")
			require.True(t, ok)
			assert.Equal(t, Register{Value: 9, Timestamp: 100, WriterID: 2}, reg)
		}
	})

	t.Run("stale overwrite", func(t *testing.T) {
		s := newTestStore()
		s.Write("k", Register{Value: 1, Timestamp: 200, WriterID: 1})

		applied := s.Merge([]Entry{
			{Key: "k", Timestamp: 150, WriterID: 9, Value: 999},
		})
		assert.Equal(t, 0, applied)

		reg, _ := s.Get("k")
		assert.Equal(t, Register{Value: 1, Timestamp: 200, WriterID: 1}, reg)
	})

	t.Run("empty", func(t *testing.T) {
		s := newTestStore()
		s.Write("k1", Register{Value: 1, Timestamp: 200, WriterID: 1})
		s.Write("k2", Register{Value: 2, Timestamp: 300, WriterID: 1})

		before := s.Snapshot()
		assert.Equal(t, 0, s.Merge(nil))
		assert.Equal(t, 0, s.Merge([]Entry{}))
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("unknown keys installed", func(t *testing.T) {
		s := newTestStore()
		applied := s.Merge([]Entry{
			{Key: "k1", Timestamp: 1, WriterID: 1, Value: 1},
			{Key: "k2", Timestamp: 0, WriterID: 0, Value: 2},
		})
		assert.Equal(t, 2, applied)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("idempotent", func(t *testing.T) {
		src := randomSnapshot(rand.New(rand.NewSource(1)), 50, 3)

		once := newTestStore()
		once.Merge(src)

		twice := newTestStore()
		twice.Merge(src)
		assert.Equal(t, 0, twice.Merge(src))

		assert.Equal(t, once.Snapshot(), twice.Snapshot())
	})

	t.Run("commutative", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(2))
		a := randomSnapshot(rnd, 50, 3)
		b := randomSnapshot(rnd, 50, 3)

		ab := newTestStore()
		ab.Merge(a)
		ab.Merge(b)

		ba := newTestStore()
		ba.Merge(b)
		ba.Merge(a)

		assert.Equal(t, ab.Snapshot(), ba.Snapshot())
	})

	t.Run("monotonic", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(3))
		s := newTestStore()

		for i := 0; i != 20; i++ {
			before := snapshotMap(s.Snapshot())
			s.Merge(randomSnapshot(rnd, 20, 4))
			after := snapshotMap(s.Snapshot())

			for key, reg := range after {
				prev, ok := before[key]
				if !ok || prev == reg {
					continue
				}
				assert.True(t, reg.Greater(prev), "key %s regressed", key)
			}
			// Keys are never removed.
			for key := range before {
				_, ok := after[key]
				assert.True(t, ok)
			}
		}
	})
}

func TestStore_Snapshot(t *testing.T) {
	s := newTestStore()
	s.Write("b", Register{Value: 2, Timestamp: 2, WriterID: 1})
	s.Write("a", Register{Value: 1, Timestamp: 1, WriterID: 1})
	s.Write("c", Register{Value: 3, Timestamp: 3, WriterID: 1})

	snapshot := s.Snapshot()
	assert.Equal(t, []Entry{
		{Key: "a", Timestamp: 1, WriterID: 1, Value: 1},
		{Key: "b", Timestamp: 2, WriterID: 1, Value: 2},
		{Key: "c", Timestamp: 3, WriterID: 1, Value: 3},
	}, snapshot)

	// Modifying the snapshot doesn't affect the store.
	snapshot[0].Value = 100
	reg, _ := s.Get("a")
	assert.Equal(t, 1.0, reg.Value)
}

// Tests that replicas receiving writes in any distribution converge once each
// has merged every other replicas snapshot, in any order.
func TestStore_Convergence(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))

	const numStores = 5

	var stores []*Store
	for i := 0; i != numStores; i++ {
		stores = append(stores, newTestStore())
	}

	for i := 0; i != 500; i++ {
		s := stores[rnd.Intn(numStores)]
		s.Write(
			fmt.Sprintf("k%d", rnd.Intn(30)),
			Register{
				Value:     float64(rnd.Intn(100)),
				Timestamp: int64(rnd.Intn(50)),
				WriterID:  uint64(rnd.Intn(numStores)),
			},
		)
	}

	// Merge every pair in a random order. Since gossip is transitive a single
	// pass in a random order isn't enough, so repeat.
	for round := 0; round != 2; round++ {
		var pairs [][2]int
		for i := 0; i != numStores; i++ {
			for j := 0; j != numStores; j++ {
				if i != j {
					pairs = append(pairs, [2]int{i, j})
				}
			}
		}
		rnd.Shuffle(len(pairs), func(i, j int) {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		})
		for _, p := range pairs {
			stores[p[1]].Merge(stores[p[0]].Snapshot())
		}
	}

	expected := stores[0].Snapshot()
	for _, s := range stores[1:] {
		assert.Equal(t, expected, s.Snapshot())
	}
}

// Tests concurrent local writes, merges and snapshots. Run with -race.
func TestStore_Concurrent(t *testing.T) {
	s := newTestStore()

	var wg sync.WaitGroup
	for w := 0; w != 4; w++ {
		wg.Add(1)
		go func(writerID uint64) {
			defer wg.Done()
			for ts := int64(0); ts != 200; ts++ {
				s.Write("k", Register{Value: float64(writerID), Timestamp: ts, WriterID: writerID})
			}
		}(uint64(w))
	}
	for m := 0; m != 4; m++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i != 50; i++ {
				s.Merge(randomSnapshot(rnd, 10, 200))
				_ = s.Snapshot()
			}
		}(int64(m))
	}
	wg.Wait()

	// Merges only touch keys k0 to k9, so writer 3 wins 'k' with the
	// greatest writer ID at the last timestamp.
	reg, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, Register{Value: 3, Timestamp: 199, WriterID: 3}, reg)
}

func randomSnapshot(rnd *rand.Rand, n int, writers int) []Entry {
	var entries []Entry
	for i := 0; i != n; i++ {
		entries = append(entries, Entry{
			Key:       fmt.Sprintf("k%d", rnd.Intn(n)),
			Timestamp: int64(rnd.Intn(20)),
			WriterID:  uint64(rnd.Intn(writers)),
			Value:     float64(rnd.Intn(1000)),
		})
	}
	return entries
}

func snapshotMap(entries []Entry) map[string]Register {
	m := make(map[string]Register)
	for _, e := range entries {
		m[e.Key] = e.Register()
	}
	return m
}
