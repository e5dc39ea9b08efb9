package lww

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGreater(t *testing.T) {
	t.Run("later timestamp", func(t *testing.T) {
		assert.True(t, Greater(Register{Timestamp: 200, WriterID: 1}, Register{Timestamp: 100, WriterID: 9}))
		assert.False(t, Greater(Register{Timestamp: 100, WriterID: 9}, Register{Timestamp: 200, WriterID: 1}))
	})

	t.Run("equal timestamp greater writer", func(t *testing.T) {
		assert.True(t, Greater(Register{Timestamp: 100, WriterID: 2}, Register{Timestamp: 100, WriterID: 1}))
		assert.False(t, Greater(Register{Timestamp: 100, WriterID: 1}, Register{Timestamp: 100, WriterID: 2}))
	})

	t.Run("identical", func(t *testing.T) {
		reg := Register{Value: 5, Timestamp: 100, WriterID: 1}
		assert.False(t, Greater(reg, reg))
		assert.False(t, reg.Greater(reg))
	})

	t.Run("value ignored", func(t *testing.T) {
		// The value never takes part in the ordering.
		a := Register{Value: 1, Timestamp: 100, WriterID: 1}
		b := Register{Value: 999, Timestamp: 100, WriterID: 1}
		assert.False(t, Greater(a, b))
		assert.False(t, Greater(b, a))
	})

	t.Run("strict total order", func(t *testing.T) {
		var regs []Register
		for ts := int64(0); ts != 4; ts++ {
			for id := uint64(0); id != 4; id++ {
				regs = append(regs, Register{Timestamp: ts, WriterID: id})
			}
		}

		for _, a := range regs {
			for _, b := range regs {
				if a == b {
					assert.False(t, Greater(a, b))
					continue
				}
				// Exactly one of a > b and b > a.
				assert.NotEqual(t, Greater(a, b), Greater(b, a), "%v %v", a, b)

				for _, c := range regs {
					if Greater(a, b) && Greater(b, c) {
						assert.True(t, Greater(a, c), "%v %v %v", a, b, c)
					}
				}
			}
		}
	})
}

func TestEntry(t *testing.T) {
	reg := Register{Value: 9, Timestamp: 100, WriterID: 2}
	entry := NewEntry("k", reg)
	assert.Equal(t, Entry{Key: "k", Timestamp: 100, WriterID: 2, Value: 9}, entry)
	assert.Equal(t, reg, entry.Register())
	assert.True(t, entry.Finite())
}
