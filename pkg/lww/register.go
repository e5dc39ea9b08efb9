package lww

import (
	"fmt"
	"math"
)

// Register is a single versioned value.
//
// A register is never modified once created. An update creates a new register
// which replaces the stored register only if it is greater.
type Register struct {
	// Value is the registers payload.
	Value float64 `json:"value"`

	// Timestamp is the logical time the value was written in milliseconds.
	// Timestamps from the same writer are non-decreasing.
	Timestamp int64 `json:"ts"`

	// WriterID is the ID of the node that wrote the value. It is only used to
	// break ties between equal timestamps.
	WriterID uint64 `json:"node_id"`
}

// Greater returns whether r should replace existing.
//
// r is greater if it has a later timestamp, or the timestamps are equal and
// r has a greater writer ID. This is a strict total order so Greater(r, r) is
// false.
func (r Register) Greater(existing Register) bool {
	return Greater(r, existing)
}

// Greater returns whether incoming should replace existing.
func Greater(incoming, existing Register) bool {
	if incoming.Timestamp != existing.Timestamp {
		return incoming.Timestamp > existing.Timestamp
	}
	return incoming.WriterID > existing.WriterID
}

func (r Register) String() string {
	return fmt.Sprintf("%.2f@%d nid=%d", r.Value, r.Timestamp, r.WriterID)
}

// Entry is a register with its key, used to exchange registers between nodes.
type Entry struct {
	Key       string  `json:"key" codec:"key" validate:"required"`
	Timestamp int64   `json:"ts" codec:"ts" validate:"gte=0"`
	WriterID  uint64  `json:"node_id" codec:"node_id"`
	Value     float64 `json:"value" codec:"value"`
}

// NewEntry creates an entry for the register with the given key.
func NewEntry(key string, reg Register) Entry {
	return Entry{
		Key:       key,
		Timestamp: reg.Timestamp,
		WriterID:  reg.WriterID,
		Value:     reg.Value,
	}
}

// Register returns the entry's register.
func (e Entry) Register() Register {
	return Register{
		Value:     e.Value,
		Timestamp: e.Timestamp,
		WriterID:  e.WriterID,
	}
}

// Finite returns whether the entry value is a finite number. NaN would break
// the equality of converged replicas.
func (e Entry) Finite() bool {
	return !math.IsNaN(e.Value) && !math.IsInf(e.Value, 0)
}
