package lww

import (
	"sync"
	"time"
)

// Clock returns write timestamps in milliseconds that never decrease, even if
// the wall clock moves backwards.
type Clock struct {
	last int64
	mu   sync.Mutex

	now func() time.Time
}

func NewClock() *Clock {
	return &Clock{
		now: time.Now,
	}
}

// Now returns the current wall clock time in milliseconds, or the last
// returned timestamp if the wall clock is behind it.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts < c.last {
		return c.last
	}
	c.last = ts
	return ts
}
