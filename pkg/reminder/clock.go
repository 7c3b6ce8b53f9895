package reminder

import (
	"sync"
	"time"
)

// Clock supplies the current time in epoch milliseconds
type Clock interface {
	Now() int64
}

// RealClock reads the wall clock
type RealClock struct{}

// Now returns the current time in epoch milliseconds
func (RealClock) Now() int64 {
	return time.Now().UnixMilli()
}

// ManualClock is a Clock for tests that only moves when told to
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a ManualClock fixed at now (epoch ms)
func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the clock's current time
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now
func (c *ManualClock) Set(now int64) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d.Milliseconds()
	c.mu.Unlock()
}
