package hal

import (
	"sync"
	"time"

	"github.com/sarchlab/chargersim/sim"
)

// Clock is the timing part of the hardware abstraction.
type Clock interface {
	// Millis returns the milliseconds elapsed since the board started.
	Millis() uint64

	// Delay blocks for ms milliseconds.
	Delay(ms uint64)
}

// HostClock passes straight through to the host clock.
type HostClock struct {
	start time.Time
}

// NewHostClock creates a HostClock that starts counting now.
func NewHostClock() *HostClock {
	return &HostClock{start: time.Now()}
}

// Millis returns the wall-clock milliseconds since the clock was created.
func (c *HostClock) Millis() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}

// Delay sleeps.
func (c *HostClock) Delay(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// VirtualClock follows the simulation engine. Delays are added to the
// reported time but never block, so runs stay deterministic.
type VirtualClock struct {
	lock    sync.Mutex
	teller  sim.TimeTeller
	delayed uint64
}

// NewVirtualClock creates a clock that reads time from teller.
func NewVirtualClock(teller sim.TimeTeller) *VirtualClock {
	return &VirtualClock{teller: teller}
}

// Millis returns the virtual time in milliseconds plus all delays so far.
func (c *VirtualClock) Millis() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := uint64(float64(c.teller.CurrentTime())*1000 + 0.5)

	return now + c.delayed
}

// Delay advances the reported time without blocking.
func (c *VirtualClock) Delay(ms uint64) {
	c.lock.Lock()
	c.delayed += ms
	c.lock.Unlock()
}
