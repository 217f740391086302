package report

import (
	"sync"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/harness"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/sim"
)

// Step names counted by StepCounter.
const (
	StepCharge      = "charge"
	StepFastCharge  = "fast_charge"
	StepIdle        = "idle"
	StepOvercharged = "overcharged"
)

// StepCounter counts how many iterations showed each output state.
type StepCounter struct {
	lock       sync.Mutex
	iterations uint64
	stepNames  []string
	stepCount  map[string]uint64
}

// NewStepCounter creates an empty counter.
func NewStepCounter() *StepCounter {
	return &StepCounter{stepCount: make(map[string]uint64)}
}

// Func counts iteration ends.
func (c *StepCounter) Func(ctx sim.HookCtx) {
	if ctx.Pos != harness.HookPosIterationEnd {
		return
	}

	s := ctx.Item.(harness.Status)

	c.lock.Lock()
	defer c.lock.Unlock()

	c.iterations++

	if s.Charging != hal.Low {
		c.count(StepCharge)
	}

	if s.FastCharging != hal.Low {
		c.count(StepFastCharge)
	}

	if s.Charging == hal.Low && s.FastCharging == hal.Low {
		c.count(StepIdle)
	}

	if s.Phase == plant.Overcharged {
		c.count(StepOvercharged)
	}
}

func (c *StepCounter) count(step string) {
	if _, ok := c.stepCount[step]; !ok {
		c.stepNames = append(c.stepNames, step)
	}

	c.stepCount[step]++
}

// Iterations returns the number of iterations seen.
func (c *StepCounter) Iterations() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.iterations
}

// StepNames returns the steps seen so far, in order of first appearance.
func (c *StepCounter) StepNames() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]string, len(c.stepNames))
	copy(names, c.stepNames)

	return names
}

// StepCount returns the number of iterations that showed a step.
func (c *StepCounter) StepCount(step string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.stepCount[step]
}
