// Package report turns drive loop hooks into console output, recordings and
// traces.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/sarchlab/chargersim/harness"
	"github.com/sarchlab/chargersim/sim"
)

// cursorHome moves the terminal cursor to the top-left corner.
const cursorHome = "\x1b[H"

// Console prints the per-iteration report.
type Console struct {
	lock sync.Mutex
	out  io.Writer

	// ShowSensors adds the tracked battery state to every report.
	ShowSensors bool

	// CursorHome rewinds the cursor after each report so that the next
	// one overwrites it.
	CursorHome bool
}

// NewConsole creates a console reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Func prints on iteration start and end.
func (c *Console) Func(ctx sim.HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch ctx.Pos {
	case harness.HookPosIterationStart:
		fmt.Fprintf(c.out, "Seconds elapsed: %ds\n", ctx.Item.(uint64))
	case harness.HookPosIterationEnd:
		c.printStatus(ctx.Item.(harness.Status))
	}
}

func (c *Console) printStatus(s harness.Status) {
	fmt.Fprintf(c.out, "Bat pres: %d, charging: %d, fast: %d \n",
		s.BatteryPresent, s.Charging, s.FastCharging)

	if c.ShowSensors {
		fmt.Fprintf(c.out, "Voltage: %d, temperature: %d, %s \n",
			s.Sensors.Voltage, s.Sensors.Temperature, s.Phase)
	}

	if c.CursorHome {
		io.WriteString(c.out, cursorHome)
	}
}
