package report

import (
	"log"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/sim"
)

// PinTracer logs every write to the pin store.
type PinTracer struct {
	logger *log.Logger
	time   sim.TimeTeller
}

// NewPinTracer creates a tracer that stamps writes with the time told by
// timeTeller.
func NewPinTracer(logger *log.Logger, timeTeller sim.TimeTeller) *PinTracer {
	return &PinTracer{logger: logger, time: timeTeller}
}

// Func logs pin writes.
func (t *PinTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != hal.HookPosDigitalWrite && ctx.Pos != hal.HookPosAnalogWrite {
		return
	}

	w := ctx.Item.(hal.PinWrite)

	suffix := ""
	if w.Ignored {
		suffix = " (ignored)"
	}

	t.logger.Printf("%.10f, %s[%d] <- %d%s",
		t.time.CurrentTime(), w.Kind, w.Addr, w.Value, suffix)
}
