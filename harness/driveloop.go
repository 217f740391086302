package harness

import (
	"context"
	"log"
	"time"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/sim"
)

// DriveLoop runs the controller and the plant model in lock step. Iteration n
// is handled at virtual time n seconds.
type DriveLoop struct {
	*sim.TickingComponent

	ctx        context.Context
	store      *hal.Store
	pins       hal.PinMap
	controller Controller
	model      plant.Model

	graceIterations uint64
	maxIterations   uint64
	seedVoltage     int
	seedThermistor  int
	pace            time.Duration

	sensors   plant.Sensors
	latch     plant.Latch
	iteration uint64
	started   bool
	last      Status
}

// Start calls the controller's Setup, seeds the sensor pins and schedules
// the first iteration. The loop stops early once ctx is done.
func (d *DriveLoop) Start(ctx context.Context) {
	if d.isStarted() {
		log.Panic("drive loop already started")
	}

	d.Lock()
	d.started = true
	d.Unlock()

	d.ctx = ctx

	d.controller.Setup()

	d.store.AnalogWrite(d.pins.Thermistor, d.seedThermistor)
	d.store.AnalogWrite(d.pins.Voltage, d.seedVoltage)

	d.TickNow()
}

// Tick runs one iteration. It returns false when the loop has stopped.
func (d *DriveLoop) Tick() bool {
	if d.shouldStop() {
		return false
	}

	iteration := d.iteration

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosIterationStart,
		Item:   iteration,
	})

	if iteration >= d.graceIterations {
		d.store.AnalogWrite(d.pins.Voltage, d.sensors.Voltage)
	}

	d.store.AnalogWrite(d.pins.Thermistor, d.sensors.Temperature)

	d.controller.Loop()

	wasCharging := d.latch.NotInOvercharge()
	d.model.Update(d.store, &d.sensors, &d.latch, iteration)

	status := d.status(iteration)

	d.Lock()
	d.last = status
	d.Unlock()

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosIterationEnd,
		Item:   status,
	})

	if wasCharging && !d.latch.NotInOvercharge() {
		d.InvokeHook(sim.HookCtx{
			Domain: d,
			Pos:    HookPosOvercharge,
			Item:   status,
		})
	}

	d.Lock()
	d.iteration++
	d.Unlock()

	d.wait()

	return true
}

func (d *DriveLoop) shouldStop() bool {
	if d.ctx != nil && d.ctx.Err() != nil {
		return true
	}

	return d.maxIterations > 0 && d.iteration >= d.maxIterations
}

func (d *DriveLoop) status(iteration uint64) Status {
	return Status{
		Iteration:      iteration,
		Time:           d.CurrentTime(),
		BatteryPresent: d.store.DigitalRead(d.pins.BatteryPresent),
		Charging:       d.store.DigitalRead(d.pins.Charge),
		FastCharging:   d.store.DigitalRead(d.pins.FastCharge),
		VoltagePin:     d.store.AnalogRead(d.pins.Voltage),
		ThermistorPin:  d.store.AnalogRead(d.pins.Thermistor),
		Sensors:        d.sensors,
		Phase:          d.latch.Phase(),
	}
}

func (d *DriveLoop) wait() {
	if d.pace <= 0 {
		return
	}

	timer := time.NewTimer(d.pace)
	defer timer.Stop()

	if d.ctx == nil {
		<-timer.C
		return
	}

	select {
	case <-timer.C:
	case <-d.ctx.Done():
	}
}

func (d *DriveLoop) isStarted() bool {
	d.Lock()
	defer d.Unlock()

	return d.started
}

// LoopState is a copy of the drive loop state taken between iterations.
type LoopState struct {
	Name            string
	Started         bool
	Iterations      uint64
	GraceIterations uint64
	MaxIterations   uint64
	Last            *Status
}

// State returns a copy of the loop state that may be read while the loop
// keeps running.
func (d *DriveLoop) State() any {
	d.Lock()
	defer d.Unlock()

	state := &LoopState{
		Name:            d.Name(),
		Started:         d.started,
		Iterations:      d.iteration,
		GraceIterations: d.graceIterations,
		MaxIterations:   d.maxIterations,
	}

	if d.iteration > 0 {
		last := d.last
		state.Last = &last
	}

	return state
}

// Iterations returns the number of completed iterations.
func (d *DriveLoop) Iterations() uint64 {
	d.Lock()
	defer d.Unlock()

	return d.iteration
}

// LastStatus returns the status of the latest completed iteration. The
// boolean is false before the first iteration completes.
func (d *DriveLoop) LastStatus() (Status, bool) {
	d.Lock()
	defer d.Unlock()

	return d.last, d.iteration > 0
}

// Latch returns the overcharge latch.
func (d *DriveLoop) Latch() *plant.Latch {
	return &d.latch
}

// Store returns the pin store the loop publishes to.
func (d *DriveLoop) Store() *hal.Store {
	return d.store
}

// MaxIterations returns the iteration limit, 0 for unbounded.
func (d *DriveLoop) MaxIterations() uint64 {
	return d.maxIterations
}
