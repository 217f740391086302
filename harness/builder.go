package harness

import (
	"time"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/sim"
)

// Builder can build drive loops.
type Builder struct {
	engine     sim.Engine
	store      *hal.Store
	pins       hal.PinMap
	controller Controller
	model      plant.Model

	graceIterations uint64
	maxIterations   uint64
	startSensors    plant.Sensors
	seedVoltage     int
	seedThermistor  int
	pace            time.Duration
}

// MakeBuilder creates a builder with the default grace period and starting
// battery state.
func MakeBuilder() Builder {
	return Builder{
		pins:            hal.DefaultPinMap(),
		graceIterations: 4,
		startSensors:    plant.Sensors{Voltage: 500, Temperature: 620},
	}
}

// WithEngine sets the engine that schedules the iterations.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithStore sets the pin store shared with the controller.
func (b Builder) WithStore(store *hal.Store) Builder {
	b.store = store
	return b
}

// WithPinMap sets the pin addresses.
func (b Builder) WithPinMap(pins hal.PinMap) Builder {
	b.pins = pins
	return b
}

// WithController sets the controller under test.
func (b Builder) WithController(c Controller) Builder {
	b.controller = c
	return b
}

// WithModel sets the plant model.
func (b Builder) WithModel(m plant.Model) Builder {
	b.model = m
	return b
}

// WithGraceIterations sets how many iterations pass before the tracked
// voltage is published to the voltage pin.
func (b Builder) WithGraceIterations(n uint64) Builder {
	b.graceIterations = n
	return b
}

// WithMaxIterations bounds the run. 0 runs until the context is done.
func (b Builder) WithMaxIterations(n uint64) Builder {
	b.maxIterations = n
	return b
}

// WithStartSensors sets the tracked battery state at iteration 0.
func (b Builder) WithStartSensors(s plant.Sensors) Builder {
	b.startSensors = s
	return b
}

// WithSeedPins sets the values written to the sensor pins before Setup
// returns control to the loop.
func (b Builder) WithSeedPins(voltage, thermistor int) Builder {
	b.seedVoltage = voltage
	b.seedThermistor = thermistor
	return b
}

// WithPace sets the wall-clock pause after every iteration.
func (b Builder) WithPace(d time.Duration) Builder {
	b.pace = d
	return b
}

// Build creates a new DriveLoop.
func (b Builder) Build(name string) *DriveLoop {
	b.parametersMustBeValid()

	d := &DriveLoop{
		store:           b.store,
		pins:            b.pins,
		controller:      b.controller,
		model:           b.model,
		graceIterations: b.graceIterations,
		maxIterations:   b.maxIterations,
		seedVoltage:     b.seedVoltage,
		seedThermistor:  b.seedThermistor,
		pace:            b.pace,
		sensors:         b.startSensors,
	}
	d.TickingComponent = sim.NewTickingComponent(name, b.engine, 1*sim.Hz, d)

	return d
}

func (b Builder) parametersMustBeValid() {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.store == nil {
		panic("pin store is not set")
	}

	if b.controller == nil {
		panic("controller is not set")
	}

	if b.model == nil {
		panic("plant model is not set")
	}

	if err := b.pins.Validate(); err != nil {
		panic(err)
	}
}
