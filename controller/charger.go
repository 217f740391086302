// Package controller provides a reference charger firmware that runs on the
// simulated board. It terminates charging on a negative voltage slope or on
// over-temperature.
package controller

import (
	"github.com/sarchlab/chargersim/hal"
)

// State is the charging state of the controller.
type State int

// Controller states.
const (
	Idle State = iota
	Charging
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Charging:
		return "charging"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Reasons for Done.
const (
	ReasonDeltaV      = "delta-v"
	ReasonTemperature = "temperature"
)

// Config holds the charging thresholds, in raw ADC units.
type Config struct {
	Pins hal.PinMap

	// FastChargeCutoff is the voltage from which only the normal charge
	// output stays on.
	FastChargeCutoff int

	// DeltaV is the drop below the peak voltage that ends charging.
	DeltaV int

	// MaxTemperature ends charging when reached.
	MaxTemperature int

	// MinValidVoltage is the lowest reading that is trusted. Anything below
	// is treated as the sensor settling.
	MinValidVoltage int

	Baud int
}

// DefaultConfig returns the thresholds used by the CLI.
func DefaultConfig() Config {
	return Config{
		Pins:             hal.DefaultPinMap(),
		FastChargeCutoff: 560,
		DeltaV:           2,
		MaxTemperature:   730,
		MinValidVoltage:  100,
		Baud:             9600,
	}
}

// Charger is a negative delta-V charge controller.
type Charger struct {
	board *hal.Board
	cfg   Config

	state       State
	reason      string
	peak        int
	chargeStart uint64
}

// NewCharger creates a charger that drives board.
func NewCharger(board *hal.Board, cfg Config) *Charger {
	return &Charger{board: board, cfg: cfg}
}

// State returns the current state.
func (c *Charger) State() State {
	return c.state
}

// Reason tells why charging ended. It is empty unless the state is Done.
func (c *Charger) Reason() string {
	return c.reason
}

// Peak returns the highest trusted voltage reading of the current charge.
func (c *Charger) Peak() int {
	return c.peak
}

// Setup configures the pins and the console.
func (c *Charger) Setup() {
	pins := c.cfg.Pins

	c.board.PinMode(pins.Charge, hal.Output)
	c.board.PinMode(pins.FastCharge, hal.Output)
	c.board.PinMode(pins.BatteryPresent, hal.Input)
	c.board.PinMode(pins.Thermistor, hal.Input)
	c.board.PinMode(pins.Voltage, hal.Input)

	c.board.Serial.Begin(c.cfg.Baud)

	c.outputs(hal.Low, hal.Low)
	c.state = Idle
}

// Loop runs one control step.
func (c *Charger) Loop() {
	pins := c.cfg.Pins
	voltage := c.board.AnalogRead(pins.Voltage)
	temperature := c.board.AnalogRead(pins.Thermistor)
	present := c.board.DigitalRead(pins.BatteryPresent) == hal.High

	switch {
	case !present:
		c.reset()
		c.outputs(hal.Low, hal.Low)
	case c.state == Done:
		c.outputs(hal.Low, hal.Low)
	default:
		c.charge(voltage, temperature)
	}

	c.print(voltage, temperature)
}

func (c *Charger) reset() {
	c.state = Idle
	c.reason = ""
	c.peak = 0
}

func (c *Charger) charge(voltage, temperature int) {
	if c.state == Idle {
		c.state = Charging
		c.chargeStart = c.board.Millis()
	}

	if voltage < c.cfg.MinValidVoltage {
		c.outputs(hal.High, hal.Low)
		return
	}

	if voltage > c.peak {
		c.peak = voltage
	}

	switch {
	case temperature >= c.cfg.MaxTemperature:
		c.finish(ReasonTemperature)
		return
	case c.peak-voltage >= c.cfg.DeltaV:
		c.finish(ReasonDeltaV)
		return
	}

	fast := hal.Low
	if voltage < c.cfg.FastChargeCutoff {
		fast = hal.High
	}

	c.outputs(hal.High, fast)
}

func (c *Charger) finish(reason string) {
	c.state = Done
	c.reason = reason
	c.outputs(hal.Low, hal.Low)
}

func (c *Charger) outputs(charge, fast hal.Level) {
	c.board.DigitalWrite(c.cfg.Pins.Charge, charge)
	c.board.DigitalWrite(c.cfg.Pins.FastCharge, fast)
}

func (c *Charger) print(voltage, temperature int) {
	s := c.board.Serial

	s.Print(c.state.String())
	s.Print(" V=")
	s.Print(voltage)
	s.Print(" T=")
	s.Print(temperature)

	if c.state != Idle {
		s.Print(" t=")
		s.PrintFloat(float64(c.board.Millis()-c.chargeStart)/1000, 1)
	}

	if c.reason != "" {
		s.Print(" (")
		s.Print(c.reason)
		s.Print(")")
	}

	s.Println("")
}
