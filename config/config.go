// Package config holds the settings of a simulation run.
package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/plant"
)

// ErrInvalid is matched by every validation error.
var ErrInvalid = errors.New("config: invalid configuration")

// ErrUnknownPreset is returned for preset names that do not exist.
var ErrUnknownPreset = errors.New("config: unknown preset")

// Clock kinds.
const (
	ClockVirtual = "virtual"
	ClockHost    = "host"
)

// Config describes one run.
type Config struct {
	Plant           string
	Pins            hal.PinMap
	Threshold       int
	FastChargeHeats bool

	GraceIterations  uint64
	MaxIterations    uint64
	StartVoltage     int
	StartTemperature int
	SeedVoltage      int
	SeedThermistor   int
	Pace             time.Duration

	DigitalDefault hal.Level
	LatchedDigital bool
	BatteryPresent bool

	Clock      string
	SerialPort string
	SerialBaud int

	Record      bool
	RecordPath  string
	Monitor     bool
	MonitorPort int
	OpenBrowser bool

	CursorHome  bool
	ShowSensors bool
	TraceEvents bool
	TracePins   bool
}

// Default returns the settings of the overcharge preset.
func Default() Config {
	return Config{
		Plant:            plant.VariantOvercharge,
		Pins:             hal.DefaultPinMap(),
		Threshold:        591,
		GraceIterations:  4,
		StartVoltage:     500,
		StartTemperature: 620,
		Pace:             time.Second,
		DigitalDefault:   hal.Low,
		BatteryPresent:   true,
		Clock:            ClockVirtual,
		SerialBaud:       9600,
		CursorHome:       true,
	}
}

type preset struct {
	description string
	apply       func(c *Config)
}

var presets = map[string]preset{
	"overcharge": {
		description: "battery with overcharge detection and voltage droop",
		apply:       func(*Config) {},
	},
	"latched": {
		description: "overcharge plant with discrete pins held high by hardware",
		apply: func(c *Config) {
			c.DigitalDefault = hal.High
			c.LatchedDigital = true
		},
	},
	"linear": {
		description: "voltage integrates the charge outputs, no thermal response",
		apply: func(c *Config) {
			c.Plant = plant.VariantLinear
		},
	},
}

// PresetNames lists the presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// PresetDescription returns a one-line description of a preset.
func PresetDescription(name string) string {
	return presets[name].description
}

// Preset returns the default configuration modified by the named preset.
func Preset(name string) (Config, error) {
	p, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	c := Default()
	p.apply(&c)

	return c, nil
}

// Validate checks the configuration for settings that cannot run.
func (c Config) Validate() error {
	if err := c.Pins.Validate(); err != nil {
		return fmt.Errorf("config: pins: %w", err)
	}

	if c.Plant != "" && !slices.Contains(plant.Variants(), c.Plant) {
		return fmt.Errorf("config: plant: %w: %q",
			plant.ErrUnknownVariant, c.Plant)
	}

	switch {
	case c.DigitalDefault != hal.Low && c.DigitalDefault != hal.High:
		return invalid("digital default must be 0 or 1, got %d",
			c.DigitalDefault)
	case c.Pace < 0:
		return invalid("pace must not be negative, got %s", c.Pace)
	case c.Clock != ClockVirtual && c.Clock != ClockHost:
		return invalid("clock must be %q or %q, got %q",
			ClockVirtual, ClockHost, c.Clock)
	case c.SerialPort != "" && c.SerialBaud <= 0:
		return invalid("serial baud must be positive, got %d", c.SerialBaud)
	case c.MonitorPort < 0 || c.MonitorPort > 65535:
		return invalid("monitor port %d out of range", c.MonitorPort)
	case c.OpenBrowser && !c.Monitor:
		return invalid("open browser requires the monitor")
	case c.RecordPath != "" && !c.Record:
		return invalid("record path set without recording")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
