// Package plant models how the simulated battery answers to the charger
// outputs.
package plant

import (
	"errors"
	"fmt"

	"github.com/sarchlab/chargersim/hal"
)

// Variant names accepted by New.
const (
	VariantOvercharge = "overcharge"
	VariantLinear     = "linear"
)

// ErrUnknownVariant is returned by New for an unsupported variant name.
var ErrUnknownVariant = errors.New("plant: unknown model variant")

// Sensors is the battery state tracked between iterations, in raw ADC units.
type Sensors struct {
	Voltage     int `json:"voltage"`
	Temperature int `json:"temperature"`
}

// A Model advances the tracked sensors by one iteration from the actuator
// pins the controller has just written.
type Model interface {
	Name() string
	Update(pins hal.PinReader, s *Sensors, latch *Latch, iteration uint64)
}

// Config selects and parameterises a model.
type Config struct {
	Variant   string
	Pins      hal.PinMap
	Threshold int

	// FastChargeHeatsWhenOvercharged makes an asserted fast-charge output
	// keep heating the battery after the overcharge latch has tripped.
	FastChargeHeatsWhenOvercharged bool
}

// Variants lists the model names New accepts.
func Variants() []string {
	return []string{VariantOvercharge, VariantLinear}
}

// New creates the model named by cfg.Variant. An empty name selects the
// overcharge model.
func New(cfg Config) (Model, error) {
	if err := cfg.Pins.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Variant {
	case VariantOvercharge, "":
		return &OverchargeModel{
			Pins:                           cfg.Pins,
			Threshold:                      cfg.Threshold,
			FastChargeHeatsWhenOvercharged: cfg.FastChargeHeatsWhenOvercharged,
		}, nil
	case VariantLinear:
		return &LinearModel{Pins: cfg.Pins}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, cfg.Variant)
	}
}

func asserted(pins hal.PinReader, addr int) bool {
	return pins.DigitalRead(addr) != hal.Low
}
