package plant

import "github.com/sarchlab/chargersim/hal"

// LinearModel only integrates the charge outputs into the voltage. It has no
// thermal coupling and never trips the latch.
type LinearModel struct {
	Pins hal.PinMap
}

// Name returns the variant name.
func (m *LinearModel) Name() string {
	return VariantLinear
}

// Update applies one iteration of the plant response.
func (m *LinearModel) Update(
	pins hal.PinReader,
	s *Sensors,
	_ *Latch,
	_ uint64,
) {
	if asserted(pins, m.Pins.Charge) {
		s.Voltage++
	}

	if asserted(pins, m.Pins.FastCharge) {
		s.Voltage++
	}
}
