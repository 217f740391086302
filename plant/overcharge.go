package plant

import "github.com/sarchlab/chargersim/hal"

// OverchargeModel raises voltage and temperature with every asserted charge
// output until the voltage pin reads above Threshold. From then on the latch
// is tripped and continued charging makes the voltage droop while the
// temperature keeps rising.
type OverchargeModel struct {
	Pins      hal.PinMap
	Threshold int

	FastChargeHeatsWhenOvercharged bool
}

// Name returns the variant name.
func (m *OverchargeModel) Name() string {
	return VariantOvercharge
}

// Update applies one iteration of the plant response.
func (m *OverchargeModel) Update(
	pins hal.PinReader,
	s *Sensors,
	latch *Latch,
	iteration uint64,
) {
	charge := asserted(pins, m.Pins.Charge)
	fast := asserted(pins, m.Pins.FastCharge)

	if latch.NotInOvercharge() &&
		pins.AnalogRead(m.Pins.Voltage) <= m.Threshold {
		if charge {
			s.Voltage++
			s.Temperature++
		}

		if fast {
			s.Voltage++
			s.Temperature++
		}

		return
	}

	latch.Trip(iteration)

	if charge {
		s.Voltage--
		s.Temperature++
	}

	if fast && m.FastChargeHeatsWhenOvercharged {
		s.Temperature++
	}
}
