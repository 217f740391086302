package hal

import (
	"errors"
	"fmt"
)

// ErrInvalidPinMap is returned for pin maps that cannot be used.
var ErrInvalidPinMap = errors.New("hal: invalid pin map")

// PinMap is the address contract between the harness and the controller.
type PinMap struct {
	Charge         int `json:"charge"`
	FastCharge     int `json:"fast_charge"`
	BatteryPresent int `json:"battery_present"`
	Thermistor     int `json:"thermistor"`
	Voltage        int `json:"voltage"`
}

// DefaultPinMap returns the addresses the reference controller is wired to.
func DefaultPinMap() PinMap {
	return PinMap{
		Charge:         2,
		FastCharge:     3,
		BatteryPresent: 4,
		Thermistor:     0,
		Voltage:        1,
	}
}

// Validate checks that every address is in range and that pins of the same
// kind do not share an address.
func (m PinMap) Validate() error {
	named := []struct {
		name string
		addr int
	}{
		{"charge", m.Charge},
		{"fast_charge", m.FastCharge},
		{"battery_present", m.BatteryPresent},
		{"thermistor", m.Thermistor},
		{"voltage", m.Voltage},
	}

	for _, p := range named {
		if p.addr < 0 || p.addr >= NumPins {
			return fmt.Errorf("%w: %s pin %d out of range [0, %d)",
				ErrInvalidPinMap, p.name, p.addr, NumPins)
		}
	}

	if m.Charge == m.FastCharge ||
		m.Charge == m.BatteryPresent ||
		m.FastCharge == m.BatteryPresent {
		return fmt.Errorf("%w: discrete pins must be distinct", ErrInvalidPinMap)
	}

	if m.Thermistor == m.Voltage {
		return fmt.Errorf("%w: analog pins must be distinct", ErrInvalidPinMap)
	}

	return nil
}
