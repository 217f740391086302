package hal

import "github.com/sarchlab/chargersim/sim"

// Builder can build pin stores.
type Builder struct {
	digitalDefault Level
	levels         map[int]Level
	latched        bool
}

// MakeBuilder creates a builder whose stores start with every pin at zero.
func MakeBuilder() Builder {
	return Builder{}
}

// WithDigitalDefault sets the initial level of every discrete pin.
func (b Builder) WithDigitalDefault(l Level) Builder {
	b.digitalDefault = l
	return b
}

// WithDigitalLevel sets the initial level of one discrete pin, overriding
// the default.
func (b Builder) WithDigitalLevel(addr int, l Level) Builder {
	levels := make(map[int]Level, len(b.levels)+1)
	for k, v := range b.levels {
		levels[k] = v
	}

	levels[addr] = l
	b.levels = levels

	return b
}

// WithLatchedDigital makes DigitalWrite a no-op, modelling discrete pins that
// are held by the hardware rather than driven by the controller.
func (b Builder) WithLatchedDigital() Builder {
	b.latched = true
	return b
}

// Build creates a new Store.
func (b Builder) Build() *Store {
	s := &Store{
		HookableBase: sim.NewHookableBase(),
		latched:      b.latched,
	}

	for i := range s.digital {
		s.digital[i] = b.digitalDefault
	}

	for addr, l := range b.levels {
		mustBeInRange("build", addr)
		s.digital[addr] = l
	}

	return s
}
