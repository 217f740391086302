package plant

import "fmt"

// Phase is the state of the overcharge latch.
type Phase int

// Latch phases.
const (
	Charging Phase = iota
	Overcharged
)

func (p Phase) String() string {
	switch p {
	case Charging:
		return "charging"
	case Overcharged:
		return "overcharged"
	default:
		return "unknown"
	}
}

// Latch records the one-way transition from normal charging to overcharge.
// Once tripped it stays tripped for the rest of the run.
type Latch struct {
	phase     Phase
	trippedAt uint64
}

// Phase returns the current phase.
func (l *Latch) Phase() Phase {
	return l.phase
}

// NotInOvercharge is true until the latch trips.
func (l *Latch) NotInOvercharge() bool {
	return l.phase == Charging
}

// Trip moves the latch to Overcharged. It reports whether this call caused
// the transition; later calls keep the first trip iteration.
func (l *Latch) Trip(iteration uint64) bool {
	if l.phase == Overcharged {
		return false
	}

	l.phase = Overcharged
	l.trippedAt = iteration

	return true
}

// TrippedAt returns the iteration of the transition, if it happened.
func (l *Latch) TrippedAt() (uint64, bool) {
	return l.trippedAt, l.phase == Overcharged
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "charging":
		*p = Charging
	case "overcharged":
		*p = Overcharged
	default:
		return fmt.Errorf("plant: unknown phase %q", text)
	}

	return nil
}
