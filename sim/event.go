package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event is something that happens at a point in simulated time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
}

// A Handler owns the state that its events change. Events are always handled
// one at a time, so a handler needs no locking against other events.
type Handler interface {
	Handle(e Event) error
}
