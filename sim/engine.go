package sim

// TimeTeller tells the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler accepts events to run later.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler runs once after the last iteration of a run.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine runs the events of one simulation. The drive loop schedules its
// ticks on it and the monitor holds it with Pause.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes events until none are left.
	Run() error

	// Pause blocks Run before its next event until Continue is called.
	Pause()
	Continue()
}
