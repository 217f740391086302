// Package harness drives a charger controller against a simulated battery,
// one iteration per virtual second.
package harness

import (
	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/sim"
)

// Controller is the firmware under test.
type Controller interface {
	// Setup is called once before the first iteration.
	Setup()

	// Loop is called once per iteration.
	Loop()
}

// HookPosIterationStart is raised before an iteration does anything. The item
// is the iteration number.
var HookPosIterationStart = &sim.HookPos{Name: "IterationStart"}

// HookPosIterationEnd is raised after the plant update with a Status item.
var HookPosIterationEnd = &sim.HookPos{Name: "IterationEnd"}

// HookPosOvercharge is raised, after HookPosIterationEnd, in the iteration
// that trips the overcharge latch. The item is the Status.
var HookPosOvercharge = &sim.HookPos{Name: "Overcharge"}

// Status is the observable state at the end of an iteration.
type Status struct {
	Iteration      uint64         `json:"iteration"`
	Time           sim.VTimeInSec `json:"time"`
	BatteryPresent hal.Level      `json:"battery_present"`
	Charging       hal.Level      `json:"charging"`
	FastCharging   hal.Level      `json:"fast_charging"`
	VoltagePin     int            `json:"voltage_pin"`
	ThermistorPin  int            `json:"thermistor_pin"`
	Sensors        plant.Sensors  `json:"sensors"`
	Phase          plant.Phase    `json:"phase"`
}
