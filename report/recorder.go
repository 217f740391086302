package report

import (
	"github.com/sarchlab/chargersim/datarecording"
	"github.com/sarchlab/chargersim/harness"
	"github.com/sarchlab/chargersim/sim"
)

// Table names used by Recorder.
const (
	IterationTable  = "iterations"
	OverchargeTable = "overcharge"
)

// Sample is one recorded iteration.
type Sample struct {
	Iteration      uint64
	Time           float64
	BatteryPresent int
	Charging       int
	FastCharging   int
	VoltagePin     int
	ThermistorPin  int
	Voltage        int
	Temperature    int
	Phase          string
}

// Onset records when the overcharge latch tripped.
type Onset struct {
	Iteration   uint64
	Time        float64
	VoltagePin  int
	Voltage     int
	Temperature int
}

// Recorder writes drive loop statuses into a data recorder.
type Recorder struct {
	recorder datarecording.DataRecorder
}

// NewRecorder creates the tables and returns a hook that fills them.
func NewRecorder(recorder datarecording.DataRecorder) *Recorder {
	recorder.CreateTable(IterationTable, Sample{})
	recorder.CreateTable(OverchargeTable, Onset{})

	return &Recorder{recorder: recorder}
}

// Func records iteration ends and overcharge onsets.
func (r *Recorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case harness.HookPosIterationEnd:
		r.recorder.InsertData(IterationTable,
			sampleFromStatus(ctx.Item.(harness.Status)))
	case harness.HookPosOvercharge:
		s := ctx.Item.(harness.Status)
		r.recorder.InsertData(OverchargeTable, Onset{
			Iteration:   s.Iteration,
			Time:        float64(s.Time),
			VoltagePin:  s.VoltagePin,
			Voltage:     s.Sensors.Voltage,
			Temperature: s.Sensors.Temperature,
		})
	}
}

func sampleFromStatus(s harness.Status) Sample {
	return Sample{
		Iteration:      s.Iteration,
		Time:           float64(s.Time),
		BatteryPresent: int(s.BatteryPresent),
		Charging:       int(s.Charging),
		FastCharging:   int(s.FastCharging),
		VoltagePin:     s.VoltagePin,
		ThermistorPin:  s.ThermistorPin,
		Voltage:        s.Sensors.Voltage,
		Temperature:    s.Sensors.Temperature,
		Phase:          s.Phase.String(),
	}
}
