package simulation

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rs/xid"

	"github.com/sarchlab/chargersim/config"
	"github.com/sarchlab/chargersim/controller"
	"github.com/sarchlab/chargersim/datarecording"
	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/harness"
	"github.com/sarchlab/chargersim/monitoring"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/report"
	"github.com/sarchlab/chargersim/sim"
)

// ControllerFactory creates the controller under test for a board.
type ControllerFactory func(board *hal.Board, pins hal.PinMap) harness.Controller

// ReferenceCharger builds the reference charger with its default thresholds.
func ReferenceCharger(board *hal.Board, pins hal.PinMap) harness.Controller {
	cfg := controller.DefaultConfig()
	cfg.Pins = pins

	return controller.NewCharger(board, cfg)
}

// Builder can be used to build a simulation.
type Builder struct {
	cfg           config.Config
	newController ControllerFactory
	console       io.Writer
	serialOut     io.Writer
	logOut        io.Writer
}

// MakeBuilder creates a builder with the default configuration, driving the
// reference charger and reporting to standard output.
func MakeBuilder() Builder {
	return Builder{
		cfg:           config.Default(),
		newController: ReferenceCharger,
		console:       os.Stdout,
		logOut:        os.Stderr,
	}
}

// WithConfig sets the run configuration.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithController sets how the controller under test is created.
func (b Builder) WithController(f ControllerFactory) Builder {
	b.newController = f
	return b
}

// WithConsole sets where the per-iteration report goes. Nil disables it.
func (b Builder) WithConsole(w io.Writer) Builder {
	b.console = w
	return b
}

// WithSerialOutput sets where the controller's serial console goes. Nil
// discards it unless a serial port is configured.
func (b Builder) WithSerialOutput(w io.Writer) Builder {
	b.serialOut = w
	return b
}

// WithLogOutput sets where event and pin traces go.
func (b Builder) WithLogOutput(w io.Writer) Builder {
	b.logOut = w
	return b
}

// Build builds the simulation. Resources opened on the way are released if
// a later step fails.
func (b Builder) Build() (s *Simulation, err error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	if b.newController == nil {
		return nil, fmt.Errorf("%w: no controller", config.ErrInvalid)
	}

	s = &Simulation{
		id:     xid.New().String(),
		cfg:    b.cfg,
		engine: sim.NewSerialEngine(),
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, s.Terminate())
			s = nil
		}
	}()

	s.store = b.buildStore()

	serial, err := b.buildSerial(s)
	if err != nil {
		return s, err
	}

	s.board = hal.NewBoard(s.store, b.buildClock(s.engine), serial)

	model, err := plant.New(plant.Config{
		Variant:                        b.cfg.Plant,
		Pins:                           b.cfg.Pins,
		Threshold:                      b.cfg.Threshold,
		FastChargeHeatsWhenOvercharged: b.cfg.FastChargeHeats,
	})
	if err != nil {
		return s, err
	}

	s.controller = b.newController(s.board, b.cfg.Pins)

	s.loop = harness.MakeBuilder().
		WithEngine(s.engine).
		WithStore(s.store).
		WithPinMap(b.cfg.Pins).
		WithController(s.controller).
		WithModel(model).
		WithGraceIterations(b.cfg.GraceIterations).
		WithMaxIterations(b.cfg.MaxIterations).
		WithStartSensors(plant.Sensors{
			Voltage:     b.cfg.StartVoltage,
			Temperature: b.cfg.StartTemperature,
		}).
		WithSeedPins(b.cfg.SeedVoltage, b.cfg.SeedThermistor).
		WithPace(b.cfg.Pace).
		Build("DriveLoop")

	b.attachReporters(s)

	if err := b.attachRecorder(s); err != nil {
		return s, err
	}

	if err := b.attachMonitor(s); err != nil {
		return s, err
	}

	return s, nil
}

func (b Builder) buildStore() *hal.Store {
	sb := hal.MakeBuilder().WithDigitalDefault(b.cfg.DigitalDefault)

	if b.cfg.BatteryPresent {
		sb = sb.WithDigitalLevel(b.cfg.Pins.BatteryPresent, hal.High)
	}

	if b.cfg.LatchedDigital {
		sb = sb.WithLatchedDigital()
	}

	return sb.Build()
}

func (b Builder) buildClock(engine sim.TimeTeller) hal.Clock {
	if b.cfg.Clock == config.ClockHost {
		return hal.NewHostClock()
	}

	return hal.NewVirtualClock(engine)
}

func (b Builder) buildSerial(s *Simulation) (*hal.Serial, error) {
	out := b.serialOut
	if out == nil {
		out = io.Discard
	}

	if b.cfg.SerialPort == "" {
		return hal.NewSerial(out), nil
	}

	port, err := hal.OpenSerialPort(b.cfg.SerialPort, b.cfg.SerialBaud)
	if err != nil {
		return nil, err
	}

	s.closers = append(s.closers, port)

	return hal.NewSerial(io.MultiWriter(out, port)), nil
}

func (b Builder) attachReporters(s *Simulation) {
	s.steps = report.NewStepCounter()
	s.loop.AcceptHook(s.steps)

	if b.console != nil {
		console := report.NewConsole(b.console)
		console.CursorHome = b.cfg.CursorHome
		console.ShowSensors = b.cfg.ShowSensors
		s.loop.AcceptHook(console)
	}

	logger := log.New(b.logOut, "", 0)

	if b.cfg.TraceEvents {
		s.engine.AcceptHook(sim.NewEventLogger(logger))
	}

	if b.cfg.TracePins {
		s.store.AcceptHook(report.NewPinTracer(logger, s.engine))
	}
}

func (b Builder) attachRecorder(s *Simulation) error {
	if !b.cfg.Record {
		return nil
	}

	recorder, err := datarecording.NewDataRecorder(b.cfg.RecordPath)
	if err != nil {
		return err
	}

	s.recorder = recorder
	s.loop.AcceptHook(report.NewRecorder(recorder))
	s.engine.RegisterSimulationEndHandler(flushOnEnd{recorder})

	return nil
}

func (b Builder) attachMonitor(s *Simulation) error {
	if !b.cfg.Monitor {
		return nil
	}

	m := monitoring.NewMonitor()
	if b.cfg.MonitorPort > 0 {
		m.WithPortNumber(b.cfg.MonitorPort)
	}

	m.RegisterEngine(s.engine)
	m.RegisterComponent(s.loop)
	m.RegisterPins(s.store)
	m.RegisterStatus(s.loop)

	if b.cfg.MaxIterations > 0 {
		s.progress = m.CreateProgressBar("Iterations", b.cfg.MaxIterations)
		s.loop.AcceptHook(progressTracker{s.progress})
	}

	if _, err := m.StartServer(); err != nil {
		return err
	}

	s.monitor = m

	if b.cfg.OpenBrowser {
		if err := m.OpenInBrowser(); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return nil
}

type flushOnEnd struct {
	recorder datarecording.DataRecorder
}

func (h flushOnEnd) Handle(_ sim.VTimeInSec) {
	h.recorder.Flush()
}

type progressTracker struct {
	bar *monitoring.ProgressBar
}

func (h progressTracker) Func(ctx sim.HookCtx) {
	if ctx.Pos == harness.HookPosIterationEnd {
		h.bar.IncrementFinished(1)
	}
}
