package simulation

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chargersim/config"
	"github.com/sarchlab/chargersim/controller"
	"github.com/sarchlab/chargersim/datarecording"
	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/harness"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/report"
)

type scriptedController struct {
	board *hal.Board
	pins  hal.PinMap
	loop  func(c *scriptedController)
	calls int
}

func (c *scriptedController) Setup() {
	c.board.PinMode(c.pins.Charge, hal.Output)
	c.board.DigitalWrite(c.pins.Charge, hal.High)
}

func (c *scriptedController) Loop() {
	if c.loop != nil {
		c.loop(c)
	}

	c.calls++
}

func scripted(
	loop func(c *scriptedController),
) (ControllerFactory, **scriptedController) {
	created := new(*scriptedController)

	return func(board *hal.Board, pins hal.PinMap) harness.Controller {
		c := &scriptedController{board: board, pins: pins, loop: loop}
		*created = c

		return c
	}, created
}

var _ = Describe("Simulation", func() {
	var (
		cfg     config.Config
		console *bytes.Buffer
		logs    *bytes.Buffer
		s       *Simulation
	)

	BeforeEach(func() {
		cfg = config.Default()
		cfg.Pace = 0
		cfg.MaxIterations = 100
		console = new(bytes.Buffer)
		logs = new(bytes.Buffer)
		s = nil
	})

	AfterEach(func() {
		if s != nil {
			Expect(s.Terminate()).To(Succeed())
		}
	})

	build := func(f ControllerFactory) {
		var err error

		s, err = MakeBuilder().
			WithConfig(cfg).
			WithController(f).
			WithConsole(console).
			WithLogOutput(logs).
			Build()
		Expect(err).NotTo(HaveOccurred())
	}

	It("should run the overcharge scenario", func() {
		f, _ := scripted(nil)
		build(f)

		status, err := s.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(status.Iteration).To(Equal(uint64(99)))
		Expect(status.Sensors).To(Equal(plant.Sensors{
			Voltage:     584,
			Temperature: 720,
		}))

		at, tripped := s.DriveLoop().Latch().TrippedAt()
		Expect(tripped).To(BeTrue())
		Expect(at).To(Equal(uint64(92)))

		Expect(console.String()).To(ContainSubstring(
			"Seconds elapsed: 92s\nBat pres: 1, charging: 1, fast: 0 \n\x1b[H"))

		Expect(s.Steps().StepCount(report.StepCharge)).To(Equal(uint64(100)))
		Expect(s.Steps().StepCount(report.StepOvercharged)).To(Equal(uint64(8)))
	})

	It("should run the reference charger to termination", func() {
		cfg.MaxIterations = 200
		build(ReferenceCharger)

		_, err := s.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		charger := s.Controller().(*controller.Charger)
		Expect(charger.State()).To(Equal(controller.Done))
		Expect(charger.Reason()).To(Equal(controller.ReasonDeltaV))
	})

	It("should keep charging with latched discrete pins", func() {
		cfg, _ = config.Preset("latched")
		cfg.Pace = 0
		cfg.MaxIterations = 2

		f, _ := scripted(func(c *scriptedController) {
			c.board.DigitalWrite(c.pins.Charge, hal.Low)
		})
		build(f)

		status, err := s.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(status.Charging).To(Equal(hal.High))
		Expect(status.FastCharging).To(Equal(hal.High))
		Expect(status.Sensors.Voltage).To(Equal(504))
	})

	It("should stop on a pin address out of range", func() {
		f, created := scripted(func(c *scriptedController) {
			if c.calls == 5 {
				c.board.DigitalWrite(hal.NumPins, hal.High)
			}
		})
		build(f)

		status, err := s.Run(context.Background())

		Expect(err).To(MatchError(hal.ErrOutOfRange))

		var outOfRange *hal.OutOfRangeError
		Expect(errors.As(err, &outOfRange)).To(BeTrue())
		Expect(outOfRange.Op).To(Equal("digitalWrite"))
		Expect(outOfRange.Addr).To(Equal(10))

		Expect(status.Iteration).To(Equal(uint64(4)))
		Expect((*created).calls).To(Equal(5))
	})

	It("should not swallow other controller panics", func() {
		f, _ := scripted(func(*scriptedController) { panic("boom") })
		build(f)

		Expect(func() { s.Run(context.Background()) }).To(PanicWith("boom"))
	})

	It("should not iterate once the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f, created := scripted(nil)
		build(f)

		_, err := s.Run(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.DriveLoop().Iterations()).To(BeZero())
		Expect((*created).calls).To(BeZero())
	})

	It("should stop a paused run when the context is done", func() {
		cfg.Pace = 10 * time.Millisecond
		cfg.MaxIterations = 0

		f, _ := scripted(nil)
		build(f)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		finished := make(chan error, 1)
		go func() {
			_, err := s.Run(ctx)
			finished <- err
		}()

		Eventually(s.DriveLoop().Iterations).Should(BeNumerically(">=", 3))

		s.Engine().Pause()
		cancel()

		Eventually(finished, 2*time.Second).Should(Receive(BeNil()))
		Expect(s.Engine().IsPaused()).To(BeFalse())
	})

	It("should record the run", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run.sqlite3")
		cfg.Record = true
		cfg.RecordPath = path
		cfg.MaxIterations = 10

		f, _ := scripted(nil)
		build(f)

		_, err := s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Terminate()).To(Succeed())
		s = nil

		reader, err := datarecording.NewReader(path)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		samples, err := report.LoadSamples(context.Background(), reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(samples).To(HaveLen(10))
		Expect(samples[9].Voltage).To(Equal(510))
	})

	It("should trace events and pins", func() {
		cfg.TraceEvents = true
		cfg.TracePins = true
		cfg.MaxIterations = 1

		f, _ := scripted(nil)
		build(f)

		_, err := s.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(logs.String()).To(ContainSubstring(
			"0.0000000000, sim.TickEvent -> DriveLoop"))
		Expect(logs.String()).To(ContainSubstring(
			"0.0000000000, analog[0] <- 620"))
	})

	It("should serve a monitor", func() {
		cfg.Monitor = true
		cfg.MaxIterations = 3

		f, _ := scripted(nil)
		build(f)

		Expect(s.Monitor()).NotTo(BeNil())
		Expect(s.Monitor().URL()).To(HavePrefix("http://localhost:"))

		_, err := s.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should not build an invalid configuration", func() {
		cfg.Clock = "sundial"

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(MatchError(config.ErrInvalid))
	})

	It("should not overwrite an existing recording", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run.sqlite3")
		cfg.Record = true
		cfg.RecordPath = path

		f, _ := scripted(nil)
		build(f)
		Expect(s.Terminate()).To(Succeed())
		s = nil

		_, err := MakeBuilder().
			WithConfig(cfg).
			WithController(f).
			WithConsole(nil).
			Build()

		Expect(err).To(MatchError(datarecording.ErrFileExists))
	})
})
