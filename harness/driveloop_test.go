package harness

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/sim"
)

type hookRecorder struct {
	starts      []uint64
	ends        []Status
	overcharges []Status
	onEnd       func(Status)
}

func (h *hookRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosIterationStart:
		h.starts = append(h.starts, ctx.Item.(uint64))
	case HookPosIterationEnd:
		status := ctx.Item.(Status)
		h.ends = append(h.ends, status)
		if h.onEnd != nil {
			h.onEnd(status)
		}
	case HookPosOvercharge:
		h.overcharges = append(h.overcharges, ctx.Item.(Status))
	}
}

var _ = Describe("DriveLoop", func() {
	var (
		mockCtrl   *gomock.Controller
		engine     *sim.SerialEngine
		store      *hal.Store
		pins       hal.PinMap
		controller *MockController
		recorder   *hookRecorder
		builder    Builder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		store = hal.MakeBuilder().Build()
		pins = hal.DefaultPinMap()
		controller = NewMockController(mockCtrl)
		recorder = &hookRecorder{}

		model, err := plant.New(plant.Config{Pins: pins, Threshold: 591})
		Expect(err).NotTo(HaveOccurred())

		builder = MakeBuilder().
			WithEngine(engine).
			WithStore(store).
			WithPinMap(pins).
			WithController(controller).
			WithModel(model)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	run := func(d *DriveLoop, ctx context.Context) {
		d.AcceptHook(recorder)
		d.Start(ctx)
		Expect(engine.Run()).To(Succeed())
	}

	chargeInSetup := func() {
		controller.EXPECT().Setup().Do(func() {
			store.DigitalWrite(pins.Charge, hal.High)
		})
	}

	It("should call setup once before any loop", func() {
		gomock.InOrder(
			controller.EXPECT().Setup(),
			controller.EXPECT().Loop().Times(3),
		)

		d := builder.WithMaxIterations(3).Build("DriveLoop")
		run(d, context.Background())

		Expect(d.Iterations()).To(Equal(uint64(3)))
	})

	It("should count iterations monotonically with virtual time", func() {
		controller.EXPECT().Setup()
		controller.EXPECT().Loop().Times(10)

		d := builder.WithMaxIterations(10).Build("DriveLoop")
		run(d, context.Background())

		Expect(recorder.starts).To(HaveLen(10))
		for i, s := range recorder.ends {
			Expect(recorder.starts[i]).To(Equal(uint64(i)))
			Expect(s.Iteration).To(Equal(uint64(i)))
			Expect(s.Time).To(Equal(sim.VTimeInSec(i)))
		}
	})

	It("should seed the sensor pins before setup returns", func() {
		controller.EXPECT().Setup()
		controller.EXPECT().Loop().Do(func() {
			Expect(store.AnalogRead(pins.Voltage)).To(Equal(42))
		})

		d := builder.
			WithSeedPins(42, 7).
			WithMaxIterations(1).
			Build("DriveLoop")
		run(d, context.Background())
	})

	It("should hold the voltage pin during the grace period", func() {
		var seen []int

		chargeInSetup()
		controller.EXPECT().Loop().Do(func() {
			seen = append(seen, store.AnalogRead(pins.Voltage))
		}).Times(6)

		d := builder.WithMaxIterations(6).Build("DriveLoop")
		run(d, context.Background())

		Expect(seen).To(Equal([]int{0, 0, 0, 0, 504, 505}))
	})

	It("should publish the temperature from the first iteration", func() {
		var seen []int

		chargeInSetup()
		controller.EXPECT().Loop().Do(func() {
			seen = append(seen, store.AnalogRead(pins.Thermistor))
		}).Times(3)

		d := builder.WithMaxIterations(3).Build("DriveLoop")
		run(d, context.Background())

		Expect(seen).To(Equal([]int{620, 621, 622}))
	})

	It("should trip the overcharge latch at iteration 92", func() {
		chargeInSetup()
		controller.EXPECT().Loop().Times(100)

		d := builder.WithMaxIterations(100).Build("DriveLoop")
		run(d, context.Background())

		Expect(recorder.overcharges).To(HaveLen(1))
		onset := recorder.overcharges[0]
		Expect(onset.Iteration).To(Equal(uint64(92)))
		Expect(onset.VoltagePin).To(Equal(592))
		Expect(onset.Sensors).To(Equal(plant.Sensors{
			Voltage:     591,
			Temperature: 713,
		}))
		Expect(onset.Phase).To(Equal(plant.Overcharged))

		for _, s := range recorder.ends[:92] {
			Expect(s.Phase).To(Equal(plant.Charging))
			Expect(s.VoltagePin).To(BeNumerically("<=", 591))
		}

		for i := 93; i < 100; i++ {
			prev := recorder.ends[i-1].Sensors
			curr := recorder.ends[i].Sensors
			Expect(curr.Voltage).To(Equal(prev.Voltage - 1))
			Expect(curr.Temperature).To(Equal(prev.Temperature + 1))
			Expect(recorder.ends[i].Phase).To(Equal(plant.Overcharged))
		}

		last, ok := d.LastStatus()
		Expect(ok).To(BeTrue())
		Expect(last.Sensors).To(Equal(plant.Sensors{
			Voltage:     584,
			Temperature: 720,
		}))

		at, tripped := d.Latch().TrippedAt()
		Expect(tripped).To(BeTrue())
		Expect(at).To(Equal(uint64(92)))
	})

	It("should report the charge outputs the controller set", func() {
		controller.EXPECT().Setup().Do(func() {
			store.DigitalWrite(pins.BatteryPresent, hal.High)
		})
		controller.EXPECT().Loop().Do(func() {
			store.DigitalWrite(pins.FastCharge, hal.High)
		})

		d := builder.WithMaxIterations(1).Build("DriveLoop")
		run(d, context.Background())

		Expect(recorder.ends[0].BatteryPresent).To(Equal(hal.High))
		Expect(recorder.ends[0].Charging).To(Equal(hal.Low))
		Expect(recorder.ends[0].FastCharging).To(Equal(hal.High))
		Expect(recorder.ends[0].Sensors).To(Equal(plant.Sensors{
			Voltage:     501,
			Temperature: 621,
		}))
	})

	It("should keep charging when the discrete pins are latched high", func() {
		store = hal.MakeBuilder().
			WithDigitalDefault(hal.High).
			WithLatchedDigital().
			Build()

		controller.EXPECT().Setup().Do(func() {
			store.DigitalWrite(pins.Charge, hal.Low)
			store.DigitalWrite(pins.FastCharge, hal.Low)
		})
		controller.EXPECT().Loop().Times(2)

		d := builder.WithStore(store).WithMaxIterations(2).Build("DriveLoop")
		run(d, context.Background())

		Expect(recorder.ends[1].Sensors).To(Equal(plant.Sensors{
			Voltage:     504,
			Temperature: 624,
		}))
	})

	It("should stop at an iteration boundary when the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		recorder.onEnd = func(s Status) {
			if s.Iteration == 10 {
				cancel()
			}
		}

		controller.EXPECT().Setup()
		controller.EXPECT().Loop().Times(11)

		d := builder.Build("DriveLoop")
		run(d, ctx)

		Expect(d.Iterations()).To(Equal(uint64(11)))
		Expect(recorder.ends).To(HaveLen(11))
	})

	It("should refuse to start twice", func() {
		controller.EXPECT().Setup()

		d := builder.WithMaxIterations(1).Build("DriveLoop")
		d.Start(context.Background())

		Expect(func() { d.Start(context.Background()) }).To(Panic())
	})

	It("should report no status before the first iteration", func() {
		d := builder.Build("DriveLoop")

		_, ok := d.LastStatus()
		Expect(ok).To(BeFalse())
	})

	It("should copy its state", func() {
		d := builder.WithMaxIterations(3).Build("DriveLoop")

		before := d.State().(*LoopState)
		Expect(before.Started).To(BeFalse())
		Expect(before.Last).To(BeNil())

		chargeInSetup()
		controller.EXPECT().Loop().Times(3)
		run(d, context.Background())

		after := d.State().(*LoopState)
		Expect(after.Name).To(Equal("DriveLoop"))
		Expect(after.Started).To(BeTrue())
		Expect(after.Iterations).To(Equal(uint64(3)))
		Expect(after.GraceIterations).To(Equal(uint64(4)))
		Expect(after.Last.Iteration).To(Equal(uint64(2)))
		Expect(after.Last.Charging).To(Equal(hal.High))
		Expect(before.Iterations).To(BeZero())
	})

	It("should not build without a controller", func() {
		Expect(func() {
			builder.WithController(nil).Build("DriveLoop")
		}).To(Panic())
	})
})
