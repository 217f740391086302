package report

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/harness"
	"github.com/sarchlab/chargersim/plant"
	"github.com/sarchlab/chargersim/sim"
)

var _ = Describe("Console", func() {
	var (
		out     *bytes.Buffer
		console *Console
		status  harness.Status
	)

	BeforeEach(func() {
		out = new(bytes.Buffer)
		console = NewConsole(out)
		status = harness.Status{
			Iteration:      3,
			BatteryPresent: hal.High,
			Charging:       hal.High,
			FastCharging:   hal.Low,
			Sensors:        plant.Sensors{Voltage: 503, Temperature: 623},
			Phase:          plant.Charging,
		}
	})

	report := func() {
		console.Func(sim.HookCtx{
			Pos:  harness.HookPosIterationStart,
			Item: uint64(3),
		})
		console.Func(sim.HookCtx{
			Pos:  harness.HookPosIterationEnd,
			Item: status,
		})
	}

	It("should print elapsed seconds and the outputs", func() {
		report()

		Expect(out.String()).To(Equal(
			"Seconds elapsed: 3s\n" +
				"Bat pres: 1, charging: 1, fast: 0 \n"))
	})

	It("should print the tracked sensors", func() {
		console.ShowSensors = true

		report()

		Expect(out.String()).To(ContainSubstring(
			"Voltage: 503, temperature: 623, charging \n"))
	})

	It("should rewind the cursor", func() {
		console.CursorHome = true

		report()

		Expect(out.String()).To(HaveSuffix(" \n\x1b[H"))
	})

	It("should ignore other hook positions", func() {
		console.Func(sim.HookCtx{Pos: harness.HookPosOvercharge, Item: status})

		Expect(out.Len()).To(BeZero())
	})
})
