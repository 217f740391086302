package report

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/sim"
)

type fixedTime sim.VTimeInSec

func (t fixedTime) CurrentTime() sim.VTimeInSec {
	return sim.VTimeInSec(t)
}

var _ = Describe("PinTracer", func() {
	var (
		buf   *bytes.Buffer
		store *hal.Store
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		store = hal.MakeBuilder().WithLatchedDigital().Build()
		store.AcceptHook(NewPinTracer(log.New(buf, "", 0), fixedTime(2)))
	})

	It("should log analog writes", func() {
		store.AnalogWrite(1, 592)

		Expect(buf.String()).To(Equal("2.0000000000, analog[1] <- 592\n"))
	})

	It("should mark ignored digital writes", func() {
		store.DigitalWrite(2, hal.High)

		Expect(buf.String()).To(Equal(
			"2.0000000000, digital[2] <- 1 (ignored)\n"))
	})
})
