package hal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/sim"
)

type fixedTime struct {
	now sim.VTimeInSec
}

func (f *fixedTime) CurrentTime() sim.VTimeInSec {
	return f.now
}

var _ = Describe("VirtualClock", func() {
	It("should follow the engine time", func() {
		teller := &fixedTime{now: 3}
		clock := hal.NewVirtualClock(teller)

		Expect(clock.Millis()).To(Equal(uint64(3000)))

		teller.now = 4.25
		Expect(clock.Millis()).To(Equal(uint64(4250)))
	})

	It("should add delays without blocking", func() {
		clock := hal.NewVirtualClock(&fixedTime{now: 1})

		clock.Delay(1000)
		clock.Delay(20)

		Expect(clock.Millis()).To(Equal(uint64(2020)))
	})
})

var _ = Describe("HostClock", func() {
	It("should never go backwards", func() {
		clock := hal.NewHostClock()

		first := clock.Millis()
		clock.Delay(2)

		Expect(clock.Millis()).To(BeNumerically(">=", first+2))
	})
})
