package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Ticking Component", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		ticker   *MockTicker
		tc       *TickingComponent
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		ticker = NewMockTicker(mockCtrl)
		tc = NewTickingComponent("DriveLoop", engine, 1*Hz, ticker)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should have a name", func() {
		Expect(tc.Name()).To(Equal("DriveLoop"))
	})

	It("should tick now at the current time", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(0))
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSec(0)))
				Expect(e.Handler()).To(BeIdenticalTo(tc))
			})

		tc.TickNow()
	})

	It("should tick when the ticker make progress in a tick", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(10))
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSec(11)))
			})
		ticker.EXPECT().Tick().Return(true)

		_ = tc.Handle(MakeTickEvent(tc, 10))
	})

	It("should not tick if there is another tick scheduled in the future", func() {
		engine.EXPECT().CurrentTime().Return(VTimeInSec(10)).Times(2)
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSec(11)))
			})

		ticker.EXPECT().Tick().Return(true).Times(2)
		_ = tc.Handle(MakeTickEvent(tc, 10))
		_ = tc.Handle(MakeTickEvent(tc, 10))
	})

	It("should stop ticking if no progress is made", func() {
		ticker.EXPECT().Tick().Return(false)

		_ = tc.Handle(MakeTickEvent(tc, 10))
	})
})
