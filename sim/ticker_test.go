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
		tc = NewTickingComponent("TC", engine, ticker)

		engine.EXPECT().CurrentTime().Return(VTimeInSlot(10)).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should tick in the next slot when the ticker makes progress", func() {
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSlot(11)))
			})
		ticker.EXPECT().Tick().Return(true)

		Expect(tc.Handle(MakeTickEvent(tc, 10))).To(Succeed())
	})

	It("should not schedule a second tick for the same slot", func() {
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSlot(11)))
			})

		ticker.EXPECT().Tick().Return(true).Times(2)
		Expect(tc.Handle(MakeTickEvent(tc, 10))).To(Succeed())
		Expect(tc.Handle(MakeTickEvent(tc, 10))).To(Succeed())
	})

	It("should stop ticking if no progress is made", func() {
		ticker.EXPECT().Tick().Return(false)
		Expect(tc.Handle(MakeTickEvent(tc, 10))).To(Succeed())
	})

	It("should tick now", func() {
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSlot(10)))
			})

		tc.TickNow()
		Expect(tc.Name()).To(Equal("TC"))
	})
})
