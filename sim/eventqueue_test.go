package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(VTimeInSlot(rand.Uint64() % 1000)).
				AnyTimes()
			queue.Push(event)
		}

		now := VTimeInSlot(0)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}

		Expect(queue.Len()).To(Equal(0))
		Expect(queue.Pop()).To(BeNil())
		Expect(queue.Peek()).To(BeNil())
	})

	It("should keep insertion order for events in the same slot", func() {
		events := make([]*MockEvent, 0)
		for i := 0; i < 10; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().Time().Return(VTimeInSlot(7)).AnyTimes()
			queue.Push(event)
			events = append(events, event)
		}

		for _, expected := range events {
			Expect(queue.Pop()).To(BeIdenticalTo(expected))
		}
	})
})
