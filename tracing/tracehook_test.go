package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/network"
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

type testTimeTeller struct {
	now sim.VTimeInSlot
}

func (t *testTimeTeller) CurrentTime() sim.VTimeInSlot {
	return t.now
}

type sampleDomain struct {
	*sim.HookableBase
	name string
}

func (d *sampleDomain) Name() string {
	return d.name
}

var _ = Describe("Trace hook", func() {
	var (
		mockCtrl   *gomock.Controller
		tracer     *MockTracer
		timeTeller *testTimeTeller
		domain     *sampleDomain
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tracer = NewMockTracer(mockCtrl)
		timeTeller = &testTimeTeller{now: 5}
		domain = &sampleDomain{
			HookableBase: sim.NewHookableBase(),
			name:         "Node2.Unicast",
		}

		CollectTrace(timeTeller, domain, tracer)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should turn a class change into an event", func() {
		detail := orchestra.ClassChange{OldClass: 1, NewClass: 3, ExtraSlots: 1}

		tracer.EXPECT().Record(Event{
			Time:   5,
			Where:  "Node2.Unicast",
			Kind:   KindClass,
			What:   "class 1 -> 3, extra 1",
			Detail: detail,
		})

		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    orchestra.HookPosClassChange,
			Detail: detail,
		})
	})

	It("should describe dropped packets", func() {
		p := tsch.NewDataPacket(tsch.NodeAddr(2), tsch.NodeAddr(1), 0)
		p.Seqno = 7

		tracer.EXPECT().Record(gomock.Any()).Do(func(e Event) {
			Expect(e.Kind).To(Equal(KindDropped))
			Expect(e.What).To(Equal(
				"0012.7400.0000.0002 -> 0012.7400.0000.0001 seq 7, no-cell"))
		})

		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    mac.HookPosPacketDropped,
			Item:   p,
			Detail: mac.DropNoCell,
		})
	})

	It("should place energy reports at the node", func() {
		n := network.MakeBuilder().
			WithEngine(sim.NewSerialEngine()).
			WithTopology(network.Line(1)).
			Build("Net")
		node := n.Root()

		tracer.EXPECT().Record(gomock.Any()).Do(func(e Event) {
			Expect(e.Kind).To(Equal(KindEnergy))
			Expect(e.Where).To(Equal("Net.Node1"))
			Expect(e.What).To(Equal("EG;3;0;2;1"))
		})

		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    network.HookPosEnergyReport,
			Item:   node,
			Detail: mac.Energy{TxSlots: 1, ListenSlots: 2},
		})
	})

	It("should ignore unknown positions", func() {
		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    sim.HookPosBeforeEvent,
		})
	})
})

var _ = Describe("Network trace", func() {
	It("should count the events of a whole network", func() {
		engine := sim.NewSerialEngine()
		n := network.MakeBuilder().
			WithEngine(engine).
			WithTopology(network.Line(3)).
			WithTraffic(network.TrafficConfig{SendInterval: 100, Messages: 1}).
			Build("Net")

		counter := NewCountTracer(nil)
		CollectNetworkTrace(n, counter)

		n.Start()
		Expect(engine.RunUntil(3000)).To(Succeed())
		engine.Finished()

		Expect(counter.Count(KindDelivery)).
			To(Equal(uint64(len(n.Deliveries()))))
		Expect(counter.Count(KindReschedule)).To(BeNumerically(">", 0))
		Expect(counter.Count(KindEnergy)).To(Equal(uint64(3)))
		Expect(counter.CountAt("Net", KindDelivery)).
			To(Equal(counter.Count(KindDelivery)))
		Expect(counter.Locations()).To(ContainElement("Net.Node2.MAC"))
	})
})
