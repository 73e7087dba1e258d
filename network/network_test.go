package network

import (
	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/orchestra/sim"
	"github.com/sarchlab/orchestra/tsch"
)

var _ = ginkgo.Describe("Network", func() {
	var (
		engine *sim.SerialEngine
	)

	ginkgo.BeforeEach(func() {
		engine = sim.NewSerialEngine()
	})

	ginkgo.It("should attach every node along the minimum-hop tree", func() {
		n := MakeBuilder().
			WithEngine(engine).
			WithTopology(Grid(2, 2)).
			WithTraffic(TrafficConfig{}).
			Build("Net")

		Expect(n.Nodes()).To(HaveLen(4))
		Expect(n.Tree().Parent(tsch.NodeAddr(4))).To(Equal(tsch.NodeAddr(2)))
		Expect(n.Node(4).Unicast.Parent()).To(Equal(tsch.NodeAddr(2)))
		Expect(n.Node(4).MAC.TimeSource()).To(Equal(tsch.NodeAddr(2)))
		Expect(n.Node(2).Unicast.Table().FindByPeer(tsch.NodeAddr(4))).
			NotTo(BeNil())
		Expect(n.NodeByName("Net.Node3")).To(BeIdenticalTo(n.Node(3)))
		Expect(n.Root().Unicast.Parent().IsNull()).To(BeTrue())
	})

	ginkgo.It("should carry convergecast traffic to the root", func() {
		n := MakeBuilder().
			WithEngine(engine).
			WithTopology(Line(3)).
			WithTraffic(TrafficConfig{
				SendInterval: 100,
				Messages:     3,
			}).
			Build("Net")

		var records []string
		n.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosDelivered {
				records = append(records, ctx.Detail.(Delivery).Record())
			}
		}))

		n.Start()
		Expect(engine.RunUntil(6000)).To(Succeed())

		Expect(n.Deliveries()).To(HaveLen(6))
		Expect(records).To(ContainElements(
			"IN;2;1;1", "IN;2;3;1", "IN;3;1;2", "IN;3;3;2"))

		r := n.Report()
		Expect(r.Generated).To(Equal(6))
		Expect(r.PDR()).To(BeNumerically("~", 1.0))
		Expect(r.AvgHops).To(BeNumerically("~", 1.5))
		Expect(r.AvgLatencySec).To(BeNumerically(">", 0))
		Expect(r.AvgDutyCycle).To(BeNumerically(">", 0))
	})

	ginkgo.It("should move the parent cell when a node switches parent", func() {
		n := MakeBuilder().
			WithEngine(engine).
			WithTopology(Grid(2, 2)).
			WithTraffic(TrafficConfig{}).
			Build("Net")

		var moves []Reparent
		n.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosReparent {
				moves = append(moves, ctx.Detail.(Reparent))
			}
		}))

		Expect(n.Reparent(4, 3)).To(Succeed())

		child := n.Node(4)
		Expect(child.Unicast.Parent()).To(Equal(tsch.NodeAddr(3)))
		Expect(child.MAC.TimeSource()).To(Equal(tsch.NodeAddr(3)))
		Expect(n.Node(2).Unicast.Table().FindByPeer(tsch.NodeAddr(4))).To(BeNil())
		Expect(n.NumReparents()).To(Equal(1))
		Expect(moves).To(Equal([]Reparent{{
			Child:     tsch.NodeAddr(4),
			OldParent: tsch.NodeAddr(2),
			NewParent: tsch.NodeAddr(3),
		}}))
	})

	ginkgo.It("should reject impossible parent switches", func() {
		n := MakeBuilder().
			WithEngine(engine).
			WithTopology(Grid(2, 2)).
			WithTraffic(TrafficConfig{}).
			Build("Net")

		Expect(n.Reparent(4, 1)).To(HaveOccurred())
		Expect(n.Reparent(1, 2)).To(HaveOccurred())
		Expect(n.Reparent(4, 99)).To(HaveOccurred())
		Expect(n.NumReparents()).To(Equal(0))
	})

	ginkgo.It("should keep every parent cell through churn", func() {
		n := MakeBuilder().
			WithEngine(engine).
			WithTopology(Grid(3, 3)).
			WithTraffic(TrafficConfig{}).
			WithChurnInterval(50).
			Build("Net")

		n.Start()
		Expect(engine.RunUntil(2000)).To(Succeed())

		Expect(n.NumReparents()).To(BeNumerically(">", 0))

		for _, node := range n.Nodes() {
			if node.ID == RootID {
				continue
			}

			parent := n.Tree().Parent(node.Addr)
			rule := node.Unicast

			Expect(parent.IsNull()).To(BeFalse())
			Expect(rule.Parent()).To(Equal(parent))
			Expect(rule.Table().FindByTimeslot(
				rule.NodeTimeslot(parent),
				rule.NodeChannelOffset(node.Addr),
			)).NotTo(BeNil())
		}
	})

	ginkgo.It("should report the energy of every node at the end", func() {
		n := MakeBuilder().
			WithEngine(engine).
			WithTopology(Line(2)).
			WithTraffic(TrafficConfig{}).
			Build("Net")

		var reports []string
		n.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == HookPosEnergyReport {
				reports = append(reports, ctx.Item.(*Node).Name())
			}
		}))

		n.Start()
		Expect(engine.RunUntil(100)).To(Succeed())
		engine.Finished()

		Expect(reports).To(Equal([]string{"Net.Node1", "Net.Node2"}))
		Expect(n.Root().MAC.Energy().CPUSlots()).To(BeNumerically(">", 0))
	})
})
