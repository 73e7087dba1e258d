package orchestra

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/orchestra/tsch"
)

var _ = Describe("Neighbor link maintenance", func() {
	var (
		f   *ruleFixture
		cfg Config
		r   *Rule
	)

	txShared := tsch.LinkOptionTX | tsch.LinkOptionShared
	merged := tsch.LinkOptionTX | tsch.LinkOptionRX | tsch.LinkOptionShared

	BeforeEach(func() {
		f = newRuleFixture()
		cfg = DefaultConfig()
	})

	Context("receiver-based", func() {
		BeforeEach(func() {
			r = f.build(cfg)
		})

		It("should add a transmit cell at the child's timeslot", func() {
			child := tsch.NodeAddr(4)

			f.addChild(r, child)

			l := r.Table().FindByPeer(child)
			Expect(l).NotTo(BeNil())
			Expect(l.Timeslot).To(Equal(uint16(6)))
			Expect(l.ChannelOffset).To(Equal(uint16(1)))
			Expect(l.Options).To(Equal(txShared))
			Expect(r.Class()).To(Equal(uint16(3)))
		})

		It("should merge a child that shares the own timeslot", func() {
			child := tsch.NodeAddr(10)

			f.addChild(r, child)

			cells := neighborCells(r.Table().Links())
			Expect(cells).To(HaveLen(1))
			Expect(cells[0].Addr).To(Equal(child))
			Expect(cells[0].Timeslot).To(Equal(uint16(14)))
			Expect(cells[0].Options).To(Equal(merged))
		})

		It("should demote a merged cell to the default cell on removal", func() {
			child := tsch.NodeAddr(10)
			f.addChild(r, child)
			mergedID := r.Table().FindByPeer(child).ID

			f.removeChild(r, child)

			cells := neighborCells(r.Table().Links())
			Expect(cells).To(HaveLen(1))
			Expect(cells[0].ID).To(Equal(mergedID))
			Expect(cells[0].Addr).To(Equal(tsch.BroadcastAddr))
			Expect(cells[0].Options).To(Equal(tsch.LinkOptionRX))
		})

		It("should flush a child whose cell another child took over", func() {
			first := tsch.NodeAddr(2)
			second := tsch.NodeAddr(12)
			f.addChild(r, first)
			f.addChild(r, second)
			Expect(r.Table().FindByPeer(first)).To(BeNil())

			f.removeChild(r, first)

			Expect(f.flushed).To(Equal([]tsch.LinkAddr{first}))
			l := r.Table().FindByPeer(second)
			Expect(l).NotTo(BeNil())
			Expect(l.Timeslot).To(Equal(uint16(0)))
			Expect(l.Options).To(Equal(txShared))
		})

		It("should remove a child cell and flush its packets", func() {
			child := tsch.NodeAddr(4)
			f.addChild(r, child)

			f.removeChild(r, child)

			Expect(r.Table().FindByPeer(child)).To(BeNil())
			Expect(neighborCells(r.Table().Links())).To(HaveLen(1))
			Expect(f.flushed).To(Equal([]tsch.LinkAddr{child}))
			Expect(r.Class()).To(Equal(cfg.MaxClass))
		})

		It("should ignore a second removal", func() {
			child := tsch.NodeAddr(4)
			f.addChild(r, child)
			f.removeChild(r, child)
			before := r.Table().Links()

			f.removeChild(r, child)

			Expect(r.Table().Links()).To(Equal(before))
			Expect(f.flushed).To(Equal([]tsch.LinkAddr{child, child}))
		})

		It("should keep the cells when an unknown neighbor leaves", func() {
			before := r.Table().Links()

			r.ChildRemoved(tsch.NodeAddr(99))
			r.ChildRemoved(tsch.NullAddr)

			Expect(r.Table().Links()).To(Equal(before))
			Expect(f.flushed).To(Equal([]tsch.LinkAddr{tsch.NodeAddr(99)}))
		})

		It("should keep a cell the parent still needs", func() {
			parent := tsch.NodeAddr(12)
			child := tsch.NodeAddr(2)
			r.NewTimeSource(tsch.NullAddr, parent)
			f.addChild(r, child)
			Expect(r.Table().FindByPeer(parent)).To(BeNil())

			f.removeChild(r, child)

			l := r.Table().FindByPeer(parent)
			Expect(l).NotTo(BeNil())
			Expect(l.Timeslot).To(Equal(uint16(0)))
			Expect(l.Options).To(Equal(txShared))
		})

		It("should keep the cell of the current parent", func() {
			parent := tsch.NodeAddr(12)
			r.NewTimeSource(tsch.NullAddr, parent)
			parentID := r.Table().FindByPeer(parent).ID

			r.ChildRemoved(parent)

			l := r.Table().FindByPeer(parent)
			Expect(l).NotTo(BeNil())
			Expect(l.ID).To(Equal(parentID))
			Expect(l.Options).To(Equal(txShared))

			incremental := cellSignature(r.Table().Links())
			r.RescheduleUnicastSlotframe()
			Expect(cellSignature(r.Table().Links())).To(Equal(incremental))
		})

		It("should keep a cell another child still needs", func() {
			first := tsch.NodeAddr(11)
			second := tsch.NodeAddr(17)
			f.addChild(r, first)
			f.addChild(r, second)

			f.removeChild(r, second)

			l := r.Table().FindByPeer(first)
			Expect(l).NotTo(BeNil())
			Expect(l.Timeslot).To(Equal(uint16(4)))
		})

		It("should move the parent cell to the new time source", func() {
			oldParent := tsch.NodeAddr(4)
			newParent := tsch.NodeAddr(5)
			r.NewTimeSource(tsch.NullAddr, oldParent)
			Expect(r.Parent()).To(Equal(oldParent))

			r.NewTimeSource(oldParent, newParent)

			Expect(r.Parent()).To(Equal(newParent))
			Expect(r.Table().FindByPeer(oldParent)).To(BeNil())
			Expect(r.Table().FindByPeer(newParent).Timeslot).
				To(Equal(uint16(5)))
			Expect(r.Class()).To(Equal(cfg.MaxClass))
		})

		It("should drop the parent cell when the time source is lost", func() {
			parent := tsch.NodeAddr(4)
			r.NewTimeSource(tsch.NullAddr, parent)

			r.NewTimeSource(parent, tsch.NullAddr)

			Expect(r.Parent()).To(Equal(tsch.NullAddr))
			Expect(neighborCells(r.Table().Links())).To(HaveLen(1))
		})

		It("should ignore an unchanged time source", func() {
			parent := tsch.NodeAddr(4)
			r.NewTimeSource(tsch.NullAddr, parent)
			r.SetParentKnowsUs(true)

			r.NewTimeSource(parent, parent)

			Expect(r.ParentKnowsUs()).To(BeTrue())
			Expect(f.flushed).To(BeEmpty())
		})

		It("should select data packets to the parent", func() {
			parent := tsch.NodeAddr(4)
			r.NewTimeSource(tsch.NullAddr, parent)
			p := tsch.NewDataPacket(f.self, parent, 0)

			sel, ok := r.SelectPacket(p)

			Expect(ok).To(BeTrue())
			Expect(sel).To(Equal(tsch.Selection{
				Slotframe:     2,
				Timeslot:      6,
				ChannelOffset: 2,
			}))
		})

		It("should select data packets to a child", func() {
			child := tsch.NodeAddr(5)
			f.addChild(r, child)

			sel, ok := r.SelectPacket(tsch.NewDataPacket(f.self, child, 0))

			Expect(ok).To(BeTrue())
			Expect(sel.Timeslot).To(Equal(uint16(5)))
			Expect(sel.ChannelOffset).To(Equal(uint16(2)))
		})

		It("should decline other packets", func() {
			parent := tsch.NodeAddr(4)
			r.NewTimeSource(tsch.NullAddr, parent)

			beacon := tsch.NewDataPacket(f.self, parent, 0)
			beacon.FrameType = tsch.FrameBeacon
			_, ok := r.SelectPacket(beacon)
			Expect(ok).To(BeFalse())

			_, ok = r.SelectPacket(tsch.NewDataPacket(f.self, tsch.NodeAddr(9), 0))
			Expect(ok).To(BeFalse())

			_, ok = r.SelectPacket(
				tsch.NewDataPacket(f.self, tsch.BroadcastAddr, 0))
			Expect(ok).To(BeFalse())
		})
	})

	It("should leave packets covered by the root schedule", func() {
		rootSchedule := NewMockRootSchedule(f.mockCtrl)
		rootSchedule.EXPECT().IsRootScheduleActive(gomock.Any()).
			Return(true)
		r = f.builder(cfg).WithRootSchedule(rootSchedule).Build("Node1.Unicast")
		r.Init(2)
		parent := tsch.NodeAddr(4)
		r.NewTimeSource(tsch.NullAddr, parent)

		_, ok := r.SelectPacket(tsch.NewDataPacket(f.self, parent, 0))

		Expect(ok).To(BeFalse())
	})

	Context("sender-based", func() {
		BeforeEach(func() {
			cfg.SenderBased = true
			r = f.build(cfg)
		})

		It("should transmit in the own default cell", func() {
			cells := neighborCells(r.Table().Links())

			Expect(cells).To(HaveLen(1))
			Expect(cells[0].Options).To(Equal(txShared))
		})

		It("should listen at the child's timeslot", func() {
			child := tsch.NodeAddr(4)

			f.addChild(r, child)

			Expect(r.Table().FindByPeer(child).Options).
				To(Equal(tsch.LinkOptionRX))
		})

		It("should merge a child that shares the own timeslot", func() {
			child := tsch.NodeAddr(13)

			f.addChild(r, child)

			Expect(r.Table().FindByPeer(child).Options).To(Equal(merged))
		})

		It("should wait until the parent knows the node", func() {
			parent := tsch.NodeAddr(4)
			r.NewTimeSource(tsch.NullAddr, parent)
			p := tsch.NewDataPacket(f.self, parent, 0)

			_, ok := r.SelectPacket(p)
			Expect(ok).To(BeFalse())

			r.SetParentKnowsUs(true)
			sel, ok := r.SelectPacket(p)

			Expect(ok).To(BeTrue())
			Expect(sel.Timeslot).To(Equal(uint16(14)))
			Expect(sel.ChannelOffset).To(Equal(uint16(2)))
		})

		It("should forget the knows-us flag on a parent change", func() {
			r.NewTimeSource(tsch.NullAddr, tsch.NodeAddr(4))
			r.SetParentKnowsUs(true)

			r.NewTimeSource(tsch.NodeAddr(4), tsch.NodeAddr(5))

			Expect(r.ParentKnowsUs()).To(BeFalse())
		})
	})

	Context("sender-based with a collision-free hash", func() {
		BeforeEach(func() {
			cfg.SenderBased = true
			cfg.CollisionFreeHash = true
		})

		It("should share cells when the period is below the hash range", func() {
			r = f.build(cfg)

			Expect(r.Table().Links()[0].Options).To(Equal(txShared))
		})

		It("should not share cells when the hash cannot collide", func() {
			cfg.MaxHash = 15
			r = f.build(cfg)

			Expect(r.Table().Links()[0].Options).To(Equal(tsch.LinkOptionTX))
		})
	})

	It("should match a full rebuild after any churn", func() {
		r = f.build(cfg)
		r.NewTimeSource(tsch.NullAddr, tsch.NodeAddr(12))

		for _, id := range []uint16{4, 10, 11, 17, 2, 19, 5, 13} {
			f.addChild(r, tsch.NodeAddr(id))
		}

		for _, id := range []uint16{17, 10, 4, 17, 2} {
			f.removeChild(r, tsch.NodeAddr(id))
		}

		f.addChild(r, tsch.NodeAddr(16))
		r.NewTimeSource(tsch.NodeAddr(12), tsch.NodeAddr(8))

		incremental := cellSignature(r.Table().Links())

		r.RescheduleUnicastSlotframe()

		Expect(cellSignature(r.Table().Links())).To(Equal(incremental))
	})
})
