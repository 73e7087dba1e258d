package tsch

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Queue", func() {
	var (
		q    *Queue
		self LinkAddr
		nbrA LinkAddr
		nbrB LinkAddr
	)

	BeforeEach(func() {
		q = NewQueue(2)
		self = NodeAddr(1)
		nbrA = NodeAddr(2)
		nbrB = NodeAddr(3)
	})

	It("should count packets per neighbor and globally", func() {
		Expect(q.Add(NewDataPacket(self, nbrA, 0))).To(BeTrue())
		Expect(q.Add(NewDataPacket(self, nbrA, 0))).To(BeTrue())
		Expect(q.Add(NewDataPacket(self, nbrB, 0))).To(BeTrue())

		Expect(q.PacketCountTo(nbrA)).To(Equal(2))
		Expect(q.GlobalPacketCount()).To(Equal(3))
	})

	It("should drop packets beyond the capacity", func() {
		q.Add(NewDataPacket(self, nbrA, 0))
		q.Add(NewDataPacket(self, nbrA, 0))

		Expect(q.Add(NewDataPacket(self, nbrA, 0))).To(BeFalse())
		Expect(q.NumDropped()).To(Equal(uint64(1)))
	})

	It("should flush the packets of one neighbor", func() {
		q.Add(NewDataPacket(self, nbrA, 0))
		q.Add(NewDataPacket(self, nbrB, 0))

		Expect(q.FlushPacketsTo(nbrA)).To(Equal(1))
		Expect(q.FlushPacketsTo(nbrA)).To(Equal(0))
		Expect(q.GlobalPacketCount()).To(Equal(1))
	})

	It("should find and remove packets", func() {
		p := NewDataPacket(self, nbrB, 0)
		q.Add(NewDataPacket(self, nbrA, 0))
		q.Add(p)

		found := q.Find(func(c *Packet) bool { return c.Dest == nbrB })
		Expect(found).To(BeIdenticalTo(p))

		Expect(q.Remove(p)).To(BeTrue())
		Expect(q.Remove(p)).To(BeFalse())
		Expect(q.Find(func(c *Packet) bool { return c.Dest == nbrB })).To(BeNil())
	})
})
