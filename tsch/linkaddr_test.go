package tsch

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LinkAddr", func() {
	It("should encode the node id in the last two bytes", func() {
		addr := NodeAddr(0x0102)

		Expect(addr[6]).To(Equal(byte(0x01)))
		Expect(addr[7]).To(Equal(byte(0x02)))
		Expect(addr.NodeID()).To(Equal(uint16(0x0102)))
		Expect(addr.IsNull()).To(BeFalse())
		Expect(addr.IsBroadcast()).To(BeFalse())
	})

	It("should recognize the reserved addresses", func() {
		Expect(NullAddr.IsNull()).To(BeTrue())
		Expect(BroadcastAddr.IsBroadcast()).To(BeTrue())
		Expect(NullAddr.String()).To(Equal("null"))
		Expect(BroadcastAddr.String()).To(Equal("bcast"))
	})

	It("should parse what it prints", func() {
		addr := NodeAddr(7)

		parsed, err := ParseLinkAddr(addr.String())

		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(addr))
	})

	It("should reject malformed addresses", func() {
		_, err := ParseLinkAddr("zz")
		Expect(err).To(HaveOccurred())

		_, err = ParseLinkAddr("0102")
		Expect(err).To(MatchError(ContainSubstring("want 8 bytes")))
	})
})
