package tracing

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LogTracer", func() {
	var (
		buf    *bytes.Buffer
		tracer *LogTracer
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		tracer = NewLogTracer(log.New(buf, "", 0), nil)
	})

	It("should print status lines", func() {
		tracer.Record(Event{
			Time: 42, Where: "Node1.Unicast", Kind: KindClass,
			What: "class 0 -> 4, extra 2",
		})

		Expect(buf.String()).
			To(Equal("42 Node1.Unicast [class] class 0 -> 4, extra 2\n"))
	})

	It("should print records as they are", func() {
		tracer.Record(Event{Kind: KindDelivery, What: "IN;3;1;2"})
		tracer.Record(Event{Where: "Net.Node1", Kind: KindEnergy, What: "EG;1;2;1;0"})

		Expect(buf.String()).To(Equal("IN;3;1;2\nNet.Node1 EG;1;2;1;0\n"))
	})

	It("should skip filtered events", func() {
		tracer = NewLogTracer(log.New(buf, "", 0), KindFilter(KindEnergy))

		tracer.Record(Event{Kind: KindDelivery, What: "IN;3;1;2"})

		Expect(buf.Len()).To(Equal(0))
	})
})
