package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CountTracer", func() {
	It("should count by kind and location", func() {
		t := NewCountTracer(KindFilter(KindSent, KindDropped))

		t.Record(Event{Where: "A", Kind: KindSent})
		t.Record(Event{Where: "B", Kind: KindSent, What: "last"})
		t.Record(Event{Where: "A", Kind: KindDropped})
		t.Record(Event{Where: "A", Kind: KindReceived})

		Expect(t.Kinds()).To(Equal([]string{KindSent, KindDropped}))
		Expect(t.Count(KindSent)).To(Equal(uint64(2)))
		Expect(t.Count(KindReceived)).To(Equal(uint64(0)))
		Expect(t.CountAt("A", KindSent)).To(Equal(uint64(1)))
		Expect(t.Locations()).To(Equal([]string{"A", "B"}))

		e, ok := t.Last("B", KindSent)
		Expect(ok).To(BeTrue())
		Expect(e.What).To(Equal("last"))
	})
})
