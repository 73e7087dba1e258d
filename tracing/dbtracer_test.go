package tracing

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/orchestra/datarecording"
	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/network"
	"github.com/sarchlab/orchestra/orchestra"
)

var _ = Describe("DBTracer", func() {
	var (
		path     string
		recorder datarecording.DataRecorder
		tracer   *DBTracer
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "trace")
		recorder = datarecording.New(path)
		tracer = NewDBTracer(recorder)
	})

	query := func(table string, sample any) []any {
		reader := datarecording.NewReader(path + ".sqlite3")
		defer reader.Close()

		reader.MapTable(table, sample)
		rows, _, err := reader.Query(context.Background(), table,
			datarecording.QueryParams{OrderBy: "rowid"})
		Expect(err).NotTo(HaveOccurred())

		return rows
	}

	It("should store events and their typed details", func() {
		tracer.Record(Event{
			Time: 10, Where: "N1", Kind: KindClass, What: "class 0 -> 2",
			Detail: orchestra.ClassChange{NewClass: 2, ExtraSlots: 0},
		})
		tracer.Record(Event{
			Time: 20, Where: "Net", Kind: KindDelivery, What: "IN;2;1;1",
			Detail: network.Delivery{Time: 20, Origin: 2, Seqno: 1, Hops: 1, Latency: 15},
		})
		tracer.Record(Event{
			Time: 30, Where: "Net.Node1", Kind: KindEnergy,
			Detail: mac.Energy{TxSlots: 1, ListenSlots: 1, SleepSlots: 2},
		})
		tracer.Terminate()

		Expect(query("event", eventTableEntry{})).To(HaveLen(3))
		Expect(query("class", classTableEntry{})).To(Equal([]any{
			&classTableEntry{Time: 10, Location: "N1", NewClass: 2},
		}))
		Expect(query("delivery", deliveryTableEntry{})).To(Equal([]any{
			&deliveryTableEntry{Time: 20, Origin: 2, Seqno: 1, Hops: 1, LatencySlots: 15},
		}))

		energy := query("energy", energyTableEntry{})
		Expect(energy).To(HaveLen(1))
		Expect(energy[0].(*energyTableEntry).Location).To(Equal("Net.Node1"))
		Expect(energy[0].(*energyTableEntry).DutyCycle).
			To(BeNumerically("~", 0.5))
	})

	It("should drop events outside the time range", func() {
		tracer.SetTimeRange(100, 200)

		tracer.Record(Event{Time: 50, Kind: KindSent})
		tracer.Record(Event{Time: 150, Kind: KindSent})
		tracer.Record(Event{Time: 250, Kind: KindSent})
		tracer.Terminate()

		rows := query("event", eventTableEntry{})
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].(*eventTableEntry).Time).To(Equal(uint64(150)))
	})
})

var _ = Describe("CSVTracer", func() {
	It("should write a header and one row per event", func() {
		buf := new(bytes.Buffer)
		t := NewCSVTracer(buf)

		t.Record(Event{Time: 3, Where: "N2", Kind: KindSent, What: "a, b"})
		t.Flush()

		Expect(buf.String()).
			To(Equal("Time,Where,Kind,What\n3,N2,sent,\"a, b\"\n"))
	})
})
