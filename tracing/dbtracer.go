package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/orchestra/datarecording"
	"github.com/sarchlab/orchestra/mac"
	"github.com/sarchlab/orchestra/network"
	"github.com/sarchlab/orchestra/orchestra"
	"github.com/sarchlab/orchestra/sim"
)

type eventTableEntry struct {
	Time     uint64
	Location string
	Kind     string
	What     string
}

type classTableEntry struct {
	Time       uint64
	Location   string
	OldClass   uint16
	NewClass   uint16
	ExtraSlots int
}

type deliveryTableEntry struct {
	Time         uint64
	Origin       uint16
	Seqno        uint32
	Hops         uint8
	LatencySlots uint64
}

type energyTableEntry struct {
	Location    string
	TxSlots     uint64
	ListenSlots uint64
	IdleSlots   uint64
	SleepSlots  uint64
	DutyCycle   float64
}

// DBTracer is a tracer that stores events into a data recorder. Class
// changes, deliveries and energy reports also go to tables of their own.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder

	startTime, endTime sim.VTimeInSlot
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	dataRecorder.CreateTable("event", eventTableEntry{})
	dataRecorder.CreateTable("class", classTableEntry{})
	dataRecorder.CreateTable("delivery", deliveryTableEntry{})
	dataRecorder.CreateTable("energy", energyTableEntry{})

	t := &DBTracer{
		backend: dataRecorder,
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange limits recording to events between the two slots. A zero
// bound is open.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSlot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// Record stores the event.
func (t *DBTracer) Record(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.Kind != KindEnergy && !t.inRange(e.Time) {
		return
	}

	t.backend.InsertData("event", eventTableEntry{
		Time:     uint64(e.Time),
		Location: e.Where,
		Kind:     e.Kind,
		What:     e.What,
	})

	switch d := e.Detail.(type) {
	case orchestra.ClassChange:
		t.backend.InsertData("class", classTableEntry{
			Time:       uint64(e.Time),
			Location:   e.Where,
			OldClass:   d.OldClass,
			NewClass:   d.NewClass,
			ExtraSlots: d.ExtraSlots,
		})
	case network.Delivery:
		t.backend.InsertData("delivery", deliveryTableEntry{
			Time:         uint64(d.Time),
			Origin:       d.Origin,
			Seqno:        d.Seqno,
			Hops:         d.Hops,
			LatencySlots: uint64(d.Latency),
		})
	case mac.Energy:
		t.backend.InsertData("energy", energyTableEntry{
			Location:    e.Where,
			TxSlots:     d.TxSlots,
			ListenSlots: d.ListenSlots,
			IdleSlots:   d.IdleSlots,
			SleepSlots:  d.SleepSlots,
			DutyCycle:   d.DutyCycle(),
		})
	}
}

func (t *DBTracer) inRange(now sim.VTimeInSlot) bool {
	if t.startTime > 0 && now < t.startTime {
		return false
	}

	if t.endTime > 0 && now > t.endTime {
		return false
	}

	return true
}

// Terminate writes all buffered rows.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
