package tracing

import (
	"log"

	"github.com/sarchlab/orchestra/sim"
)

// LogTracer prints events as status lines. Deliveries and energy reports are
// printed as bare records so that scripts can grep them.
type LogTracer struct {
	sim.LogHookBase

	filter EventFilter
}

// NewLogTracer creates a LogTracer that prints the events that pass the
// filter. A nil filter passes everything.
func NewLogTracer(logger *log.Logger, filter EventFilter) *LogTracer {
	return &LogTracer{
		LogHookBase: sim.LogHookBase{Logger: logger},
		filter:      filter,
	}
}

// Record prints the event.
func (t *LogTracer) Record(e Event) {
	if t.filter != nil && !t.filter(e) {
		return
	}

	switch e.Kind {
	case KindDelivery:
		t.Printf("%s\n", e.What)
	case KindEnergy:
		t.Printf("%s %s\n", e.Where, e.What)
	default:
		t.Printf("%d %s [%s] %s\n", e.Time, e.Where, e.Kind, e.What)
	}
}
