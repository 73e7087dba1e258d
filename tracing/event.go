package tracing

import "github.com/sarchlab/orchestra/sim"

// Event kinds.
const (
	KindClass            = "class"
	KindReschedule       = "reschedule"
	KindPartialReduction = "partial-reduction"
	KindSent             = "sent"
	KindReceived         = "received"
	KindDropped          = "dropped"
	KindTimeSourceAcked  = "ts-acked"
	KindDelivery         = "delivery"
	KindReparent         = "reparent"
	KindEnergy           = "energy"
)

// An Event is something that happened at a component.
type Event struct {
	Time   sim.VTimeInSlot `json:"time"`
	Where  string          `json:"where"`
	Kind   string          `json:"kind"`
	What   string          `json:"what"`
	Detail any             `json:"-"`
}

// EventFilter is a function that can filter interesting events. If this
// function returns true, the event is considered useful.
type EventFilter func(e Event) bool

// KindFilter keeps the events of the given kinds.
func KindFilter(kinds ...string) EventFilter {
	return func(e Event) bool {
		for _, k := range kinds {
			if e.Kind == k {
				return true
			}
		}

		return false
	}
}
