package sim

// VTimeInSlot is the simulated time, counted in TSCH timeslots since the
// network started. It doubles as the absolute slot number (ASN).
type VTimeInSlot uint64

// An Event is something going to happen in the future.
type Event interface {
	// Time returns the slot at which the event should happen.
	Time() VTimeInSlot

	// Handler returns the handler that should handle the event.
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary events
	// are handled after all same-slot primary events are handled.
	IsSecondary() bool
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID        string
	time      VTimeInSlot
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInSlot, handler Handler) *EventBase {
	e := new(EventBase)
	e.ID = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler
	e.secondary = false

	return e
}

// Time returns the slot that the event is going to happen.
func (e EventBase) Time() VTimeInSlot {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler defines a domain for the events.
//
// One event is always constraint to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}
