package sim

import (
	"sync"
)

// TickEvent is a generic event that almost all the components can use to
// update their status.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent.
func MakeTickEvent(handler Handler, time VTimeInSlot) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time
	evt.secondary = false

	return evt
}

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	Tick() bool
}

// TickScheduler can help schedule tick events. A tick happens at most once
// per slot.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Engine    Engine
	secondary bool

	nextTickTime VTimeInSlot
	scheduled    bool
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(handler Handler, engine Engine) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		Engine:  engine,
	}
}

// NewSecondaryTickScheduler creates a scheduler that always schedules
// secondary tick events.
func NewSecondaryTickScheduler(handler Handler, engine Engine) *TickScheduler {
	ticker := NewTickScheduler(handler, engine)
	ticker.secondary = true

	return ticker
}

// TickNow schedules a Tick event in the current slot.
func (t *TickScheduler) TickNow() {
	t.tickAt(t.CurrentTime())
}

// TickLater schedules a tick event in the slot after the current one.
func (t *TickScheduler) TickLater() {
	t.tickAt(t.CurrentTime() + 1)
}

func (t *TickScheduler) tickAt(time VTimeInSlot) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.scheduled && t.nextTickTime >= time {
		return
	}

	t.nextTickTime = time
	t.scheduled = true

	tick := MakeTickEvent(t.handler, time)
	tick.secondary = t.secondary
	t.Engine.Schedule(tick)
}

// CurrentTime returns the current slot of the engine.
func (t *TickScheduler) CurrentTime() VTimeInSlot {
	return t.Engine.CurrentTime()
}

// TickingComponent is a type of component that updates states from slot to
// slot. A programmer would only need to program a tick function for a ticking
// component.
type TickingComponent struct {
	*TickScheduler

	name   string
	ticker Ticker
}

// Name returns the name of the component.
func (c *TickingComponent) Name() string {
	return c.name
}

// Handle triggers the tick function of the TickingComponent.
func (c *TickingComponent) Handle(_ Event) error {
	madeProgress := c.ticker.Tick()
	if madeProgress {
		c.TickLater()
	}

	return nil
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine Engine,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewTickScheduler(tc, engine)
	tc.name = name
	tc.ticker = ticker

	return tc
}
