package sim

import (
	"log"
	"reflect"
	"sync"
)

// A SerialEngine is an Engine that always runs events one after another.
// Exactly one handler runs at a time, which gives the cooperative execution
// model that TSCH firmware assumes.
type SerialEngine struct {
	HookableBase

	timeLock       sync.RWMutex
	time           VTimeInSlot
	queue          EventQueue
	secondaryQueue EventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)

	e.queue = NewEventQueue()
	e.secondaryQueue = NewEventQueue()

	return e
}

// Schedule registers an event to happen in the future.
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf(
			"scheduling an event earlier than current time, evt %s @ %d, now %d",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}

	if evt.IsSecondary() {
		e.secondaryQueue.Push(evt)
		return
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() VTimeInSlot {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInSlot) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes all the events scheduled in the SerialEngine.
func (e *SerialEngine) Run() error {
	return e.run(func(Event) bool { return true })
}

// RunUntil processes the events that happen no later than limit.
func (e *SerialEngine) RunUntil(limit VTimeInSlot) error {
	err := e.run(func(evt Event) bool { return evt.Time() <= limit })
	if err != nil {
		return err
	}

	if e.readNow() < limit {
		e.writeNow(limit)
	}

	return nil
}

func (e *SerialEngine) run(accept func(Event) bool) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		e.pauseLock.Lock()

		evt := e.peekEvent()
		if evt == nil || !accept(evt) {
			e.pauseLock.Unlock()
			return nil
		}

		e.popEvent(evt)

		now := e.readNow()
		if evt.Time() < now {
			log.Panicf(
				"cannot run event in the past, evt %s @ %d, now %d",
				reflect.TypeOf(evt), evt.Time(), now,
			)
		}
		e.writeNow(evt.Time())

		hookCtx := HookCtx{
			Domain: e,
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		}
		e.InvokeHook(hookCtx)

		err := evt.Handler().Handle(evt)

		hookCtx.Pos = HookPosAfterEvent
		e.InvokeHook(hookCtx)

		e.pauseLock.Unlock()

		if err != nil {
			return err
		}
	}
}

func (e *SerialEngine) peekEvent() Event {
	primary := e.queue.Peek()
	secondary := e.secondaryQueue.Peek()

	switch {
	case primary == nil:
		return secondary
	case secondary == nil:
		return primary
	case primary.Time() <= secondary.Time():
		return primary
	default:
		return secondary
	}
}

func (e *SerialEngine) popEvent(evt Event) {
	if evt.IsSecondary() {
		e.secondaryQueue.Pop()
		return
	}

	e.queue.Pop()
}

// Pause prevents the SerialEngine to trigger more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the slot of the event that is being processed, or of
// the last processed event.
func (e *SerialEngine) CurrentTime() VTimeInSlot {
	return e.readNow()
}

// RegisterSimulationEndHandler registers a handler to be called by Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. This function calls
// all the registered SimulationEndHandler.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
