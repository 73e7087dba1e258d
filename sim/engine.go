package sim

// TimeTeller can be used to get the current slot.
type TimeTeller interface {
	CurrentTime() VTimeInSlot
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller
	Schedule(e Event)
}

// A SimulationEndHandler is a handler that is called after the simulation
// ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSlot)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	EventScheduler

	// Run processes all the events until no event is left.
	Run() error

	// RunUntil processes all the events that happen no later than the given
	// slot. Events after the limit stay queued.
	RunUntil(limit VTimeInSlot) error

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation.
	Continue()

	// RegisterSimulationEndHandler registers a handler that performs some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler.
	Finished()
}
