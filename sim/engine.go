package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler is called once after the simulation ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine drives a discrete event simulation by triggering events in time
// order.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes all the scheduled events until the simulation finishes.
	Run() error

	// Pause prevents the engine from triggering more events until Continue
	// is called.
	Pause()

	// Continue resumes a paused simulation.
	Continue()

	// RegisterSimulationEndHandler registers a handler that performs some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler
	Finished()
}
