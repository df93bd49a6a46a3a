package sim

// TimeTeller can be used to get the current simulated time.
type TimeTeller interface {
	CurrentTime() Time
}

// An EndHandler is called after the simulation ends.
type EndHandler interface {
	Handle(now Time)
}

// An Engine drives the per-slice node update loop. It advances simulated
// time in lock-step slices whose length is the network's minimum delay,
// invoking every node's Update once per slice and running the collective
// exchange at each slice boundary.
type Engine interface {
	Hookable
	TimeTeller

	// SetStopTime configures the end of the run. The engine completes whole
	// slices, so the run stops at the first slice boundary at or after the
	// stop time.
	SetStopTime(t Time)

	// Run advances the simulation until the stop time.
	Run() error

	// Pause will pause the simulation until Continue is called. The slice
	// in flight still completes.
	Pause()

	// Continue will continue the paused simulation.
	Continue()

	// RegisterEndHandler registers a handler that performs some actions
	// after the simulation is finished.
	RegisterEndHandler(handler EndHandler)

	// Finished invokes all the registered EndHandlers.
	Finished()
}
