package sim

import "errors"

// ErrHang is returned when the simulation does not settle within its cycle
// budget.
var ErrHang = errors.New("simulation did not finish within the cycle budget")

// A SimulationEndHandler is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(cycle uint64)
}

// An Engine keeps a cycle-based simulation running.
type Engine interface {
	Hookable

	// Run ticks until the simulated system has nothing left to do.
	Run() error

	// Pause stops the simulation until Continue is called.
	Pause()

	// Continue resumes a paused simulation.
	Continue()

	// CurrentCycle returns the number of cycles simulated so far.
	CurrentCycle() uint64

	// RegisterSimulationEndHandler registers a handler called by Finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes every registered SimulationEndHandler.
	Finished()
}
