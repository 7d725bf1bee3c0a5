package sim

import (
	"fmt"
	"sync"
)

// A SerialEngine ticks one Ticker cycle after cycle on the calling
// goroutine. Pause and Continue may be called from other goroutines.
type SerialEngine struct {
	HookableBase

	ticker    Ticker
	maxCycles uint64

	cycleLock sync.RWMutex
	cycle     uint64

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates an engine that ticks ticker. A maxCycles of zero
// disables hang detection.
func NewSerialEngine(ticker Ticker, maxCycles uint64) *SerialEngine {
	return &SerialEngine{
		ticker:    ticker,
		maxCycles: maxCycles,
	}
}

func (e *SerialEngine) readCycle() uint64 {
	e.cycleLock.RLock()
	defer e.cycleLock.RUnlock()

	return e.cycle
}

func (e *SerialEngine) advance() uint64 {
	e.cycleLock.Lock()
	defer e.cycleLock.Unlock()

	e.cycle++

	return e.cycle
}

// Run ticks until the ticker reports no progress. A tick without progress
// does not count as a cycle. Run returns ErrHang when the cycle budget runs
// out first.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		e.pauseLock.Lock()

		cycle := e.readCycle()
		if e.maxCycles > 0 && cycle >= e.maxCycles {
			e.pauseLock.Unlock()
			return fmt.Errorf("%w: %d cycles", ErrHang, e.maxCycles)
		}

		ctx := HookCtx{Domain: e, Pos: HookPosBeforeTick, Item: cycle}
		e.InvokeHook(ctx)

		if !e.ticker.Tick() {
			e.pauseLock.Unlock()
			return nil
		}

		e.advance()

		ctx.Pos = HookPosAfterTick
		e.InvokeHook(ctx)

		e.pauseLock.Unlock()
	}
}

// Pause prevents the engine from ticking further.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the engine to tick again.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused tells whether Pause is in effect.
func (e *SerialEngine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// CurrentCycle returns the number of completed cycles.
func (e *SerialEngine) CurrentCycle() uint64 {
	return e.readCycle()
}

// RegisterSimulationEndHandler registers a handler called by Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(handler SimulationEndHandler) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished calls every registered SimulationEndHandler.
func (e *SerialEngine) Finished() {
	cycle := e.readCycle()
	for _, h := range e.simulationEndHandlers {
		h.Handle(cycle)
	}
}
