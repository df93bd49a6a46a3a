package sim

import (
	"log"
	"sync"
)

// A SerialEngine updates all nodes one after another within each slice. It
// walks the same worker partitions as the ParallelEngine, in ascending
// worker order, so a serial run and a parallel run of the same network are
// directly comparable.
type SerialEngine struct {
	HookableBase

	edm *EventDeliveryManager

	timeLock sync.RWMutex
	now      Time
	stopTime Time

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	endHandlers []EndHandler
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine(edm *EventDeliveryManager) *SerialEngine {
	return &SerialEngine{
		edm: edm,
	}
}

// SetStopTime configures the end of the run.
func (e *SerialEngine) SetStopTime(t Time) {
	if !t.IsGridTime() && t.IsFinite() {
		log.Panicf("stop time %s is not on the step grid", t)
	}

	e.stopTime = t
}

func (e *SerialEngine) readNow() Time {
	e.timeLock.RLock()
	t := e.now
	e.timeLock.RUnlock()
	return t
}

func (e *SerialEngine) writeNow(t Time) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Run advances the simulation slice by slice until the stop time.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	sliceSteps := e.edm.SliceSteps()
	sliceLen := TimeFromSteps(sliceSteps)

	for {
		now := e.readNow()
		if !now.Before(e.stopTime) {
			return nil
		}

		e.pauseLock.Lock()
		e.runSlice(now, sliceSteps)
		e.pauseLock.Unlock()

		e.writeNow(now.Add(sliceLen))
	}
}

func (e *SerialEngine) runSlice(origin Time, sliceSteps int64) {
	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeSlice,
		Item:   origin,
	}
	e.InvokeHook(hookCtx)

	e.edm.StartSlice(origin)

	for w := 0; w < e.edm.NumWorkers(); w++ {
		for _, n := range e.edm.NodesOnWorker(w) {
			n.Update(origin, 0, sliceSteps)
		}

		e.edm.FinishSlice(w)
	}

	inboxes := e.edm.Exchange()
	for w := 0; w < e.edm.NumWorkers(); w++ {
		e.edm.DeliverInbox(w, inboxes[w])
	}

	e.edm.EndSlice()

	hookCtx.Pos = HookPosAfterSlice
	e.InvokeHook(hookCtx)
}

// Pause prevents the SerialEngine from starting the next slice.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to make progress again.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the origin of the slice currently being updated.
func (e *SerialEngine) CurrentTime() Time {
	return e.readNow()
}

// RegisterEndHandler registers a handler to be called after the run ends.
func (e *SerialEngine) RegisterEndHandler(handler EndHandler) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished should be called after the simulation ends. It calls all the
// registered EndHandlers.
func (e *SerialEngine) Finished() {
	now := e.readNow()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
