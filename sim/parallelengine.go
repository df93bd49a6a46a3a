package sim

import (
	"log"
	"sync"
)

// A ParallelEngine updates each worker's node partition in its own
// goroutine. Within a slice the workers share no mutable state: each node's
// buffers and each worker's staging registers are owned by exactly one
// worker, and the min-delay invariant guarantees that nothing written during
// the slice is read before the next one. The slice-boundary exchange is the
// only synchronization point.
type ParallelEngine struct {
	HookableBase

	edm *EventDeliveryManager

	pauseLock sync.Mutex
	nowLock   sync.RWMutex
	now       Time
	stopTime  Time

	waitGroup sync.WaitGroup

	singleRunLock sync.Mutex

	endHandlers []EndHandler
}

// NewParallelEngine creates a ParallelEngine.
func NewParallelEngine(edm *EventDeliveryManager) *ParallelEngine {
	return &ParallelEngine{
		edm: edm,
	}
}

// SetStopTime configures the end of the run.
func (e *ParallelEngine) SetStopTime(t Time) {
	if !t.IsGridTime() && t.IsFinite() {
		log.Panicf("stop time %s is not on the step grid", t)
	}

	e.stopTime = t
}

func (e *ParallelEngine) readNow() Time {
	e.nowLock.RLock()
	t := e.now
	e.nowLock.RUnlock()
	return t
}

func (e *ParallelEngine) writeNow(t Time) {
	e.nowLock.Lock()
	e.now = t
	e.nowLock.Unlock()
}

// Run advances the simulation slice by slice until the stop time.
func (e *ParallelEngine) Run() error {
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

func (e *ParallelEngine) runSlice(origin Time, sliceSteps int64) {
	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeSlice,
		Item:   origin,
	}
	e.InvokeHook(hookCtx)

	e.edm.StartSlice(origin)

	for w := 0; w < e.edm.NumWorkers(); w++ {
		e.waitGroup.Add(1)
		go e.updateWorker(w, origin, sliceSteps)
	}
	e.waitGroup.Wait()

	// All workers have finished emitting; the collective exchange is the
	// single barrier of the slice.
	inboxes := e.edm.Exchange()

	for w := 0; w < e.edm.NumWorkers(); w++ {
		e.waitGroup.Add(1)
		go e.deliverWorker(w, inboxes[w])
	}
	e.waitGroup.Wait()

	e.edm.EndSlice()

	hookCtx.Pos = HookPosAfterSlice
	e.InvokeHook(hookCtx)
}

func (e *ParallelEngine) updateWorker(
	worker int,
	origin Time,
	sliceSteps int64,
) {
	defer e.waitGroup.Done()

	for _, n := range e.edm.NodesOnWorker(worker) {
		n.Update(origin, 0, sliceSteps)
	}

	e.edm.FinishSlice(worker)
}

func (e *ParallelEngine) deliverWorker(worker int, inbox []RegisterEntry) {
	defer e.waitGroup.Done()

	e.edm.DeliverInbox(worker, inbox)
}

// Pause prevents the engine from starting the next slice. The slice in
// flight still completes.
func (e *ParallelEngine) Pause() {
	e.pauseLock.Lock()
}

// Continue allows the engine to continue to make progress.
func (e *ParallelEngine) Continue() {
	e.pauseLock.Unlock()
}

// CurrentTime returns the origin of the slice currently being updated.
func (e *ParallelEngine) CurrentTime() Time {
	return e.readNow()
}

// RegisterEndHandler registers a handler to be called after the run ends.
func (e *ParallelEngine) RegisterEndHandler(handler EndHandler) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished should be called after the simulation completes. It calls all
// the registered EndHandlers.
func (e *ParallelEngine) Finished() {
	now := e.readNow()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
