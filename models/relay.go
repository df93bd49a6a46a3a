package models

import (
	"github.com/synlab/synapse/sim"
)

// A PreciseRelay forwards spikes arriving on off-grid connections,
// preserving their sub-step offsets. It buffers pending spikes in a precise
// event queue and re-emits each one in the lag its precise arrival time
// falls into.
type PreciseRelay struct {
	*sim.NodeBase

	edm *sim.EventDeliveryManager

	queue *sim.PreciseEventQueue
}

// NewPreciseRelay creates a PreciseRelay.
func NewPreciseRelay(
	name string,
	edm *sim.EventDeliveryManager,
) *PreciseRelay {
	return &PreciseRelay{
		NodeBase: sim.NewNodeBase(name),
		edm:      edm,
	}
}

// Calibrate is a no-op; the relay has no rate constants.
func (r *PreciseRelay) Calibrate() {}

// InitBuffers allocates the precise queue.
func (r *PreciseRelay) InitBuffers() {
	r.queue = sim.NewPreciseEventQueue()
}

// Update consumes every queued spike whose stamp falls into the slice and
// re-emits it with its offset intact.
func (r *PreciseRelay) Update(origin sim.Time, from, to int64) {
	if from == 0 {
		r.queue.PrepareDelivery()
	}

	originSteps := origin.Steps()

	for lag := from; lag < to; lag++ {
		for {
			sp, ok := r.queue.NextSpike(originSteps + lag)
			if !ok {
				break
			}

			ev := sim.SpikeEvent{
				Offset:       sp.Offset,
				Multiplicity: sp.Multiplicity,
			}
			r.edm.Send(r, &ev, lag)
		}
	}
}

// Handle is a contract violation: the relay only accepts off-grid
// connections.
func (r *PreciseRelay) Handle(ev *sim.SpikeEvent) {
	panicUnexpectedInput(r, ev)
}

// QueuePrecise buffers an off-grid spike until the slice its arrival falls
// into.
func (r *PreciseRelay) QueuePrecise(ev *sim.SpikeEvent) {
	r.queue.Add(sim.PreciseSpike{
		Stamp:        sim.TimeFromSteps(ev.ArrivalStep()),
		Offset:       ev.Offset,
		Weight:       ev.Weight,
		Multiplicity: ev.Multiplicity,
	})
}

// IsLocalOnly marks the relay as visible to remote workers.
func (r *PreciseRelay) IsLocalOnly() bool {
	return false
}

// PendingSpikes returns the number of spikes waiting in the queue.
func (r *PreciseRelay) PendingSpikes() int {
	return r.queue.Len()
}
