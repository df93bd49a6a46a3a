package models

import (
	"log"

	"github.com/synlab/synapse/sim"
)

// A SpikeGenerator emits spikes at a fixed list of grid times. It is the
// deterministic counterpart of the PoissonGenerator, used wherever a
// reproducible stimulus is needed.
type SpikeGenerator struct {
	*sim.NodeBase

	edm *sim.EventDeliveryManager

	spikeTimes []sim.Time
	next       int
}

// NewSpikeGenerator creates a SpikeGenerator. All spike times must lie on
// the step grid; a generator with off-grid stimulus times is a parameter
// error the caller must resolve before the run starts.
func NewSpikeGenerator(
	name string,
	edm *sim.EventDeliveryManager,
	spikeTimes []sim.Time,
) *SpikeGenerator {
	g := &SpikeGenerator{
		NodeBase:   sim.NewNodeBase(name),
		edm:        edm,
		spikeTimes: spikeTimes,
	}

	for _, t := range spikeTimes {
		if !t.IsGridTime() {
			log.Panicf("spike time %s is not on the step grid", t)
		}
	}

	return g
}

// Calibrate re-derives the step representation of the configured spike
// times.
func (g *SpikeGenerator) Calibrate() {
	for i, t := range g.spikeTimes {
		g.spikeTimes[i] = t.Calibrate()
		if !g.spikeTimes[i].IsGridTime() {
			log.Panicf("spike time %s is not on the step grid", t)
		}
	}
}

// InitBuffers resets the emission cursor.
func (g *SpikeGenerator) InitBuffers() {
	g.next = 0
}

// Update emits every configured spike whose time falls into the slice. A
// spike configured for step s is emitted in lag s-origin, so its delivery
// stamp is s+1.
func (g *SpikeGenerator) Update(origin sim.Time, from, to int64) {
	originSteps := origin.Steps()

	for g.next < len(g.spikeTimes) {
		lag := g.spikeTimes[g.next].Steps() - originSteps
		if lag >= to {
			return
		}

		if lag >= from {
			ev := sim.SpikeEvent{}
			g.edm.Send(g, &ev, lag)
		}

		g.next++
	}
}

// Handle is a contract violation: generators have no input connections.
func (g *SpikeGenerator) Handle(ev *sim.SpikeEvent) {
	panicUnexpectedInput(g, ev)
}

// IsLocalOnly marks the generator as invisible to remote workers.
func (g *SpikeGenerator) IsLocalOnly() bool {
	return true
}

func panicUnexpectedInput(n sim.Node, ev *sim.SpikeEvent) {
	log.Panicf("node %s received an unexpected event from node %d",
		n.Name(), ev.Sender)
}
