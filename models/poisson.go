// Package models holds the node models that ship with the kernel: spike
// sources, a conductance-free integrate-and-fire neuron, a precise relay,
// and recording sinks. Every model is a client of the kernel's update and
// event-handling contracts; the kernel never depends on any concrete model.
package models

import (
	"github.com/synlab/synapse/rng"
	"github.com/synlab/synapse/sim"
)

// A PoissonGenerator emits Poisson-distributed spike trains. Coincident
// spikes within one step are emitted as a single event with the matching
// multiplicity. The generator is local-only: it must live on the same worker
// as its receivers.
type PoissonGenerator struct {
	*sim.NodeBase

	edm    *sim.EventDeliveryManager
	stream rng.Stream

	// RateHz is the expected firing rate in spikes per second.
	RateHz float64

	// Start and Stop bound the activation window. Stop defaults to the
	// positive-infinity sentinel.
	Start sim.Time
	Stop  sim.Time

	expectedPerStep float64
}

// NewPoissonGenerator creates a PoissonGenerator.
func NewPoissonGenerator(
	name string,
	edm *sim.EventDeliveryManager,
	stream rng.Stream,
	rateHz float64,
) *PoissonGenerator {
	return &PoissonGenerator{
		NodeBase: sim.NewNodeBase(name),
		edm:      edm,
		stream:   stream,
		RateHz:   rateHz,
		Start:    sim.ZeroTime(),
		Stop:     sim.PosInfTime(),
	}
}

// Calibrate derives the per-step spike expectation from the current
// resolution.
func (g *PoissonGenerator) Calibrate() {
	g.expectedPerStep = g.RateHz / 1000.0 * sim.Resolution()
	g.Start = g.Start.Calibrate()
	g.Stop = g.Stop.Calibrate()
}

// InitBuffers is a no-op; the generator holds no per-slice state.
func (g *PoissonGenerator) InitBuffers() {}

// Update draws one Poisson count per step and emits a single event with the
// count as multiplicity.
func (g *PoissonGenerator) Update(origin sim.Time, from, to int64) {
	for lag := from; lag < to; lag++ {
		stepTime := origin.Add(sim.TimeFromSteps(lag))
		if stepTime.Before(g.Start) || !stepTime.Before(g.Stop) {
			continue
		}

		n := g.stream.Poisson(g.expectedPerStep)
		if n == 0 {
			continue
		}

		ev := sim.SpikeEvent{Multiplicity: int(n)}
		g.edm.Send(g, &ev, lag)
	}
}

// Handle is a contract violation: generators have no input connections.
func (g *PoissonGenerator) Handle(ev *sim.SpikeEvent) {
	panicUnexpectedInput(g, ev)
}

// IsLocalOnly marks the generator as invisible to remote workers.
func (g *PoissonGenerator) IsLocalOnly() bool {
	return true
}
