package models

import (
	"math"

	"github.com/synlab/synapse/sim"
)

// An IAFNeuron is a leaky integrate-and-fire neuron with exponential
// membrane decay, a hard threshold, and an absolute refractory period. Input
// spikes accumulate as weighted currents in the neuron's ring buffer;
// multiplicities count coincident unit events from one sender and scale the
// connection weight accordingly.
type IAFNeuron struct {
	*sim.NodeBase

	edm *sim.EventDeliveryManager

	// TauMS is the membrane time constant in milliseconds.
	TauMS float64

	// Threshold is the firing threshold of the membrane potential.
	Threshold float64

	// Reset is the potential the membrane is clamped to after a spike.
	Reset float64

	// Refractory is the absolute refractory period. It must be a multiple
	// of the resolution.
	Refractory sim.Time

	v               float64
	decay           float64
	refractorySteps int64
	refractoryLeft  int64

	input *sim.RingBuffer
}

// NewIAFNeuron creates an IAFNeuron with the given membrane parameters.
func NewIAFNeuron(
	name string,
	edm *sim.EventDeliveryManager,
	tauMS, threshold float64,
) *IAFNeuron {
	return &IAFNeuron{
		NodeBase:  sim.NewNodeBase(name),
		edm:       edm,
		TauMS:     tauMS,
		Threshold: threshold,
		Reset:     0,
	}
}

// Calibrate derives the per-step decay factor and the refractory step count
// from the current resolution.
func (n *IAFNeuron) Calibrate() {
	n.decay = math.Exp(-sim.Resolution() / n.TauMS)
	n.Refractory = n.Refractory.Calibrate()
	n.refractorySteps = n.Refractory.Steps()
}

// InitBuffers sizes the input buffer from the network's delay extrema and
// resets the membrane state.
func (n *IAFNeuron) InitBuffers() {
	n.input = sim.NewRingBuffer(n.edm.SliceSteps(), n.edm.MaxDelaySteps())
	n.v = n.Reset
	n.refractoryLeft = 0
}

// Update advances the membrane for the step range [from, to) and emits a
// spike in every step the threshold is crossed.
func (n *IAFNeuron) Update(origin sim.Time, from, to int64) {
	originSteps := origin.Steps()

	for lag := from; lag < to; lag++ {
		in := n.input.Take(originSteps + lag)

		if n.refractoryLeft > 0 {
			n.refractoryLeft--
			n.v = n.Reset
			continue
		}

		n.v = n.v*n.decay + in

		if n.v >= n.Threshold {
			n.v = n.Reset
			n.refractoryLeft = n.refractorySteps

			ev := sim.SpikeEvent{}
			n.edm.Send(n, &ev, lag)
		}
	}
}

// Handle accumulates the incoming spike's weighted current into the input
// buffer slot for its arrival step.
func (n *IAFNeuron) Handle(ev *sim.SpikeEvent) {
	n.input.Add(ev.ArrivalStep(), ev.Weight*float64(ev.Multiplicity))
}

// IsLocalOnly marks the neuron as visible to remote workers.
func (n *IAFNeuron) IsLocalOnly() bool {
	return false
}

// Potential returns the current membrane potential.
func (n *IAFNeuron) Potential() float64 {
	return n.v
}
