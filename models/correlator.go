package models

import (
	"github.com/synlab/synapse/sim"
)

// A Correlator counts, for each incoming spike, how many earlier spikes fell
// within a bounded history window. It owns the window policy: spikes older
// than TauMax relative to the newest arrival are pruned from its precise
// queue on every delivery.
type Correlator struct {
	*sim.NodeBase

	// TauMax is the history window. Entries whose age reaches the window
	// edge are evicted.
	TauMax sim.Time

	history      *sim.PreciseEventQueue
	coincidences int64
}

// NewCorrelator creates a Correlator with the given history window.
func NewCorrelator(name string, tauMax sim.Time) *Correlator {
	return &Correlator{
		NodeBase: sim.NewNodeBase(name),
		TauMax:   tauMax,
	}
}

// Calibrate re-derives the window's step representation.
func (c *Correlator) Calibrate() {
	c.TauMax = c.TauMax.Calibrate()
}

// InitBuffers resets the history.
func (c *Correlator) InitBuffers() {
	c.history = sim.NewPreciseEventQueue()
	c.coincidences = 0
}

// Update is a no-op; the correlator is purely reactive.
func (c *Correlator) Update(origin sim.Time, from, to int64) {}

// Handle prunes the history window relative to the new spike, counts the
// remaining entries as coincidences, and appends the new spike.
func (c *Correlator) Handle(ev *sim.SpikeEvent) {
	arrival := ev.ArrivalTime()

	// Evict every entry with (arrival - entry) >= TauMax.
	c.history.PruneBefore(arrival.Sub(c.TauMax).Add(sim.TimeFromTics(1)))

	c.coincidences += int64(c.history.Len()) * int64(ev.Multiplicity)

	// The queue positions entries at Stamp - Offset, with no delay term, so
	// the stored stamp must be the arrival step rather than the raw delivery
	// stamp. Otherwise entries age by the connection delay.
	c.history.Add(sim.PreciseSpike{
		Stamp:        sim.TimeFromSteps(ev.ArrivalStep()),
		Offset:       ev.Offset,
		Weight:       ev.Weight,
		Multiplicity: ev.Multiplicity,
	})
}

// IsLocalOnly marks the correlator as invisible to remote workers.
func (c *Correlator) IsLocalOnly() bool {
	return true
}

// Coincidences returns the number of in-window spike pairs seen so far.
func (c *Correlator) Coincidences() int64 {
	return c.coincidences
}

// WindowSize returns the number of spikes currently held in the window.
func (c *Correlator) WindowSize() int {
	return c.history.Len()
}
