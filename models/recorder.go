package models

import (
	"github.com/synlab/synapse/datarecording"
	"github.com/synlab/synapse/sim"
)

// SpikeTrace is one recorded spike, as written to the recording backend.
type SpikeTrace struct {
	Sender       int
	Step         int64
	TimeMS       float64
	OffsetMS     float64
	Weight       float64
	Multiplicity int
}

// A SpikeRecorder collects every spike delivered to it. Spikes are kept in
// memory and, when a recording backend is attached, streamed into the
// "spikes" table. The recorder is local-only and emits nothing.
type SpikeRecorder struct {
	*sim.NodeBase

	recorder datarecording.DataRecorder
	spikes   []SpikeTrace
}

// SpikesTableName is the recording table spike traces are written to.
const SpikesTableName = "spikes"

// NewSpikeRecorder creates a SpikeRecorder. The backend may be nil, in which
// case spikes are only kept in memory.
func NewSpikeRecorder(
	name string,
	recorder datarecording.DataRecorder,
) *SpikeRecorder {
	r := &SpikeRecorder{
		NodeBase: sim.NewNodeBase(name),
		recorder: recorder,
	}

	if recorder != nil {
		recorder.CreateTable(SpikesTableName, SpikeTrace{})
	}

	return r
}

// Calibrate is a no-op; the recorder has no rate constants.
func (r *SpikeRecorder) Calibrate() {}

// InitBuffers clears previously recorded spikes.
func (r *SpikeRecorder) InitBuffers() {
	r.spikes = nil
}

// Update is a no-op; the recorder is purely reactive.
func (r *SpikeRecorder) Update(origin sim.Time, from, to int64) {}

// Handle records one delivered spike.
func (r *SpikeRecorder) Handle(ev *sim.SpikeEvent) {
	trace := SpikeTrace{
		Sender:       int(ev.Sender),
		Step:         ev.ArrivalStep(),
		TimeMS:       ev.ArrivalTime().MS(),
		OffsetMS:     ev.Offset,
		Weight:       ev.Weight,
		Multiplicity: ev.Multiplicity,
	}

	r.spikes = append(r.spikes, trace)

	if r.recorder != nil {
		r.recorder.InsertData(SpikesTableName, trace)
	}
}

// IsLocalOnly marks the recorder as invisible to remote workers.
func (r *SpikeRecorder) IsLocalOnly() bool {
	return true
}

// Spikes returns the spikes recorded so far, in delivery order.
func (r *SpikeRecorder) Spikes() []SpikeTrace {
	return r.spikes
}
