package sim

// NodeID identifies a node within a simulation. IDs are dense, assigned by
// the delivery manager's symbol table in registration order.
type NodeID int

// A SpikeEvent is a timed message exchanged between nodes. It is owned by
// the sending node while it is being stamped and read-only once it is handed
// to the delivery manager. Receivers see one event per coalesced group of
// simultaneous unit spikes: Multiplicity counts the unit events, Weight is
// the connection weight. The two fields are orthogonal.
type SpikeEvent struct {
	Sender NodeID

	// Rport disambiguates multiple logical input channels on one receiver.
	Rport int

	// Stamp is the delivery stamp, always at least one step after the step
	// in which the spike was emitted.
	Stamp Time

	// Offset is the sub-step offset in milliseconds before the stamp. It is
	// only meaningful on off-grid connections and is zero otherwise.
	Offset float64

	Weight       float64
	Multiplicity int

	// DelaySteps is the delay of the connection the event traveled over. It
	// is filled in by the delivery manager during fan-out.
	DelaySteps int64
}

// IsOffGrid tells if the event carries a sub-step offset.
func (e *SpikeEvent) IsOffGrid() bool {
	return e.Offset != 0
}

// ArrivalStep returns the absolute step at which the event becomes visible
// to the receiver. A spike emitted in step s over a connection with delay d
// arrives in step s+d; the stamp marks s+1.
func (e *SpikeEvent) ArrivalStep() int64 {
	return e.Stamp.Steps() + e.DelaySteps - 1
}

// ArrivalTime returns the precise arrival instant, taking the sub-step
// offset into account.
func (e *SpikeEvent) ArrivalTime() Time {
	arrival := TimeFromSteps(e.ArrivalStep())
	if e.Offset == 0 {
		return arrival
	}

	return arrival.Sub(TimeFromMS(e.Offset))
}
