package sim

import "log"

// A Target is one outgoing connection of a node: the receiver, the input
// port on the receiver, the connection delay and weight, and whether the
// connection delivers off the step grid.
type Target struct {
	Receiver   NodeID
	Rport      int
	DelaySteps int64
	Weight     float64
	OffGrid    bool
}

// A RoutingTable maps a source node to its outgoing connections and knows
// the delay extrema of the network. It is read-only during a run; topology
// construction never overlaps with node updates.
type RoutingTable interface {
	TargetsOf(src NodeID) []Target
	HasTargets(src NodeID) bool

	// MinDelaySteps is the network's minimum connection delay. It fixes the
	// slice length.
	MinDelaySteps() int64

	// MaxDelaySteps is the network's maximum connection delay. It sizes the
	// receive buffers.
	MaxDelaySteps() int64
}

// Table is the in-memory RoutingTable implementation.
type Table struct {
	targets  map[NodeID][]Target
	minDelay int64
	maxDelay int64
}

// NewTable creates an empty routing table.
func NewTable() *Table {
	return &Table{
		targets: make(map[NodeID][]Target),
	}
}

// Connect adds an on-grid connection. The delay must be a positive multiple
// of the resolution; a zero or off-grid delay on a plain connection would
// let an event cross a causality boundary, so it is rejected here rather
// than silently rounded.
func (t *Table) Connect(src, dst NodeID, delay Time, weight float64, rport int) {
	t.addConnection(src, dst, delay, weight, rport, false)
}

// ConnectOffGrid adds a connection whose events carry a sub-step offset. The
// delay itself still lives on the step grid; only the event timing within a
// step is free.
func (t *Table) ConnectOffGrid(
	src, dst NodeID,
	delay Time,
	weight float64,
	rport int,
) {
	t.addConnection(src, dst, delay, weight, rport, true)
}

func (t *Table) addConnection(
	src, dst NodeID,
	delay Time,
	weight float64,
	rport int,
	offGrid bool,
) {
	if !delay.IsGridTime() {
		log.Panicf("connection delay %s is not on the step grid", delay)
	}

	steps := delay.Steps()
	if steps < 1 {
		log.Panicf("connection delay must be at least one step, got %d",
			steps)
	}

	t.targets[src] = append(t.targets[src], Target{
		Receiver:   dst,
		Rport:      rport,
		DelaySteps: steps,
		Weight:     weight,
		OffGrid:    offGrid,
	})

	if t.minDelay == 0 || steps < t.minDelay {
		t.minDelay = steps
	}

	if steps > t.maxDelay {
		t.maxDelay = steps
	}
}

// TargetsOf returns the outgoing connections of a node, in connection order.
func (t *Table) TargetsOf(src NodeID) []Target {
	return t.targets[src]
}

// HasTargets tells if the node has any outgoing connection.
func (t *Table) HasTargets(src NodeID) bool {
	return len(t.targets[src]) > 0
}

// MinDelaySteps returns the minimum delay of any connection.
func (t *Table) MinDelaySteps() int64 {
	if t.minDelay == 0 {
		// A network without connections still needs a slice length.
		return 1
	}

	return t.minDelay
}

// MaxDelaySteps returns the maximum delay of any connection.
func (t *Table) MaxDelaySteps() int64 {
	if t.maxDelay == 0 {
		return 1
	}

	return t.maxDelay
}
