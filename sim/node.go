package sim

import "log"

// A Node is a simulation unit (neuron, generator, recorder) that is updated
// once per time slice. The kernel only ever depends on this capability set,
// never on concrete model types.
type Node interface {
	Named
	Hookable

	// ID returns the node's identity, assigned at registration.
	ID() NodeID

	// AssignID is called exactly once by the delivery manager when the node
	// is registered.
	AssignID(id NodeID)

	// Calibrate derives internal rate constants from the current
	// resolution. It is called whenever the resolution or the node's
	// parameters change.
	Calibrate()

	// InitBuffers allocates or resizes the node's per-slice buffers. It is
	// called after the network topology is final, so buffer sizes may
	// depend on the network's delay extrema.
	InitBuffers()

	// Update advances the node's local state for the step range [from, to)
	// relative to the slice origin, emitting events through the delivery
	// manager's Send.
	Update(origin Time, from, to int64)

	// Handle accepts one delivered event. It must be safe to call
	// repeatedly with coalesced multiplicities and must not assume any
	// delivery order among distinct senders within the same lag.
	Handle(ev *SpikeEvent)

	// IsLocalOnly tells if the node is invisible to remote workers, such as
	// most generators and recorders. Events from local-only nodes take the
	// direct delivery path and never enter the spike registers.
	IsLocalOnly() bool
}

// A PreciseReceiver is a node that accepts off-grid events. The delivery
// manager routes events on off-grid connections through QueuePrecise instead
// of Handle; connecting an off-grid connection to a node that does not
// implement this interface is a contract violation.
type PreciseReceiver interface {
	Node

	QueuePrecise(ev *SpikeEvent)
}

// NodeBase provides the identity plumbing shared by all node models.
type NodeBase struct {
	HookableBase

	name string
	id   NodeID
}

// NewNodeBase creates a new NodeBase.
func NewNodeBase(name string) *NodeBase {
	NameMustBeValid(name)

	return &NodeBase{
		name: name,
		id:   -1,
	}
}

// Name returns the name of the node.
func (b *NodeBase) Name() string {
	return b.name
}

// ID returns the node's identity.
func (b *NodeBase) ID() NodeID {
	if b.id < 0 {
		log.Panicf("node %s used before registration", b.name)
	}

	return b.id
}

// AssignID sets the node's identity. Re-assignment is a contract violation.
func (b *NodeBase) AssignID(id NodeID) {
	if b.id >= 0 {
		log.Panicf("node %s already has an ID", b.name)
	}

	b.id = id
}
