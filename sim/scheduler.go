package sim

import "log"

// A RegisterEntry is one outbound spike identity staged for delivery. The
// registers carry sender identities rather than fanned-out events, so the
// slice-boundary exchange moves the minimum amount of data and each worker
// resolves its own connections on the receiving side.
type RegisterEntry struct {
	Sender       NodeID
	Lag          int64
	Multiplicity int
	Offset       float64
}

// An ExchangeFunc moves each worker's outbound spike register to the workers
// that need it and returns one inbox per worker. It runs at the slice
// boundary while all workers are blocked, so it needs no internal ordering
// logic: registers arrive already sorted by ascending lag, then insertion
// order. A distributed implementation (an MPI-style all-to-all) can be
// substituted without touching the delivery manager's invariants.
type ExchangeFunc func(registers [][]RegisterEntry) [][]RegisterEntry

// LoopbackExchange returns the in-process ExchangeFunc: every worker's inbox
// is the concatenation of all workers' registers, in worker order.
func LoopbackExchange(numWorkers int) ExchangeFunc {
	return func(registers [][]RegisterEntry) [][]RegisterEntry {
		var all []RegisterEntry
		for _, reg := range registers {
			all = append(all, reg...)
		}

		inboxes := make([][]RegisterEntry, numWorkers)
		for w := range inboxes {
			inboxes[w] = all
		}

		return inboxes
	}
}

// An EventDeliveryManager routes events between nodes. A node calls Send
// during its own update; the manager either stages the event for direct
// local delivery (local-only senders) or appends the sender's identity to
// the worker's per-lag spike register for the slice-boundary exchange
// (network-visible senders).
//
// During a slice, Send only ever mutates the calling worker's own staging
// buffers, which is what permits lock-free parallel update: the min-delay
// invariant guarantees that nothing staged in slice N is read before slice
// N+1.
type EventDeliveryManager struct {
	HookableBase

	symbols    *SymbolTable
	nodes      []Node
	workerOf   []int
	partitions [][]Node
	numWorkers int
	exchange   ExchangeFunc

	routing      RoutingTable
	sliceSteps   int64
	remoteSender []bool

	prepared    bool
	inSlice     bool
	sliceOrigin Time

	local     [][]RegisterEntry
	registers [][][]RegisterEntry
}

// NewEventDeliveryManager creates a delivery manager for a fixed number of
// workers. A nil exchange selects the in-process loopback exchange.
func NewEventDeliveryManager(
	numWorkers int,
	exchange ExchangeFunc,
) *EventDeliveryManager {
	if numWorkers < 1 {
		log.Panicf("need at least one worker, got %d", numWorkers)
	}

	if exchange == nil {
		exchange = LoopbackExchange(numWorkers)
	}

	return &EventDeliveryManager{
		symbols:    NewSymbolTable(),
		numWorkers: numWorkers,
		exchange:   exchange,
		partitions: make([][]Node, numWorkers),
	}
}

// RegisterNode interns the node's name, assigns its ID, and places it on a
// worker round-robin. Registration must complete before PrepareRun.
func (edm *EventDeliveryManager) RegisterNode(n Node) NodeID {
	return edm.RegisterNodeOn(n, len(edm.nodes)%edm.numWorkers)
}

// RegisterNodeOn registers a node on a specific worker. Local-only nodes
// must live on the same worker as all of their receivers, so their placement
// sometimes needs to be explicit.
func (edm *EventDeliveryManager) RegisterNodeOn(n Node, worker int) NodeID {
	if edm.prepared {
		log.Panic("cannot register nodes after PrepareRun")
	}

	if worker < 0 || worker >= edm.numWorkers {
		log.Panicf("worker %d outside [0, %d)", worker, edm.numWorkers)
	}

	id := edm.symbols.Intern(n.Name())
	n.AssignID(id)

	edm.nodes = append(edm.nodes, n)
	edm.workerOf = append(edm.workerOf, worker)
	edm.partitions[worker] = append(edm.partitions[worker], n)

	return id
}

// PrepareRun freezes the topology. It fixes the slice length from the
// network's minimum delay, classifies senders by remote visibility, and
// allocates the per-worker spike registers. Topology mutation after
// PrepareRun is a contract violation.
func (edm *EventDeliveryManager) PrepareRun(routing RoutingTable) {
	if edm.prepared {
		log.Panic("PrepareRun called twice")
	}

	edm.routing = routing
	edm.sliceSteps = routing.MinDelaySteps()

	edm.remoteSender = make([]bool, len(edm.nodes))
	for id, n := range edm.nodes {
		src := NodeID(id)

		if n.IsLocalOnly() {
			edm.localTargetsMustBeOnWorker(src, edm.workerOf[id])
			continue
		}

		edm.remoteSender[id] = true
	}

	edm.local = make([][]RegisterEntry, edm.numWorkers)
	edm.registers = make([][][]RegisterEntry, edm.numWorkers)
	for w := range edm.registers {
		edm.registers[w] = make([][]RegisterEntry, edm.sliceSteps)
	}

	edm.prepared = true
}

func (edm *EventDeliveryManager) localTargetsMustBeOnWorker(
	src NodeID,
	worker int,
) {
	for _, tg := range edm.routing.TargetsOf(src) {
		if edm.workerOf[tg.Receiver] != worker {
			log.Panicf(
				"local-only node %s targets %s on another worker",
				edm.symbols.NameOf(src), edm.symbols.NameOf(tg.Receiver))
		}
	}
}

// StartSlice begins a new slice at the given grid-aligned origin.
func (edm *EventDeliveryManager) StartSlice(origin Time) {
	if !edm.prepared {
		log.Panic("StartSlice before PrepareRun")
	}

	if edm.inSlice {
		log.Panic("previous slice not finished")
	}

	if !origin.IsGridTime() {
		log.Panicf("slice origin %s is not on the step grid", origin)
	}

	edm.sliceOrigin = origin
	edm.inSlice = true
}

// Send accepts an event emitted by src during the current slice. lag is the
// zero-based step offset within the slice; the event's delivery stamp is set
// to origin+lag+1 steps, so delivery is always at least one step after
// emission. A lag outside [0, sliceSteps) indicates a bug in the calling
// model, not a runtime condition, and aborts the run.
//
// Consecutive sends from the same sender within the same lag coalesce into
// one entry with a summed multiplicity.
func (edm *EventDeliveryManager) Send(src Node, ev *SpikeEvent, lag int64) {
	if !edm.inSlice {
		log.Panic("Send called outside an update slice")
	}

	if lag < 0 || lag >= edm.sliceSteps {
		log.Panicf("lag %d outside [0, %d)", lag, edm.sliceSteps)
	}

	id := src.ID()
	ev.Sender = id
	ev.Stamp = edm.sliceOrigin.Add(TimeFromSteps(lag + 1))
	if ev.Multiplicity <= 0 {
		ev.Multiplicity = 1
	}

	if edm.NumHooks() > 0 {
		edm.InvokeHook(HookCtx{
			Domain: edm,
			Pos:    HookPosSpikeSend,
			Item:   ev,
		})
	}

	entry := RegisterEntry{
		Sender:       id,
		Lag:          lag,
		Multiplicity: ev.Multiplicity,
		Offset:       ev.Offset,
	}

	w := edm.workerOf[id]
	if edm.remoteSender[id] {
		edm.registers[w][lag] = coalesce(edm.registers[w][lag], entry)
		return
	}

	edm.local[w] = coalesce(edm.local[w], entry)
}

func coalesce(entries []RegisterEntry, e RegisterEntry) []RegisterEntry {
	if n := len(entries); n > 0 {
		back := &entries[n-1]
		if back.Sender == e.Sender &&
			back.Lag == e.Lag &&
			back.Offset == e.Offset {
			back.Multiplicity += e.Multiplicity
			return entries
		}
	}

	return append(entries, e)
}

// FinishSlice delivers the worker's staged direct-path events. It is called
// by the worker itself once all of its nodes have been updated for the
// slice, before the boundary exchange.
func (edm *EventDeliveryManager) FinishSlice(worker int) {
	for _, entry := range edm.local[worker] {
		edm.fanOut(worker, entry)
	}

	edm.local[worker] = edm.local[worker][:0]
}

// Exchange drains all spike registers in ascending lag then insertion order
// and runs the collective exchange. It must only run once all workers have
// finished emitting for the slice.
func (edm *EventDeliveryManager) Exchange() [][]RegisterEntry {
	if !edm.inSlice {
		log.Panic("Exchange called outside a slice")
	}

	outbound := make([][]RegisterEntry, edm.numWorkers)
	for w := range edm.registers {
		for lag := range edm.registers[w] {
			outbound[w] = append(outbound[w], edm.registers[w][lag]...)
			edm.registers[w][lag] = edm.registers[w][lag][:0]
		}
	}

	return edm.exchange(outbound)
}

// DeliverInbox fans an exchanged inbox out to the worker's own nodes. Other
// workers' nodes are skipped; every worker walks the same inbox.
func (edm *EventDeliveryManager) DeliverInbox(
	worker int,
	inbox []RegisterEntry,
) {
	for _, entry := range inbox {
		edm.fanOut(worker, entry)
	}
}

// EndSlice closes the current slice.
func (edm *EventDeliveryManager) EndSlice() {
	if !edm.inSlice {
		log.Panic("EndSlice without StartSlice")
	}

	edm.inSlice = false
}

func (edm *EventDeliveryManager) fanOut(worker int, entry RegisterEntry) {
	stamp := edm.sliceOrigin.Add(TimeFromSteps(entry.Lag + 1))

	for _, tg := range edm.routing.TargetsOf(entry.Sender) {
		if edm.workerOf[tg.Receiver] != worker {
			continue
		}

		ev := SpikeEvent{
			Sender:       entry.Sender,
			Rport:        tg.Rport,
			Stamp:        stamp,
			Offset:       entry.Offset,
			Weight:       tg.Weight,
			Multiplicity: entry.Multiplicity,
			DelaySteps:   tg.DelaySteps,
		}

		node := edm.nodes[tg.Receiver]

		if edm.NumHooks() > 0 {
			edm.InvokeHook(HookCtx{
				Domain: edm,
				Pos:    HookPosSpikeDeliver,
				Item:   &ev,
			})
		}

		if tg.OffGrid {
			pr, ok := node.(PreciseReceiver)
			if !ok {
				log.Panicf("node %s cannot receive off-grid events",
					node.Name())
			}

			pr.QueuePrecise(&ev)
			continue
		}

		node.Handle(&ev)
	}
}

// SliceSteps returns the slice length in steps, equal to the network's
// minimum delay.
func (edm *EventDeliveryManager) SliceSteps() int64 {
	if !edm.prepared {
		log.Panic("slice length unknown before PrepareRun")
	}

	return edm.sliceSteps
}

// SliceOrigin returns the origin of the slice currently being updated.
func (edm *EventDeliveryManager) SliceOrigin() Time {
	return edm.sliceOrigin
}

// MaxDelaySteps returns the network's maximum connection delay. Nodes size
// their receive buffers with it during InitBuffers.
func (edm *EventDeliveryManager) MaxDelaySteps() int64 {
	if !edm.prepared {
		log.Panic("delay extrema unknown before PrepareRun")
	}

	return edm.routing.MaxDelaySteps()
}

// NumWorkers returns the number of workers the manager routes for.
func (edm *EventDeliveryManager) NumWorkers() int {
	return edm.numWorkers
}

// Nodes returns all registered nodes in registration order.
func (edm *EventDeliveryManager) Nodes() []Node {
	return edm.nodes
}

// NodesOnWorker returns the worker's node partition in registration order.
func (edm *EventDeliveryManager) NodesOnWorker(worker int) []Node {
	return edm.partitions[worker]
}

// WorkerOf returns the worker that owns a node.
func (edm *EventDeliveryManager) WorkerOf(id NodeID) int {
	return edm.workerOf[id]
}

// Symbols returns the symbol table that owns the node names.
func (edm *EventDeliveryManager) Symbols() *SymbolTable {
	return edm.symbols
}
