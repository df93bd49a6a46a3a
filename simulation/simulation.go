// Package simulation assembles the pieces of a run: the delivery manager, an
// engine, per-worker random streams, a data recorder, and an optional
// monitoring server.
package simulation

import (
	"github.com/synlab/synapse/datarecording"
	"github.com/synlab/synapse/monitoring"
	"github.com/synlab/synapse/rng"
	"github.com/synlab/synapse/sim"
)

// A Simulation provides the services required to define and run a network.
type Simulation struct {
	id string

	edm     *sim.EventDeliveryManager
	engine  sim.Engine
	streams *rng.Set

	dataRecorder datarecording.DataRecorder
	runRecorder  *datarecording.RunRecorder
	monitor      *monitoring.Monitor
	progress     *sliceProgressHook
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// RegisterNode registers a node with the simulation, placing it on a worker
// round-robin.
func (s *Simulation) RegisterNode(n sim.Node) sim.NodeID {
	id := s.edm.RegisterNode(n)

	if s.monitor != nil {
		s.monitor.RegisterNode(n)
	}

	return id
}

// RegisterNodeOn registers a node on a specific worker.
func (s *Simulation) RegisterNodeOn(n sim.Node, worker int) sim.NodeID {
	id := s.edm.RegisterNodeOn(n, worker)

	if s.monitor != nil {
		s.monitor.RegisterNode(n)
	}

	return id
}

// GetNodeByName returns the node with the given name, or nil if no node with
// that name is registered.
func (s *Simulation) GetNodeByName(name string) sim.Node {
	id, ok := s.edm.Symbols().Lookup(name)
	if !ok {
		return nil
	}

	return s.edm.Nodes()[id]
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDeliveryManager returns the event delivery manager.
func (s *Simulation) GetDeliveryManager() *sim.EventDeliveryManager {
	return s.edm
}

// GetStream returns the random stream owned by a worker.
func (s *Simulation) GetStream(worker int) rng.Stream {
	return s.streams.Stream(worker)
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation. It is nil when
// monitoring is disabled.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Init freezes the topology and prepares every node for the run. Calibration
// runs before buffer initialization, so buffers are always sized from
// up-to-date step counts.
func (s *Simulation) Init(routing sim.RoutingTable) {
	s.edm.PrepareRun(routing)

	for _, n := range s.edm.Nodes() {
		n.Calibrate()
	}

	for _, n := range s.edm.Nodes() {
		n.InitBuffers()
	}
}

// Run advances the simulation to the given stop time. When monitoring is
// enabled, the run is tracked by a progress bar counting steps.
func (s *Simulation) Run(stopTime sim.Time) error {
	if s.monitor != nil && stopTime.IsFinite() {
		remaining := stopTime.Steps() - s.engine.CurrentTime().Steps()
		if remaining > 0 {
			bar := s.monitor.CreateProgressBar(
				"Run to "+stopTime.String(), uint64(remaining))
			s.progress.track(bar)

			defer func() {
				s.progress.track(nil)
				s.monitor.CompleteProgressBar(bar)
			}()
		}
	}

	s.engine.SetStopTime(stopTime)

	if err := s.engine.Run(); err != nil {
		return err
	}

	s.engine.Finished()

	return nil
}

// Terminate terminates the simulation.
func (s *Simulation) Terminate() {
	s.runRecorder.End()
	s.dataRecorder.Close()
}
