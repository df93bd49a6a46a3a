package simulation

import (
	"github.com/rs/xid"

	"github.com/synlab/synapse/datarecording"
	"github.com/synlab/synapse/monitoring"
	"github.com/synlab/synapse/rng"
	"github.com/synlab/synapse/sim"
)

// Builder can be used to build a simulation.
type Builder struct {
	numWorkers     int
	seed           int64
	exchange       sim.ExchangeFunc
	monitorOn      bool
	monitorPort    int
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		numWorkers: 1,
		seed:       1,
		monitorOn:  true,
	}
}

// WithNumWorkers sets the number of workers the network is partitioned over.
// A single worker selects the serial engine; more than one selects the
// parallel engine.
func (b Builder) WithNumWorkers(n int) Builder {
	b.numWorkers = n
	return b
}

// WithSeed sets the master seed the per-worker random streams derive from.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithExchange sets a custom collective exchange. The default is the
// in-process loopback exchange.
func (b Builder) WithExchange(exchange sim.ExchangeFunc) Builder {
	b.exchange = exchange
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.numWorkers < 1 {
		panic("a simulation needs at least one worker")
	}

	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{}

	s.id = xid.New().String()

	s.edm = sim.NewEventDeliveryManager(b.numWorkers, b.exchange)

	if b.numWorkers > 1 {
		s.engine = sim.NewParallelEngine(s.edm)
	} else {
		s.engine = sim.NewSerialEngine(s.edm)
	}

	s.streams = rng.NewSet(b.seed, b.numWorkers)

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "synapse_sim_" + s.id
	}
	s.dataRecorder = datarecording.NewDataRecorder(outputPath)

	s.runRecorder = datarecording.NewRunRecorder(s.dataRecorder)
	s.runRecorder.Start()

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)

		s.progress = &sliceProgressHook{edm: s.edm}
		s.engine.AcceptHook(s.progress)

		s.monitor.StartServer(false)
	}

	return s
}
