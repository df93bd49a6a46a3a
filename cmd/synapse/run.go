package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/synlab/synapse/models"
	"github.com/synlab/synapse/sim"
	"github.com/synlab/synapse/simulation"
)

var runFlags struct {
	durationMS   float64
	resolutionMS float64
	numWorkers   int
	seed         int64
	numNeurons   int
	rateHz       float64
	weight       float64
	delayMS      float64
	monitorOn    bool
	monitorPort  int
	output       string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark network",
	Long: `Run a benchmark network of Poisson generators driving ` +
		`integrate-and-fire neurons, recording every output spike into a ` +
		`SQLite database.`,
	Run: func(cmd *cobra.Command, args []string) {
		runBenchmark()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Float64Var(&runFlags.durationMS,
		"duration", 1000, "simulated duration in ms")
	runCmd.Flags().Float64Var(&runFlags.resolutionMS,
		"resolution", 0.1, "step size in ms")
	runCmd.Flags().IntVar(&runFlags.numWorkers,
		"workers", 1, "number of update workers")
	runCmd.Flags().Int64Var(&runFlags.seed,
		"seed", envInt64("SYNAPSE_SEED", 1), "master random seed")
	runCmd.Flags().IntVar(&runFlags.numNeurons,
		"neurons", 100, "number of neurons")
	runCmd.Flags().Float64Var(&runFlags.rateHz,
		"rate", 1000, "input rate per neuron in Hz")
	runCmd.Flags().Float64Var(&runFlags.weight,
		"weight", 2.5, "synaptic weight")
	runCmd.Flags().Float64Var(&runFlags.delayMS,
		"delay", 1.0, "synaptic delay in ms")
	runCmd.Flags().BoolVar(&runFlags.monitorOn,
		"monitor", false, "start the monitoring server")
	runCmd.Flags().IntVar(&runFlags.monitorPort,
		"monitor-port", envInt("SYNAPSE_MONITOR_PORT", 0),
		"port for the monitoring server, 0 picks a free port")
	runCmd.Flags().StringVar(&runFlags.output,
		"output", "", "recording database name, empty generates one")
}

func envInt64(key string, fallback int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	return int(envInt64(key, int64(fallback)))
}

func runBenchmark() {
	sim.SetResolution(runFlags.resolutionMS)

	builder := simulation.MakeBuilder().
		WithNumWorkers(runFlags.numWorkers).
		WithSeed(runFlags.seed).
		WithOutputFileName(runFlags.output)
	if runFlags.monitorOn {
		builder = builder.WithMonitorPort(runFlags.monitorPort)
	} else {
		builder = builder.WithoutMonitoring()
	}

	s := builder.Build()
	defer s.Terminate()

	edm := s.GetDeliveryManager()
	routing := sim.NewTable()
	delay := sim.TimeFromMS(runFlags.delayMS)

	recorder := models.NewSpikeRecorder("Recorder", s.GetDataRecorder())
	recorderID := s.RegisterNode(recorder)

	for i := 0; i < runFlags.numNeurons; i++ {
		worker := i % runFlags.numWorkers

		gen := models.NewPoissonGenerator(
			fmt.Sprintf("Source[%d]", i),
			edm, s.GetStream(worker), runFlags.rateHz)
		genID := s.RegisterNodeOn(gen, worker)

		neuron := models.NewIAFNeuron(
			fmt.Sprintf("Neuron[%d]", i), edm, 10.0, 20.0)
		neuron.Refractory = sim.TimeFromMS(2.0)
		neuronID := s.RegisterNodeOn(neuron, worker)

		routing.Connect(genID, neuronID, delay, runFlags.weight, 0)
		routing.Connect(neuronID, recorderID, delay, 1.0, 0)
	}

	s.Init(routing)

	err := s.Run(sim.TimeFromMS(runFlags.durationMS).Calibrate())
	dieOnErr(err)

	fmt.Printf("Simulated %.1f ms, recorded %d spikes into %s\n",
		runFlags.durationMS, len(recorder.Spikes()),
		s.GetDataRecorder().ListTables())
}
