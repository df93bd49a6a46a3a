package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfo is one piece of run metadata, written to the run_info table.
type RunInfo struct {
	Property string
	Value    string
}

// RunInfoTableName is the table that run metadata is recorded into.
const RunInfoTableName = "run_info"

// A RunRecorder writes metadata about the current run (start and end time,
// command line, working directory) next to the recorded data, so a database
// can always be traced back to the run that produced it.
type RunRecorder struct {
	recorder DataRecorder
}

// NewRunRecorder creates a RunRecorder on a recording backend.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	r := &RunRecorder{recorder: recorder}
	r.recorder.CreateTable(RunInfoTableName, RunInfo{})

	return r
}

// Start records the run's launch information.
func (r *RunRecorder) Start() {
	r.recorder.InsertData(RunInfoTableName, RunInfo{
		Property: "Start Time",
		Value:    time.Now().Format(time.RFC3339),
	})

	r.recorder.InsertData(RunInfoTableName, RunInfo{
		Property: "Command",
		Value:    strings.Join(os.Args, " "),
	})

	wd, err := os.Getwd()
	if err != nil {
		wd = "unknown"
	}

	r.recorder.InsertData(RunInfoTableName, RunInfo{
		Property: "Working Directory",
		Value:    wd,
	})
}

// End records the completion time of the run.
func (r *RunRecorder) End() {
	r.recorder.InsertData(RunInfoTableName, RunInfo{
		Property: "End Time",
		Value:    time.Now().Format(time.RFC3339),
	})
}
