package sim

import (
	"log"
	"math"
	"sync"
)

// TicsPerMS is the number of tics in one millisecond. The tic grid is the
// finest time grid the kernel knows about. All Time values live on it, which
// is what makes grid-alignment checks exact instead of floating-point
// comparisons.
const TicsPerMS int64 = 1000

var (
	timeBaseMutex sync.Mutex
	ticsPerStep   int64 = 100
)

// SetResolution changes the simulation resolution, in milliseconds per step.
// The resolution must be representable as a whole number of tics. Changing
// the resolution invalidates the cached step representation of every Time
// value created before the call; such values must be re-calibrated.
//
// The resolution may only be changed between runs. Nothing in the kernel
// re-checks it mid-slice.
func SetResolution(ms float64) {
	if math.IsNaN(ms) || ms <= 0 {
		log.Panicf("resolution must be positive, got %f", ms)
	}

	tics := ms * float64(TicsPerMS)
	rounded := math.Round(tics)
	if math.Abs(tics-rounded) > 1e-9 || rounded < 1 {
		log.Panicf("resolution %f ms is not representable on the tic grid",
			ms)
	}

	timeBaseMutex.Lock()
	ticsPerStep = int64(rounded)
	timeBaseMutex.Unlock()
}

// Resolution returns the current simulation resolution in milliseconds per
// step.
func Resolution() float64 {
	return float64(StepTics()) / float64(TicsPerMS)
}

// StepTics returns the number of tics in one simulation step.
func StepTics() int64 {
	timeBaseMutex.Lock()
	t := ticsPerStep
	timeBaseMutex.Unlock()
	return t
}
