package simulation

import (
	"sync"

	"github.com/synlab/synapse/monitoring"
	"github.com/synlab/synapse/sim"
)

// A sliceProgressHook advances a monitoring progress bar by one slice worth
// of steps after every boundary exchange. The tracked bar changes between
// runs, so access to it is synchronized.
type sliceProgressHook struct {
	edm *sim.EventDeliveryManager

	mu  sync.Mutex
	bar *monitoring.ProgressBar
}

func (h *sliceProgressHook) track(bar *monitoring.ProgressBar) {
	h.mu.Lock()
	h.bar = bar
	h.mu.Unlock()
}

// Func implements sim.Hook.
func (h *sliceProgressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterSlice {
		return
	}

	h.mu.Lock()
	bar := h.bar
	h.mu.Unlock()

	if bar == nil {
		return
	}

	bar.IncrementFinished(uint64(h.edm.SliceSteps()))
}
