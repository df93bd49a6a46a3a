package sim

// HookPos defines the enum of possible hooking positions
type HookPos struct {
	Name string
}

// HookPosBeforeSlice triggers before a time slice is updated.
var HookPosBeforeSlice = &HookPos{Name: "BeforeSlice"}

// HookPosAfterSlice triggers after a time slice, once the boundary exchange
// has delivered all cross-worker spikes.
var HookPosAfterSlice = &HookPos{Name: "AfterSlice"}

// HookPosSpikeSend triggers when a node emits a spike through the delivery
// manager.
var HookPosSpikeSend = &HookPos{Name: "SpikeSend"}

// HookPosSpikeDeliver triggers when a spike is handed to a receiving node.
var HookPosSpikeDeliver = &HookPos{Name: "SpikeDeliver"}

// HookCtx is the context that holds all the information about the site that
// a hook is triggered
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that
// implement the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook register a hook
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook triggers the registered Hooks
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
