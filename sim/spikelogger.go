package sim

import "log"

// LogHookBase provides the common logger field for logging hooks.
type LogHookBase struct {
	*log.Logger
}

// A SpikeLogger is a hook that writes a line for every spike that passes the
// position it is attached to. Attach it to an EventDeliveryManager to trace
// sends, deliveries, or both.
type SpikeLogger struct {
	LogHookBase

	symbols *SymbolTable
}

// NewSpikeLogger returns a SpikeLogger that writes into the given logger.
func NewSpikeLogger(logger *log.Logger, symbols *SymbolTable) *SpikeLogger {
	l := new(SpikeLogger)
	l.Logger = logger
	l.symbols = symbols
	return l
}

// Func writes the spike information into the logger.
func (l *SpikeLogger) Func(ctx HookCtx) {
	ev, ok := ctx.Item.(*SpikeEvent)
	if !ok {
		return
	}

	l.Printf("%s, %s -> stamp %s, weight %g, multiplicity %d",
		ctx.Pos.Name,
		l.symbols.NameOf(ev.Sender),
		ev.Stamp,
		ev.Weight,
		ev.Multiplicity,
	)
}
