package sim

import "log"

// A RingBuffer is a node's incoming-value buffer. It is organized as two
// fixed-size arenas selected by the parity of the slice an entry arrives in:
// the arena being written during slice N holds values consumed in slice N+1,
// so readers and writers never alias. Each arena spans minDelay+maxDelay
// steps, which makes every step in the live delivery window map to a unique
// slot even when a connection delay covers several slices.
//
// A RingBuffer is exclusively owned by its node and needs no locking: the
// only writers are deliveries addressed to the owning node, which all run on
// the node's worker.
type RingBuffer struct {
	arenas   [2][]float64
	arenaLen int64
	sliceLen int64
}

// NewRingBuffer creates a RingBuffer for a network whose shortest and
// longest connection delays are minDelay and maxDelay steps.
func NewRingBuffer(minDelay, maxDelay int64) *RingBuffer {
	if minDelay < 1 || maxDelay < minDelay {
		log.Panicf("invalid delay extrema [%d, %d]", minDelay, maxDelay)
	}

	b := &RingBuffer{
		arenaLen: minDelay + maxDelay,
		sliceLen: minDelay,
	}
	b.arenas[0] = make([]float64, b.arenaLen)
	b.arenas[1] = make([]float64, b.arenaLen)

	return b
}

// Add accumulates a value into the slot for an absolute step.
func (b *RingBuffer) Add(step int64, v float64) {
	parity, slot := b.position(step)
	b.arenas[parity][slot] += v
}

// Take returns the accumulated value for an absolute step and clears the
// slot, so the arena is clean when its parity comes around again.
func (b *RingBuffer) Take(step int64) float64 {
	parity, slot := b.position(step)
	v := b.arenas[parity][slot]
	b.arenas[parity][slot] = 0

	return v
}

// Clear zeroes both arenas.
func (b *RingBuffer) Clear() {
	for p := 0; p < 2; p++ {
		for i := range b.arenas[p] {
			b.arenas[p][i] = 0
		}
	}
}

func (b *RingBuffer) position(step int64) (int, int64) {
	if step < 0 {
		log.Panicf("step %d is before the start of the simulation", step)
	}

	parity := (step / b.sliceLen) & 1
	return int(parity), step % b.arenaLen
}

// A CountBuffer is the multiplicity counterpart of RingBuffer. It
// accumulates spike counts instead of weighted values, for models that treat
// coincident unit events as counts rather than summed weights.
type CountBuffer struct {
	inner *RingBuffer
}

// NewCountBuffer creates a CountBuffer with the same geometry rules as
// NewRingBuffer.
func NewCountBuffer(minDelay, maxDelay int64) *CountBuffer {
	return &CountBuffer{inner: NewRingBuffer(minDelay, maxDelay)}
}

// Add accumulates a multiplicity into the slot for an absolute step.
func (b *CountBuffer) Add(step int64, multiplicity int) {
	b.inner.Add(step, float64(multiplicity))
}

// Take returns the accumulated count for an absolute step and clears the
// slot.
func (b *CountBuffer) Take(step int64) int {
	return int(b.inner.Take(step))
}

// Clear zeroes the buffer.
func (b *CountBuffer) Clear() {
	b.inner.Clear()
}
