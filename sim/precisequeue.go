package sim

import (
	"container/list"
	"log"
)

// A PreciseSpike is one pending off-grid spike held by a receiver.
type PreciseSpike struct {
	// Stamp is the grid step the spike is attributed to; the true arrival
	// instant is Stamp - Offset.
	Stamp Time

	// Offset is the sub-step offset in milliseconds before the stamp.
	Offset float64

	Weight       float64
	Multiplicity int
}

// arrivalTics is the exact position of the spike on the tic grid.
func (s PreciseSpike) arrivalTics() int64 {
	return s.Stamp.Sub(TimeFromMS(s.Offset)).Tics()
}

// A PreciseEventQueue is a per-receiver, time-ordered buffer of pending
// off-grid spikes. It is exclusively owned by the receiving node and never
// shared, so it needs no locking. Entries only leave the queue through
// explicit consumption (NextSpike) or an explicit window prune
// (PruneBefore); the queue never times entries out on its own.
type PreciseEventQueue struct {
	l        *list.List
	prepared bool
}

// NewPreciseEventQueue returns a new, empty PreciseEventQueue.
func NewPreciseEventQueue() *PreciseEventQueue {
	return &PreciseEventQueue{l: list.New()}
}

// Add inserts a spike, keeping the queue sorted by absolute delivery time.
// The spike is inserted before the first strictly-greater entry, so entries
// with equal delivery times keep their insertion order.
func (q *PreciseEventQueue) Add(sp PreciseSpike) {
	if sp.Multiplicity <= 0 {
		sp.Multiplicity = 1
	}

	at := sp.arrivalTics()

	var ele *list.Element
	for ele = q.l.Front(); ele != nil; ele = ele.Next() {
		if ele.Value.(PreciseSpike).arrivalTics() > at {
			break
		}
	}

	if ele != nil {
		q.l.InsertBefore(sp, ele)
	} else {
		q.l.PushBack(sp)
	}
}

// PrepareDelivery readies the queue for sequential consumption. It is called
// once at the start of each slice; calling NextSpike on an unprepared queue
// is a contract violation.
func (q *PreciseEventQueue) PrepareDelivery() {
	q.prepared = true
}

// NextSpike pops and returns the next spike whose stamp equals the given
// absolute step. The second return value reports whether such a spike was
// available.
func (q *PreciseEventQueue) NextSpike(step int64) (PreciseSpike, bool) {
	if !q.prepared {
		log.Panic("precise queue consumed before PrepareDelivery")
	}

	front := q.l.Front()
	if front == nil {
		return PreciseSpike{}, false
	}

	sp := front.Value.(PreciseSpike)
	if sp.Stamp.Steps() != step {
		return PreciseSpike{}, false
	}

	q.l.Remove(front)

	return sp, true
}

// PruneBefore evicts all entries whose precise arrival time lies strictly
// before t. Models with a bounded history window own this policy; the queue
// only executes it.
func (q *PreciseEventQueue) PruneBefore(t Time) {
	for {
		front := q.l.Front()
		if front == nil {
			return
		}

		if front.Value.(PreciseSpike).arrivalTics() >= t.Tics() {
			return
		}

		q.l.Remove(front)
	}
}

// Len returns the number of pending spikes.
func (q *PreciseEventQueue) Len() int {
	return q.l.Len()
}

// Each calls f on every pending spike in delivery order.
func (q *PreciseEventQueue) Each(f func(sp PreciseSpike)) {
	for ele := q.l.Front(); ele != nil; ele = ele.Next() {
		f(ele.Value.(PreciseSpike))
	}
}
