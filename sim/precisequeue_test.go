package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PreciseEventQueue", func() {
	var q *PreciseEventQueue

	BeforeEach(func() {
		SetResolution(0.1)
		q = NewPreciseEventQueue()
	})

	spikeAt := func(step int64, offset float64) PreciseSpike {
		return PreciseSpike{
			Stamp:  TimeFromSteps(step),
			Offset: offset,
			Weight: 1.0,
		}
	}

	It("should keep spikes sorted by precise arrival time", func() {
		q.Add(spikeAt(15, 0))
		q.Add(spikeAt(10, 0))
		q.Add(spikeAt(12, 0))

		var stamps []int64
		q.Each(func(sp PreciseSpike) {
			stamps = append(stamps, sp.Stamp.Steps())
		})

		Expect(stamps).To(Equal([]int64{10, 12, 15}))
	})

	It("should order by stamp minus offset, not by stamp", func() {
		// Both spikes share a stamp, but the second one's offset pulls its
		// precise arrival earlier.
		q.Add(spikeAt(10, 0))
		q.Add(spikeAt(10, 0.05))

		var offsets []float64
		q.Each(func(sp PreciseSpike) {
			offsets = append(offsets, sp.Offset)
		})

		Expect(offsets).To(Equal([]float64{0.05, 0}))
	})

	It("should keep insertion order among equal arrival times", func() {
		a := spikeAt(10, 0)
		a.Weight = 1.0
		b := spikeAt(10, 0)
		b.Weight = 2.0

		q.Add(a)
		q.Add(b)

		var weights []float64
		q.Each(func(sp PreciseSpike) {
			weights = append(weights, sp.Weight)
		})

		Expect(weights).To(Equal([]float64{1.0, 2.0}))
	})

	It("should pop spikes stamped with the requested step", func() {
		q.Add(spikeAt(10, 0))
		q.Add(spikeAt(12, 0))

		q.PrepareDelivery()

		sp, ok := q.NextSpike(10)
		Expect(ok).To(BeTrue())
		Expect(sp.Stamp.Steps()).To(Equal(int64(10)))

		_, ok = q.NextSpike(10)
		Expect(ok).To(BeFalse())

		sp, ok = q.NextSpike(12)
		Expect(ok).To(BeTrue())
		Expect(sp.Stamp.Steps()).To(Equal(int64(12)))
		Expect(q.Len()).To(Equal(0))
	})

	It("should panic when consumed before PrepareDelivery", func() {
		q.Add(spikeAt(10, 0))

		Expect(func() { q.NextSpike(10) }).To(Panic())
	})

	It("should default the multiplicity to one", func() {
		q.Add(spikeAt(10, 0))

		q.PrepareDelivery()
		sp, _ := q.NextSpike(10)

		Expect(sp.Multiplicity).To(Equal(1))
	})

	It("should prune entries strictly before the window edge", func() {
		q.Add(spikeAt(10, 0))
		q.Add(spikeAt(12, 0))
		q.Add(spikeAt(15, 0))

		q.PruneBefore(TimeFromSteps(12))

		Expect(q.Len()).To(Equal(2))

		var stamps []int64
		q.Each(func(sp PreciseSpike) {
			stamps = append(stamps, sp.Stamp.Steps())
		})
		Expect(stamps).To(Equal([]int64{12, 15}))
	})

	It("should prune on precise arrival, not the stamp", func() {
		// Stamped at 12 but arriving 0.05 ms earlier, this spike falls
		// before a window edge at step 12.
		q.Add(spikeAt(12, 0.05))

		q.PruneBefore(TimeFromSteps(12))

		Expect(q.Len()).To(Equal(0))
	})
})
