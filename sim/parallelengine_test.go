package sim

import (
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildGrid(
	numWorkers int,
) (*EventDeliveryManager, *Table, *stepCollector) {
	edm := NewEventDeliveryManager(numWorkers, nil)
	routing := NewTable()

	collector := &stepCollector{NodeBase: NewNodeBase("Collector")}
	cID := edm.RegisterNodeOn(collector, 0)

	for i := 0; i < 8; i++ {
		emitter := &stepEmitter{
			NodeBase:  NewNodeBase("Emitter" + string(rune('A'+i))),
			edm:       edm,
			fireSteps: []int64{int64(i), int64(i) + 10, int64(i) + 20},
		}
		eID := edm.RegisterNodeOn(emitter, i%numWorkers)

		routing.Connect(eID, cID, TimeFromSteps(int64(2+i%3)), 1.0, 0)
	}

	edm.PrepareRun(routing)

	return edm, routing, collector
}

var _ = Describe("ParallelEngine", func() {
	BeforeEach(func() {
		SetResolution(0.1)
	})

	It("should produce the same spikes as a serial run", func() {
		serialEDM, _, serialCollector := buildGrid(1)
		serialEngine := NewSerialEngine(serialEDM)
		serialEngine.SetStopTime(TimeFromSteps(40))
		Expect(serialEngine.Run()).To(Succeed())

		parallelEDM, _, parallelCollector := buildGrid(4)
		parallelEngine := NewParallelEngine(parallelEDM)
		parallelEngine.SetStopTime(TimeFromSteps(40))
		Expect(parallelEngine.Run()).To(Succeed())

		Expect(serialCollector.arrivals).NotTo(BeEmpty())

		serialArrivals := append([]int64{}, serialCollector.arrivals...)
		parallelArrivals := append([]int64{}, parallelCollector.arrivals...)
		sortInt64s(serialArrivals)
		sortInt64s(parallelArrivals)

		Expect(parallelArrivals).To(Equal(serialArrivals))
	})

	It("should advance time slice by slice", func() {
		edm, _, _ := buildGrid(2)
		engine := NewParallelEngine(edm)

		engine.SetStopTime(TimeFromSteps(40))
		Expect(engine.Run()).To(Succeed())

		Expect(engine.CurrentTime().Steps()).To(Equal(int64(40)))
	})

	It("should reject off-grid stop times", func() {
		edm := NewEventDeliveryManager(2, nil)
		engine := NewParallelEngine(edm)

		Expect(func() {
			engine.SetStopTime(TimeFromMS(0.05))
		}).To(Panic())
	})

	It("should call end handlers on Finished", func() {
		edm, _, _ := buildGrid(2)
		engine := NewParallelEngine(edm)

		var called bool
		engine.RegisterEndHandler(endHandlerFunc(func(now Time) {
			called = true
		}))

		engine.SetStopTime(TimeFromSteps(2))
		Expect(engine.Run()).To(Succeed())
		engine.Finished()

		Expect(called).To(BeTrue())
	})

	It("should resume after pause and continue", func() {
		edm, _, collector := buildGrid(2)
		engine := NewParallelEngine(edm)

		engine.Pause()
		engine.Continue()

		engine.SetStopTime(TimeFromSteps(40))
		Expect(engine.Run()).To(Succeed())
		Expect(collector.arrivals).NotTo(BeEmpty())
	})
})

func sortInt64s(s []int64) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
