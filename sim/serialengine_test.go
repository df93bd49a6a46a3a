package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// A stepEmitter emits one spike in every listed absolute step.
type stepEmitter struct {
	*NodeBase

	edm       *EventDeliveryManager
	fireSteps []int64
	localOnly bool
}

func (g *stepEmitter) Calibrate()   {}
func (g *stepEmitter) InitBuffers() {}

func (g *stepEmitter) Update(origin Time, from, to int64) {
	originSteps := origin.Steps()

	for _, s := range g.fireSteps {
		lag := s - originSteps
		if lag >= from && lag < to {
			g.edm.Send(g, &SpikeEvent{}, lag)
		}
	}
}

func (g *stepEmitter) Handle(_ *SpikeEvent) {}
func (g *stepEmitter) IsLocalOnly() bool    { return g.localOnly }

// A stepCollector records the arrival step of every delivered spike.
type stepCollector struct {
	*NodeBase

	arrivals []int64
	senders  []NodeID
}

func (c *stepCollector) Calibrate()                {}
func (c *stepCollector) InitBuffers()              {}
func (c *stepCollector) Update(_ Time, _, _ int64) {}

func (c *stepCollector) Handle(ev *SpikeEvent) {
	c.arrivals = append(c.arrivals, ev.ArrivalStep())
	c.senders = append(c.senders, ev.Sender)
}

func (c *stepCollector) IsLocalOnly() bool { return true }

var _ = Describe("SerialEngine", func() {
	var (
		edm     *EventDeliveryManager
		engine  *SerialEngine
		routing *Table
	)

	BeforeEach(func() {
		SetResolution(0.1)
		edm = NewEventDeliveryManager(1, nil)
		engine = NewSerialEngine(edm)
		routing = NewTable()
	})

	It("should stop at the stop time", func() {
		emitter := &stepEmitter{
			NodeBase: NewNodeBase("Emitter"),
			edm:      edm,
		}
		edm.RegisterNode(emitter)
		edm.PrepareRun(routing)

		engine.SetStopTime(TimeFromSteps(10))

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime().Steps()).To(Equal(int64(10)))
	})

	It("should reject off-grid stop times", func() {
		Expect(func() {
			engine.SetStopTime(TimeFromMS(0.05))
		}).To(Panic())
	})

	It("should deliver spikes one delay after their emission step", func() {
		emitter := &stepEmitter{
			NodeBase:  NewNodeBase("Emitter"),
			edm:       edm,
			fireSteps: []int64{0, 3, 7},
		}
		collector := &stepCollector{NodeBase: NewNodeBase("Collector")}

		eID := edm.RegisterNode(emitter)
		cID := edm.RegisterNode(collector)

		routing.Connect(eID, cID, TimeFromSteps(2), 1.0, 0)
		edm.PrepareRun(routing)

		engine.SetStopTime(TimeFromSteps(12))

		Expect(engine.Run()).To(Succeed())
		Expect(collector.arrivals).To(Equal([]int64{2, 5, 9}))
	})

	It("should run slice hooks once per slice", func() {
		emitter := &stepEmitter{
			NodeBase: NewNodeBase("Emitter"),
			edm:      edm,
		}
		collector := &stepCollector{NodeBase: NewNodeBase("Collector")}

		eID := edm.RegisterNode(emitter)
		cID := edm.RegisterNode(collector)

		routing.Connect(eID, cID, TimeFromSteps(5), 1.0, 0)
		edm.PrepareRun(routing)

		hook := &recordingHook{}
		engine.AcceptHook(hook)

		engine.SetStopTime(TimeFromSteps(20))
		Expect(engine.Run()).To(Succeed())

		// 4 slices of 5 steps, each bracketed by a before and an after hook.
		Expect(hook.positions).To(HaveLen(8))
		Expect(hook.positions[0]).To(Equal(HookPosBeforeSlice))
		Expect(hook.positions[1]).To(Equal(HookPosAfterSlice))
	})

	It("should complete whole slices past the stop time", func() {
		emitter := &stepEmitter{
			NodeBase: NewNodeBase("Emitter"),
			edm:      edm,
		}
		collector := &stepCollector{NodeBase: NewNodeBase("Collector")}

		eID := edm.RegisterNode(emitter)
		cID := edm.RegisterNode(collector)

		routing.Connect(eID, cID, TimeFromSteps(5), 1.0, 0)
		edm.PrepareRun(routing)

		engine.SetStopTime(TimeFromSteps(12))
		Expect(engine.Run()).To(Succeed())

		// The run covers slices [0,5), [5,10), [10,15).
		Expect(engine.CurrentTime().Steps()).To(Equal(int64(15)))
	})

	It("should call end handlers on Finished", func() {
		edm.PrepareRun(routing)

		called := Time{}
		engine.RegisterEndHandler(endHandlerFunc(func(now Time) {
			called = now
		}))

		engine.SetStopTime(TimeFromSteps(4))
		Expect(engine.Run()).To(Succeed())
		engine.Finished()

		Expect(called.Steps()).To(Equal(int64(4)))
	})

	It("should tolerate pause and continue around a run", func() {
		edm.PrepareRun(routing)

		engine.Pause()
		engine.Pause()
		engine.Continue()
		engine.Continue()

		engine.SetStopTime(TimeFromSteps(2))
		Expect(engine.Run()).To(Succeed())
	})
})

type endHandlerFunc func(now Time)

func (f endHandlerFunc) Handle(now Time) { f(now) }
