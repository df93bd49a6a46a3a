package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type recordingHook struct {
	positions []*HookPos
	items     []interface{}
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.positions = append(h.positions, ctx.Pos)
	h.items = append(h.items, ctx.Item)
}

var _ = Describe("EventDeliveryManager", func() {
	var (
		mockCtrl *gomock.Controller
		edm      *EventDeliveryManager
		routing  *Table
	)

	BeforeEach(func() {
		SetResolution(0.1)
		mockCtrl = gomock.NewController(GinkgoT())
		edm = NewEventDeliveryManager(1, nil)
		routing = NewTable()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	newNode := func(name string, id NodeID, localOnly bool) *MockNode {
		n := NewMockNode(mockCtrl)
		n.EXPECT().Name().Return(name).AnyTimes()
		n.EXPECT().ID().Return(id).AnyTimes()
		n.EXPECT().IsLocalOnly().Return(localOnly).AnyTimes()
		n.EXPECT().AssignID(id)
		return n
	}

	runExchange := func() {
		inboxes := edm.Exchange()
		for w := 0; w < edm.NumWorkers(); w++ {
			edm.DeliverInbox(w, inboxes[w])
		}
	}

	It("should stamp events one step after their emission step", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.Connect(0, 1, TimeFromSteps(5), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(TimeFromSteps(100))

		ev := SpikeEvent{}
		edm.Send(sender, &ev, 3)

		Expect(ev.Stamp.Steps()).To(Equal(int64(104)))

		var delivered *SpikeEvent
		receiver.EXPECT().Handle(gomock.Any()).Do(func(e *SpikeEvent) {
			delivered = e
		})

		runExchange()
		edm.EndSlice()

		Expect(delivered).NotTo(BeNil())
		Expect(delivered.Sender).To(Equal(NodeID(0)))
		Expect(delivered.Stamp.Steps()).To(Equal(int64(104)))
		Expect(delivered.DelaySteps).To(Equal(int64(5)))
		Expect(delivered.ArrivalStep()).To(Equal(int64(108)))
	})

	It("should never deliver into the emitting slice", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.Connect(0, 1, TimeFromSteps(5), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(TimeFromSteps(100))

		var arrivals []int64
		receiver.EXPECT().Handle(gomock.Any()).Do(func(e *SpikeEvent) {
			arrivals = append(arrivals, e.ArrivalStep())
		}).AnyTimes()

		for lag := int64(0); lag < edm.SliceSteps(); lag++ {
			ev := SpikeEvent{}
			edm.Send(sender, &ev, lag)
		}

		runExchange()
		edm.EndSlice()

		// Everything emitted in slice [100, 105) arrives at or after the
		// next slice origin.
		for _, a := range arrivals {
			Expect(a).To(BeNumerically(">=", 105))
		}
	})

	It("should coalesce repeated sends within one lag", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.Connect(0, 1, TimeFromSteps(1), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())

		ev1 := SpikeEvent{}
		edm.Send(sender, &ev1, 0)
		ev2 := SpikeEvent{}
		edm.Send(sender, &ev2, 0)

		var delivered *SpikeEvent
		receiver.EXPECT().Handle(gomock.Any()).Do(func(e *SpikeEvent) {
			delivered = e
		})

		runExchange()
		edm.EndSlice()

		Expect(delivered.Multiplicity).To(Equal(2))
	})

	It("should not coalesce sends with different offsets", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.Connect(0, 1, TimeFromSteps(1), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())

		ev1 := SpikeEvent{Offset: 0.02}
		edm.Send(sender, &ev1, 0)
		ev2 := SpikeEvent{Offset: 0.04}
		edm.Send(sender, &ev2, 0)

		receiver.EXPECT().Handle(gomock.Any()).Times(2)

		runExchange()
		edm.EndSlice()
	})

	It("should deliver in ascending lag, then emission order", func() {
		sender1 := newNode("Sender1", 0, false)
		sender2 := newNode("Sender2", 1, false)
		receiver := newNode("Receiver", 2, false)
		edm.RegisterNode(sender1)
		edm.RegisterNode(sender2)
		edm.RegisterNode(receiver)

		routing.Connect(0, 2, TimeFromSteps(3), 1.0, 0)
		routing.Connect(1, 2, TimeFromSteps(3), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())

		// Emission order: sender2 at lag 2, sender1 at lag 0, sender2 at
		// lag 0.
		edm.Send(sender2, &SpikeEvent{}, 2)
		edm.Send(sender1, &SpikeEvent{}, 0)
		edm.Send(sender2, &SpikeEvent{}, 0)

		var order []NodeID
		var lags []int64
		receiver.EXPECT().Handle(gomock.Any()).Do(func(e *SpikeEvent) {
			order = append(order, e.Sender)
			lags = append(lags, e.Stamp.Steps()-1)
		}).Times(3)

		runExchange()
		edm.EndSlice()

		Expect(lags).To(Equal([]int64{0, 0, 2}))
		Expect(order).To(Equal([]NodeID{0, 1, 1}))
	})

	It("should fan one register entry out to all connections", func() {
		sender := newNode("Sender", 0, false)
		receiver1 := newNode("Receiver1", 1, false)
		receiver2 := newNode("Receiver2", 2, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver1)
		edm.RegisterNode(receiver2)

		routing.Connect(0, 1, TimeFromSteps(1), 0.5, 0)
		routing.Connect(0, 2, TimeFromSteps(2), -1.5, 7)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())
		edm.Send(sender, &SpikeEvent{}, 0)

		var ev1, ev2 *SpikeEvent
		receiver1.EXPECT().Handle(gomock.Any()).Do(func(e *SpikeEvent) {
			ev1 = e
		})
		receiver2.EXPECT().Handle(gomock.Any()).Do(func(e *SpikeEvent) {
			ev2 = e
		})

		runExchange()
		edm.EndSlice()

		Expect(ev1.Weight).To(Equal(0.5))
		Expect(ev1.DelaySteps).To(Equal(int64(1)))
		Expect(ev2.Weight).To(Equal(-1.5))
		Expect(ev2.DelaySteps).To(Equal(int64(2)))
		Expect(ev2.Rport).To(Equal(7))
	})

	It("should take the direct path for local-only senders", func() {
		sender := newNode("Sender", 0, true)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.Connect(0, 1, TimeFromSteps(1), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())
		edm.Send(sender, &SpikeEvent{}, 0)

		delivered := false
		receiver.EXPECT().Handle(gomock.Any()).Do(func(e *SpikeEvent) {
			delivered = true
		})

		// The direct path completes at the end of the worker's own update,
		// before any exchange.
		edm.FinishSlice(0)
		Expect(delivered).To(BeTrue())

		inboxes := edm.Exchange()
		Expect(inboxes[0]).To(BeEmpty())

		edm.EndSlice()
	})

	It("should reject local-only senders with remote targets", func() {
		edm = NewEventDeliveryManager(2, nil)

		sender := newNode("Sender", 0, true)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNodeOn(sender, 0)
		edm.RegisterNodeOn(receiver, 1)

		routing.Connect(0, 1, TimeFromSteps(1), 1.0, 0)

		Expect(func() { edm.PrepareRun(routing) }).To(Panic())
	})

	It("should route off-grid connections through QueuePrecise", func() {
		sender := newNode("Sender", 0, false)
		edm.RegisterNode(sender)

		receiver := NewMockPreciseReceiver(mockCtrl)
		receiver.EXPECT().Name().Return("Receiver").AnyTimes()
		receiver.EXPECT().IsLocalOnly().Return(false).AnyTimes()
		receiver.EXPECT().AssignID(NodeID(1))
		edm.RegisterNode(receiver)

		routing.ConnectOffGrid(0, 1, TimeFromSteps(1), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())
		edm.Send(sender, &SpikeEvent{Offset: 0.03}, 0)

		var queued *SpikeEvent
		receiver.EXPECT().QueuePrecise(gomock.Any()).Do(func(e *SpikeEvent) {
			queued = e
		})

		runExchange()
		edm.EndSlice()

		Expect(queued).NotTo(BeNil())
		Expect(queued.Offset).To(Equal(0.03))
		Expect(queued.IsOffGrid()).To(BeTrue())
	})

	It("should panic when an off-grid event meets a plain receiver", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.ConnectOffGrid(0, 1, TimeFromSteps(1), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())
		edm.Send(sender, &SpikeEvent{Offset: 0.03}, 0)

		Expect(func() { runExchange() }).To(Panic())
	})

	It("should panic on out-of-range lags", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.Connect(0, 1, TimeFromSteps(5), 1.0, 0)
		edm.PrepareRun(routing)

		edm.StartSlice(ZeroTime())

		Expect(func() {
			edm.Send(sender, &SpikeEvent{}, 5)
		}).To(Panic())
		Expect(func() {
			edm.Send(sender, &SpikeEvent{}, -1)
		}).To(Panic())
	})

	It("should panic on sends outside a slice", func() {
		sender := newNode("Sender", 0, false)
		edm.RegisterNode(sender)
		edm.PrepareRun(routing)

		Expect(func() {
			edm.Send(sender, &SpikeEvent{}, 0)
		}).To(Panic())
	})

	It("should panic on off-grid slice origins", func() {
		edm.PrepareRun(routing)

		Expect(func() {
			edm.StartSlice(TimeFromMS(0.05))
		}).To(Panic())
	})

	It("should panic on registration after PrepareRun", func() {
		edm.PrepareRun(routing)

		n := NewMockNode(mockCtrl)
		Expect(func() { edm.RegisterNode(n) }).To(Panic())
	})

	It("should derive the slice length from the minimum delay", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)

		routing.Connect(0, 1, TimeFromSteps(7), 1.0, 0)
		routing.Connect(0, 1, TimeFromSteps(3), 0.5, 0)
		edm.PrepareRun(routing)

		Expect(edm.SliceSteps()).To(Equal(int64(3)))
		Expect(edm.MaxDelaySteps()).To(Equal(int64(7)))
	})

	It("should invoke send and deliver hooks", func() {
		sender := newNode("Sender", 0, false)
		receiver := newNode("Receiver", 1, false)
		edm.RegisterNode(sender)
		edm.RegisterNode(receiver)
		receiver.EXPECT().Handle(gomock.Any())

		routing.Connect(0, 1, TimeFromSteps(1), 1.0, 0)
		edm.PrepareRun(routing)

		hook := &recordingHook{}
		edm.AcceptHook(hook)

		edm.StartSlice(ZeroTime())
		edm.Send(sender, &SpikeEvent{}, 0)
		runExchange()
		edm.EndSlice()

		Expect(hook.positions).To(Equal([]*HookPos{
			HookPosSpikeSend, HookPosSpikeDeliver,
		}))
	})
})
