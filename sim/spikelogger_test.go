package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SpikeLogger", func() {
	It("should log passing spikes", func() {
		buf := bytes.Buffer{}
		symbols := NewSymbolTable()
		symbols.Intern("Sender")

		logger := NewSpikeLogger(log.New(&buf, "", 0), symbols)

		logger.Func(HookCtx{
			Pos: HookPosSpikeSend,
			Item: &SpikeEvent{
				Sender:       0,
				Stamp:        TimeFromSteps(4),
				Weight:       1.5,
				Multiplicity: 2,
			},
		})

		Expect(buf.String()).To(ContainSubstring("SpikeSend"))
		Expect(buf.String()).To(ContainSubstring("Sender"))
		Expect(buf.String()).To(ContainSubstring("multiplicity 2"))
	})

	It("should ignore non-spike items", func() {
		buf := bytes.Buffer{}
		logger := NewSpikeLogger(log.New(&buf, "", 0), NewSymbolTable())

		logger.Func(HookCtx{Pos: HookPosBeforeSlice, Item: TimeFromSteps(0)})

		Expect(buf.String()).To(BeEmpty())
	})
})

var _ = Describe("IDGenerator", func() {
	It("should generate distinct IDs", func() {
		gen := GetIDGenerator()

		a := gen.Generate()
		b := gen.Generate()

		Expect(a).NotTo(BeEmpty())
		Expect(a).NotTo(Equal(b))
	})

	It("should hand out a single process-wide generator", func() {
		Expect(GetIDGenerator()).To(BeIdenticalTo(GetIDGenerator()))
	})
})
