package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
)

func buildFabric(backend Backend) Fabric {
	cfg := twoSlaves(2)

	if backend == BackendNetlist {
		f, err := NewNetlistFabric(cfg)
		Expect(err).NotTo(HaveOccurred())

		return f
	}

	return NewModelFabric(cfg.Masters, cfg.AddressMap)
}

var _ = Describe("Fabric", func() {
	requests := []axi.Request{
		{ARValid: true, ARAddr: 0x0104},
		{AWValid: true, AWAddr: 0x0008, WValid: true},
	}
	quiet := make([]axi.Response, 2)

	DescribeTable("should stay in IDLE while reset is asserted",
		func(backend Backend) {
			f := buildFabric(backend)

			for i := 0; i < 3; i++ {
				toMasters, toSlaves, err := f.Route(true, requests, quiet)
				Expect(err).NotTo(HaveOccurred())
				Expect(toMasters).To(Equal([]axi.Response{{}, {}}))
				Expect(toSlaves).To(Equal([]axi.Request{{}, {}}))

				Expect(f.Clock()).To(Succeed())
				Expect(f.State()).To(Equal(arbitration.Reset(2, 2)))
			}
		},
		backends,
	)

	DescribeTable("should grant a read to master 0 once reset is released",
		func(backend Backend) {
			f := buildFabric(backend)

			_, _, err := f.Route(false, requests, quiet)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Clock()).To(Succeed())

			Expect(f.State()).To(Equal(arbitration.State{
				Phase:     arbitration.PhaseRead,
				Selection: arbitration.Selection{Master: 0, Slave: 1},
			}))

			_, toSlaves, err := f.Route(false, requests, quiet)
			Expect(err).NotTo(HaveOccurred())
			Expect(toSlaves[1]).To(Equal(axi.Request{ARValid: true, ARAddr: 0x0004}))
			Expect(toSlaves[0]).To(Equal(axi.Request{}))
		},
		backends,
	)

	DescribeTable("should drive a stale address as zero",
		func(backend Backend) {
			f := buildFabric(backend)
			stale := []axi.Request{
				{ARValid: true, ARAddr: 0x0104, AWAddr: 0x0150},
				{},
			}

			_, _, err := f.Route(false, stale, quiet)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Clock()).To(Succeed())

			_, toSlaves, err := f.Route(false, stale, quiet)
			Expect(err).NotTo(HaveOccurred())
			Expect(toSlaves[1].AWValid).To(BeFalse())
			Expect(toSlaves[1].AWAddr).To(BeZero())
			Expect(toSlaves[1].ARAddr).To(Equal(uint64(0x0004)))
		},
		backends,
	)

	It("should parse backends", func() {
		b, err := ParseBackend("netlist")
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(BackendNetlist))
		Expect(b.String()).To(Equal("netlist"))

		b, err = ParseBackend("Model")
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(BackendModel))

		_, err = ParseBackend("verilator")
		Expect(err).To(HaveOccurred())
	})
})
