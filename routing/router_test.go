package routing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
)

var _ = Describe("Route", func() {
	var (
		amap    *addrmap.Map
		masters []axi.Request
		slaves  []axi.Response
	)

	BeforeEach(func() {
		var err error
		amap, err = addrmap.New(32,
			addrmap.Range{Low: 0x0000, High: 0x00FF},
			addrmap.Range{Low: 0x0100, High: 0x01FF},
		)
		Expect(err).NotTo(HaveOccurred())

		masters = []axi.Request{
			{AWValid: true, AWAddr: 0x0104, WValid: true, WData: 0xDEADBEEF, WStrb: 0xF},
			{ARValid: true, ARAddr: 0x0010, RReady: true},
		}
		slaves = []axi.Response{
			{AWReady: true, WReady: true, ARReady: true, RValid: true, RData: 0x11},
			{AWReady: true, WReady: true, BValid: true, RData: 0x22},
		}
	})

	It("should keep every port idle without a selection", func() {
		res := Route(arbitration.Reset(2, 2), masters, slaves, amap)

		for _, rsp := range res.Masters {
			Expect(rsp).To(Equal(axi.Response{}))
		}

		for _, req := range res.Slaves {
			Expect(req).To(Equal(axi.Request{}))
		}
	})

	It("should connect the selected pair and rebase addresses", func() {
		s := arbitration.State{
			Phase:     arbitration.PhaseWrite,
			Selection: arbitration.Selection{Master: 0, Slave: 1},
		}

		res := Route(s, masters, slaves, amap)

		Expect(res.Slaves[1].AWValid).To(BeTrue())
		Expect(res.Slaves[1].AWAddr).To(Equal(uint64(0x0004)))
		Expect(res.Slaves[1].WData).To(Equal(uint64(0xDEADBEEF)))
		Expect(res.Slaves[1].WStrb).To(Equal(uint8(0xF)))
		Expect(res.Slaves[0]).To(Equal(axi.Request{}))

		Expect(res.Masters[0]).To(Equal(slaves[1]))
		Expect(res.Masters[1]).To(Equal(axi.Response{}))
	})

	It("should drive an address without its VALID as zero", func() {
		masters[0].ARAddr = 0x01F0
		s := arbitration.State{
			Phase:     arbitration.PhaseWrite,
			Selection: arbitration.Selection{Master: 0, Slave: 1},
		}

		res := Route(s, masters, slaves, amap)
		Expect(res.Slaves[1].AWAddr).To(Equal(uint64(0x0004)))
		Expect(res.Slaves[1].ARValid).To(BeFalse())
		Expect(res.Slaves[1].ARAddr).To(BeZero())

		masters[0].AWValid = false
		res = Route(s, masters, slaves, amap)
		Expect(res.Slaves[1].AWAddr).To(BeZero())
	})

	It("should route the second master to the first slave", func() {
		s := arbitration.State{
			Phase:     arbitration.PhaseRead,
			Selection: arbitration.Selection{Master: 1, Slave: 0},
		}

		res := Route(s, masters, slaves, amap)

		Expect(res.Slaves[0].ARValid).To(BeTrue())
		Expect(res.Slaves[0].ARAddr).To(Equal(uint64(0x0010)))
		Expect(res.Slaves[0].RReady).To(BeTrue())
		Expect(res.Masters[1].RData).To(Equal(uint64(0x11)))
		Expect(res.Masters[0]).To(Equal(axi.Response{}))
	})

	It("should report the completion handshake of the bound pair", func() {
		s := arbitration.State{
			Phase:     arbitration.PhaseRead,
			Selection: arbitration.Selection{Master: 1, Slave: 0},
		}

		res := Route(s, masters, slaves, amap)
		w, r := res.Handshakes(s, masters)

		Expect(w).To(BeFalse())
		Expect(r).To(BeTrue())
	})

	It("should not report a handshake the selected master has not accepted", func() {
		s := arbitration.State{
			Phase:     arbitration.PhaseWrite,
			Selection: arbitration.Selection{Master: 0, Slave: 1},
		}

		res := Route(s, masters, slaves, amap)
		w, _ := res.Handshakes(s, masters)
		Expect(w).To(BeFalse())

		masters[0].BReady = true
		res = Route(s, masters, slaves, amap)
		w, _ = res.Handshakes(s, masters)
		Expect(w).To(BeTrue())
	})

	Context("when the address decodes to no slave", func() {
		It("should accept the write and answer OKAY", func() {
			s := arbitration.State{
				Phase:     arbitration.PhaseWrite,
				Selection: arbitration.Selection{Master: 0, Slave: 2},
			}

			res := Route(s, masters, slaves, amap)
			Expect(res.Masters[0].AWReady).To(BeTrue())
			Expect(res.Masters[0].WReady).To(BeTrue())
			Expect(res.Masters[0].BValid).To(BeFalse())
			for _, req := range res.Slaves {
				Expect(req).To(Equal(axi.Request{}))
			}

			s.AddrDone, s.DataDone = true, true
			res = Route(s, masters, slaves, amap)
			Expect(res.Masters[0].AWReady).To(BeFalse())
			Expect(res.Masters[0].BValid).To(BeTrue())
			Expect(res.Masters[0].BResp).To(Equal(axi.RespOkay))
		})

		It("should return zero data with OKAY", func() {
			s := arbitration.State{
				Phase:     arbitration.PhaseRead,
				Selection: arbitration.Selection{Master: 1, Slave: 2},
				AddrDone:  true,
			}

			res := Route(s, masters, slaves, amap)

			Expect(res.Masters[1]).To(Equal(axi.Response{
				RValid: true,
				RResp:  axi.RespOkay,
			}))
		})
	})

	It("should drive at most one slave for every selection", func() {
		for m := 0; m <= 2; m++ {
			for j := 0; j <= 2; j++ {
				s := arbitration.State{
					Phase:     arbitration.PhaseWrite,
					Selection: arbitration.Selection{Master: m, Slave: j},
				}
				res := Route(s, masters, slaves, amap)

				active := 0
				for _, req := range res.Slaves {
					if req != (axi.Request{}) {
						active++
					}
				}
				Expect(active).To(BeNumerically("<=", 1))
			}
		}
	})
})
