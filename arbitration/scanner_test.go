package arbitration

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axilite/axi"
)

var _ = Describe("Scan", func() {
	It("should return none when no master requests", func() {
		reqs := make([]axi.Request, 3)

		Expect(Scan(reqs)).To(Equal(Grant{Master: 3, Kind: KindNone}))
	})

	It("should grant the lowest requesting index", func() {
		reqs := make([]axi.Request, 3)
		reqs[1].AWValid = true
		reqs[2].ARValid = true

		Expect(Scan(reqs)).To(Equal(Grant{Master: 1, Kind: KindWrite}))
	})

	It("should prefer a read over a write of the same master", func() {
		reqs := make([]axi.Request, 2)
		reqs[0].AWValid = true
		reqs[0].ARValid = true

		Expect(Scan(reqs)).To(Equal(Grant{Master: 0, Kind: KindRead}))
	})

	It("should let a lower-index write beat a higher-index read", func() {
		reqs := make([]axi.Request, 2)
		reqs[0].AWValid = true
		reqs[1].ARValid = true

		Expect(Scan(reqs)).To(Equal(Grant{Master: 0, Kind: KindWrite}))
	})

	It("should resolve contention the same way every time", func() {
		reqs := make([]axi.Request, 2)
		reqs[0].AWValid = true
		reqs[1].AWValid = true

		for i := 0; i < 100; i++ {
			Expect(Scan(reqs).Master).To(Equal(0))
		}
	})
})
