package interconnect

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axilite/addrmap"
)

var _ = Describe("ParseTopology", func() {
	DescribeTable("valid descriptors",
		func(s string, masters, slaves int) {
			m, n, err := ParseTopology(s)

			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(masters))
			Expect(n).To(Equal(slaves))
		},
		Entry("m2s1", "m2s1", 2, 1),
		Entry("m1s1", "m1s1", 1, 1),
		Entry("m12s30", "m12s30", 12, 30),
	)

	DescribeTable("invalid descriptors",
		func(s string) {
			_, _, err := ParseTopology(s)

			Expect(err).To(MatchError(ErrTopology))
		},
		Entry("empty", ""),
		Entry("missing slaves", "m2"),
		Entry("reversed", "s2m1"),
		Entry("zero masters", "m0s1"),
		Entry("zero slaves", "m1s0"),
		Entry("trailing text", "m1s1x"),
	)
})

var _ = Describe("Config", func() {
	It("should use the default map", func() {
		amap, err := DefaultConfig(2, 3).Validate()

		Expect(err).NotTo(HaveOccurred())
		Expect(amap.Len()).To(Equal(3))
		Expect(amap.Range(2)).To(Equal(addrmap.Range{Low: 0x20000, High: 0x2FFFF}))
	})

	It("should name the topology", func() {
		Expect(DefaultConfig(2, 1).Topology()).To(Equal("m2s1"))
	})

	It("should reject zero masters", func() {
		_, err := DefaultConfig(0, 1).Validate()

		Expect(err).To(MatchError(ErrConfig))
	})

	It("should reject zero slaves", func() {
		_, err := DefaultConfig(1, 0).Validate()

		Expect(err).To(MatchError(addrmap.ErrNoSlaves))
	})

	DescribeTable("data widths",
		func(width int, ok bool) {
			cfg := DefaultConfig(1, 1)
			cfg.DataWidth = width

			_, err := cfg.Validate()

			if ok {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(ErrConfig))
			}
		},
		Entry("8", 8, true),
		Entry("64", 64, true),
		Entry("1024", 1024, true),
		Entry("4", 4, false),
		Entry("48", 48, false),
		Entry("2048", 2048, false),
	)

	It("should reject an address width the default map does not fit", func() {
		cfg := DefaultConfig(1, 2)
		cfg.AddrWidth = 16

		_, err := cfg.Validate()

		Expect(err).To(MatchError(addrmap.ErrOutOfWidth))
	})

	It("should reject a map that does not match the slave count", func() {
		amap, err := addrmap.New(32, addrmap.Range{Low: 0, High: 0xFF})
		Expect(err).NotTo(HaveOccurred())

		cfg := DefaultConfig(1, 2)
		cfg.AddressMap = amap

		_, err = cfg.Validate()

		Expect(err).To(MatchError(addrmap.ErrSlaveCount))
	})

	It("should reject a map of another address width", func() {
		amap, err := addrmap.New(16, addrmap.Range{Low: 0, High: 0xFF})
		Expect(err).NotTo(HaveOccurred())

		cfg := DefaultConfig(1, 1)
		cfg.AddressMap = amap

		_, err = cfg.Validate()

		Expect(err).To(MatchError(ErrConfig))
	})
})
