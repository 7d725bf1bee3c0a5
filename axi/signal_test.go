package axi

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handshakes", func() {
	It("should need both valid and ready", func() {
		req := Request{AWValid: true, WValid: true, BReady: true}
		rsp := Response{AWReady: true}

		Expect(WriteAddrDone(req, rsp)).To(BeTrue())
		Expect(WriteDataDone(req, rsp)).To(BeFalse())
		Expect(WriteRespDone(req, rsp)).To(BeFalse())

		rsp.BValid = true
		Expect(WriteRespDone(req, rsp)).To(BeTrue())
	})

	It("should never complete between idle bundles", func() {
		req, rsp := Request{}, Response{}

		Expect(WriteAddrDone(req, rsp)).To(BeFalse())
		Expect(WriteDataDone(req, rsp)).To(BeFalse())
		Expect(WriteRespDone(req, rsp)).To(BeFalse())
		Expect(ReadAddrDone(req, rsp)).To(BeFalse())
		Expect(ReadDataDone(req, rsp)).To(BeFalse())
	})

	It("should complete the read channels", func() {
		req := Request{ARValid: true, RReady: true}
		rsp := Response{ARReady: true, RValid: true}

		Expect(ReadAddrDone(req, rsp)).To(BeTrue())
		Expect(ReadDataDone(req, rsp)).To(BeTrue())
	})
})

var _ = Describe("Signals", func() {
	It("should list every wire once", func() {
		seen := make(map[string]bool)
		for _, s := range Signals {
			Expect(seen).NotTo(HaveKey(s.Name))
			seen[s.Name] = true
		}

		Expect(Signals).To(HaveLen(17))
	})

	It("should mark the two address signals", func() {
		var addrs []string
		for _, s := range Signals {
			if s.IsAddress() {
				addrs = append(addrs, s.Name)
			}
		}

		Expect(addrs).To(Equal([]string{"AWADDR", "ARADDR"}))
	})

	It("should find the VALID signal of each channel", func() {
		valid := map[string]string{}
		for _, s := range Signals {
			valid[s.Name] = s.Valid()
		}

		Expect(valid["AWADDR"]).To(Equal("AWVALID"))
		Expect(valid["ARADDR"]).To(Equal("ARVALID"))
		Expect(valid["WDATA"]).To(Equal("WVALID"))
		Expect(valid["RDATA"]).To(Equal("RVALID"))
		Expect(valid["BREADY"]).To(Equal("BVALID"))
	})

	It("should name channels and responses", func() {
		Expect(ChannelReadData.String()).To(Equal("read data"))
		Expect(Channel(9).String()).To(Equal("unknown"))
		Expect(RespSlvErr.String()).To(Equal("SLVERR"))
		Expect(Resp(7).String()).To(Equal("UNKNOWN"))
	})
})
