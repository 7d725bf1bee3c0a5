package verilog

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axilite/hdl"
	"github.com/sarchlab/axilite/interconnect"
)

var _ = Describe("Render", func() {
	It("should render a minimal module", func() {
		m := &hdl.Module{
			Name: "inv",
			Ports: []hdl.PortBundle{{Groups: []hdl.PortGroup{{Ports: []hdl.Port{
				{Name: "a", Dir: hdl.Input},
				{Name: "y", Dir: hdl.Output},
			}}}}},
			Assigns: []hdl.AssignGroup{{Assigns: []hdl.Assign{
				{Target: "y", Value: hdl.Not(hdl.R("a"))},
			}}},
		}

		out, err := String(m)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(strings.Join([]string{
			"module inv (",
			"    input   " + strings.Repeat(" ", 24) + "a,",
			"    output  " + strings.Repeat(" ", 24) + "y",
			");",
			"",
			"    assign y            = !a;",
			"",
			"endmodule",
			"",
		}, "\n")))
	})

	It("should refuse a malformed module", func() {
		m := &hdl.Module{
			Name: "bad",
			Assigns: []hdl.AssignGroup{{Assigns: []hdl.Assign{
				{Target: "y", Value: hdl.R("a")},
			}}},
		}

		var sb strings.Builder
		err := Render(&sb, m)

		Expect(err).To(MatchError(hdl.ErrUndeclared))
		Expect(sb.String()).To(BeEmpty())
	})

	Context("interconnect m2s2", func() {
		var out string

		BeforeEach(func() {
			m, err := interconnect.Generate(interconnect.DefaultConfig(2, 2))
			Expect(err).NotTo(HaveOccurred())

			Expect(FileName(m)).To(Equal("axi4_lite_interconnect_m2s2.v"))

			out, err = String(m)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should render the header", func() {
			Expect(out).To(HavePrefix("// Code generated by axilite. DO NOT EDIT.\n"))
			Expect(out).To(ContainSubstring("module axi4_lite_interconnect_m2s2 #(\n"))
			Expect(out).To(ContainSubstring("    parameter ADDR_WIDTH    = 32,\n"))
			Expect(out).To(ContainSubstring("    parameter HIGH_ADDR1    = 32'h0001_FFFF\n) (\n"))
			Expect(out).To(ContainSubstring("    input                           iCLK, iRST,\n"))
			Expect(out).To(HaveSuffix("endmodule\n"))
		})

		It("should render ports with their widths", func() {
			Expect(out).To(ContainSubstring("input   [ADDR_WIDTH-1:0]        m0_ARADDR,"))
			Expect(out).To(ContainSubstring("output  [(DATA_WIDTH / 8)-1:0]  s1_WSTRB,"))
			Expect(out).To(ContainSubstring("input   [DATA_WIDTH-1:0]        s1_RDATA\n);"))
		})

		It("should render the state machine", func() {
			Expect(out).To(ContainSubstring("    localparam IDLE     = 2'b00;\n"))
			Expect(out).To(ContainSubstring("    localparam READ     = 2'b10;\n"))
			Expect(out).To(ContainSubstring("    always @(posedge iCLK) begin\n        if (!iRST) begin\n"))
			Expect(out).To(ContainSubstring("        case (state)\n"))
			Expect(out).To(ContainSubstring("if (write_start) begin\n"))
			Expect(out).To(ContainSubstring("end else if (m0_AWVALID) begin\n"))
		})

		It("should drive every slave signal with a single assignment", func() {
			Expect(strings.Count(out, "assign s0_AWADDR")).To(Equal(1))
			Expect(out).To(ContainSubstring(
				"assign s0_AWADDR    = (sel_s_reg == 0) ? " +
					"((sel_m_reg == 0) ? (m0_AWVALID ? m0_AWADDR - LOW_ADDR0 : 0) : " +
					"(sel_m_reg == 1) ? (m1_AWVALID ? m1_AWADDR - LOW_ADDR0 : 0) : 0) : 0;"))
		})
	})
})
