package interconnect

import (
	"fmt"
	"strings"

	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/hdl"
)

// Names of the clock, the reset and the bus parameters.
const (
	Clock     = "iCLK"
	Reset     = "iRST"
	AddrParam = "ADDR_WIDTH"
	DataParam = "DATA_WIDTH"
)

// Names of the arbiter registers and nets.
const (
	StateReg     = "state"
	NextState    = "next_state"
	SelMaster    = "sel_m"
	SelMasterReg = "sel_m_reg"
	SelSlave     = "sel_s"
	SelSlaveReg  = "sel_s_reg"
	ReadStart    = "read_start"
	WriteStart   = "write_start"
	WriteDone    = "write_done"
	ReadDone     = "read_done"
	AWAddrSel    = "aw_addr"
	ARAddrSel    = "ar_addr"
	MissAddrDone = "miss_addr_done"
	MissDataDone = "miss_data_done"
	MissAddrSeen = "miss_addr_valid"
	MissDataSeen = "miss_data_valid"
)

// State names of the arbiter.
const (
	StateIdle  = "IDLE"
	StateWrite = "WRITE"
	StateRead  = "READ"
)

// ModuleName returns the name of the interconnect module for a topology.
func ModuleName(masters, slaves int) string {
	return fmt.Sprintf("axi4_lite_interconnect_m%ds%d", masters, slaves)
}

// MasterSignal names signal sig of master port i, e.g. m0_AWVALID.
func MasterSignal(i int, sig string) string {
	return fmt.Sprintf("m%d_%s", i, sig)
}

// SlaveSignal names signal sig of slave port j, e.g. s1_RDATA.
func SlaveSignal(j int, sig string) string {
	return fmt.Sprintf("s%d_%s", j, sig)
}

// LowAddr names the parameter holding the lowest address of slave j.
func LowAddr(j int) string {
	return fmt.Sprintf("LOW_ADDR%d", j)
}

// HighAddr names the parameter holding the highest address of slave j.
func HighAddr(j int) string {
	return fmt.Sprintf("HIGH_ADDR%d", j)
}

func missSignal(sig string) string {
	return "miss_" + strings.ToLower(sig)
}

// SignalWidth returns the width expression of a signal in terms of the bus
// parameters.
func SignalWidth(k axi.WidthKind) hdl.Expr {
	switch k {
	case axi.WidthAddr:
		return hdl.R(AddrParam)
	case axi.WidthData:
		return hdl.R(DataParam)
	case axi.WidthStrb:
		return hdl.Div(hdl.R(DataParam), hdl.Int(8))
	case axi.WidthResp:
		return hdl.Int(2)
	}

	return nil
}

func idleValue(k axi.WidthKind) hdl.Expr {
	switch k {
	case axi.WidthBit:
		return hdl.Bit(false)
	case axi.WidthResp:
		return hdl.Const{Width: 2, Base: hdl.Bin}
	}

	return hdl.Int(0)
}
