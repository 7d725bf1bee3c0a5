package axi

import "strings"

// Channel identifies one of the five independent signal groups of a
// connection.
type Channel int

// The five channels, in the order ports are declared.
const (
	ChannelWriteAddr Channel = iota
	ChannelWriteData
	ChannelWriteResp
	ChannelReadAddr
	ChannelReadData
)

var channelNames = [...]string{
	"write address",
	"write data",
	"write response",
	"read address",
	"read data",
}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return "unknown"
	}

	return channelNames[c]
}

// WidthKind tells how wide a signal is, relative to the bus parameters.
type WidthKind int

// Width kinds.
const (
	WidthBit WidthKind = iota
	WidthAddr
	WidthData
	WidthStrb
	WidthResp
)

// Signal describes one wire of a connection.
type Signal struct {
	Name    string
	Channel Channel
	Width   WidthKind

	// FromInitiator is true for signals carried by Request, i.e. driven by
	// the master side of the connection.
	FromInitiator bool
}

// Signals lists every wire of a connection in declaration order.
var Signals = []Signal{
	{"AWVALID", ChannelWriteAddr, WidthBit, true},
	{"AWADDR", ChannelWriteAddr, WidthAddr, true},
	{"AWREADY", ChannelWriteAddr, WidthBit, false},

	{"WVALID", ChannelWriteData, WidthBit, true},
	{"WSTRB", ChannelWriteData, WidthStrb, true},
	{"WDATA", ChannelWriteData, WidthData, true},
	{"WREADY", ChannelWriteData, WidthBit, false},

	{"BREADY", ChannelWriteResp, WidthBit, true},
	{"BVALID", ChannelWriteResp, WidthBit, false},
	{"BRESP", ChannelWriteResp, WidthResp, false},

	{"ARVALID", ChannelReadAddr, WidthBit, true},
	{"ARADDR", ChannelReadAddr, WidthAddr, true},
	{"ARREADY", ChannelReadAddr, WidthBit, false},

	{"RREADY", ChannelReadData, WidthBit, true},
	{"RVALID", ChannelReadData, WidthBit, false},
	{"RRESP", ChannelReadData, WidthResp, false},
	{"RDATA", ChannelReadData, WidthData, false},
}

// IsAddress reports whether the signal carries an address that the
// interconnect rebases for the slave.
func (s Signal) IsAddress() bool {
	return s.Width == WidthAddr
}

// Valid returns the name of the VALID signal that qualifies s on its
// channel.
func (s Signal) Valid() string {
	for _, v := range Signals {
		if v.Channel == s.Channel && v.Width == WidthBit &&
			strings.HasSuffix(v.Name, "VALID") {
			return v.Name
		}
	}

	return ""
}

// MasterPort is the connection between the interconnect and one master.
type MasterPort struct {
	Index int

	// Out is what the master drives.
	Out Request
	// In is the interconnect's routed view towards the master.
	In Response
}

// SlavePort is the connection between the interconnect and one slave.
type SlavePort struct {
	Index int

	LowAddr  uint64
	HighAddr uint64

	// In is the interconnect's routed view towards the slave. Addresses are
	// already rebased by LowAddr.
	In Request
	// Out is what the slave drives.
	Out Response
}
