package sim

import (
	"fmt"

	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
)

// An Op is one operation queued on a master.
type Op struct {
	Kind arbitration.Kind
	Addr uint64

	// Data and Strobe are the write data and its byte enables. A zero
	// Strobe enables every byte.
	Data   uint64
	Strobe uint8

	// When Check is set, a read must return Expect.
	Check  bool
	Expect uint64
}

// Write returns a write of data to addr with every byte enabled.
func Write(addr, data uint64) Op {
	return Op{Kind: arbitration.KindWrite, Addr: addr, Data: data}
}

// Read returns a read of addr.
func Read(addr uint64) Op {
	return Op{Kind: arbitration.KindRead, Addr: addr}
}

// ReadExpect returns a read of addr that must return expect.
func ReadExpect(addr, expect uint64) Op {
	return Op{Kind: arbitration.KindRead, Addr: addr, Check: true, Expect: expect}
}

func (o Op) String() string {
	if o.Kind == arbitration.KindWrite {
		return fmt.Sprintf("write 0x%x <- 0x%x/%b", o.Addr, o.Data, o.Strobe)
	}

	return fmt.Sprintf("%s 0x%x", o.Kind, o.Addr)
}

// A Transaction is an Op on its way through the interconnect. Cycles count
// from the first simulated cycle.
type Transaction struct {
	ID     string
	Master int
	Op     Op

	// Slave is the decoded slave, or -1 until the arbiter grants the bus
	// and for decode misses.
	Slave int
	Miss  bool

	RData uint64
	Resp  axi.Resp

	// StartCycle is the first cycle the master drives the request.
	// GrantCycle is the first cycle of the bound phase. EndCycle is the
	// cycle of the final handshake, or of the reset that aborted it.
	StartCycle uint64
	GrantCycle uint64
	EndCycle   uint64

	Granted bool
	Aborted bool
}

// Latency is the number of cycles from the first request to the final
// handshake, both included.
func (t *Transaction) Latency() uint64 {
	return t.EndCycle - t.StartCycle + 1
}

// PhaseChange is the item of HookPosPhaseChange.
type PhaseChange struct {
	// Cycle is the first cycle in the new phase.
	Cycle uint64
	From  arbitration.State
	To    arbitration.State
}

// A CycleRecord is everything exchanged during one cycle.
type CycleRecord struct {
	Cycle uint64
	Reset bool

	// State is the registered arbiter state during the cycle.
	State arbitration.State

	// Requests and Responses are driven by the masters and the slaves.
	// ToMasters and ToSlaves are what the interconnect routes to them.
	Requests  []axi.Request
	Responses []axi.Response
	ToMasters []axi.Response
	ToSlaves  []axi.Request
}
