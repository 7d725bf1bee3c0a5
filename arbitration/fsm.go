package arbitration

import (
	"fmt"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/axi"
)

// Phase is the registered state of the interconnect.
type Phase int

// Phases. The numeric values are the state encoding of the generated
// hardware.
const (
	PhaseIdle Phase = iota
	PhaseWrite
	PhaseRead
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseWrite:
		return "WRITE"
	case PhaseRead:
		return "READ"
	}

	return fmt.Sprintf("Phase(%d)", int(p))
}

// Selection is the (master, slave) pair bound to the bus. A field equal to
// the number of masters (resp. slaves) means "none".
type Selection struct {
	Master int
	Slave  int
}

// NoSelection returns the selection that binds nothing.
func NoSelection(masters, slaves int) Selection {
	return Selection{Master: masters, Slave: slaves}
}

// State bundles every register of the arbiter.
type State struct {
	Phase     Phase
	Selection Selection

	// AddrDone and DataDone record the handshakes accepted by the decode-miss
	// responder. They are only set while the selected slave is none.
	AddrDone bool
	DataDone bool
}

// Reset returns the state right after reset.
func Reset(masters, slaves int) State {
	return State{
		Phase:     PhaseIdle,
		Selection: NoSelection(masters, slaves),
	}
}

// Inputs is everything the arbiter samples at a clock edge.
type Inputs struct {
	// Reset is true while the active-low reset is asserted.
	Reset bool

	// Requests are the signals driven by the masters.
	Requests []axi.Request

	// Map decodes addresses to slaves.
	Map *addrmap.Map

	// WriteRespDone and ReadDataDone tell whether the write-response or
	// read-data handshake completed this cycle on the routed pair.
	WriteRespDone bool
	ReadDataDone  bool
}

// Propose returns the phase and selection the arbiter adopts when it leaves
// IDLE this cycle. It returns PhaseIdle and no selection when no master
// requests the bus.
func Propose(in Inputs) (Phase, Selection) {
	masters, slaves := len(in.Requests), in.Map.Len()

	grant := Scan(in.Requests)
	switch grant.Kind {
	case KindWrite:
		addr := in.Requests[grant.Master].AWAddr
		return PhaseWrite, Selection{grant.Master, in.Map.Decode(addr)}
	case KindRead:
		addr := in.Requests[grant.Master].ARAddr
		return PhaseRead, Selection{grant.Master, in.Map.Decode(addr)}
	}

	return PhaseIdle, NoSelection(masters, slaves)
}

// Next computes the state after the coming clock edge. Reset dominates the
// transition table.
func Next(s State, in Inputs) State {
	masters, slaves := len(in.Requests), in.Map.Len()

	if in.Reset {
		return Reset(masters, slaves)
	}

	switch s.Phase {
	case PhaseIdle:
		phase, sel := Propose(in)
		return State{Phase: phase, Selection: sel}
	case PhaseWrite:
		if in.WriteRespDone {
			return Reset(masters, slaves)
		}

		return s.trackMiss(in)
	case PhaseRead:
		if in.ReadDataDone {
			return Reset(masters, slaves)
		}

		return s.trackMiss(in)
	}

	return Reset(masters, slaves)
}

// IsMiss reports whether the bound transaction targets no slave.
func (s State) IsMiss(masters, slaves int) bool {
	return s.Phase != PhaseIdle &&
		s.Selection.Master < masters &&
		s.Selection.Slave >= slaves
}

func (s State) trackMiss(in Inputs) State {
	if !s.IsMiss(len(in.Requests), in.Map.Len()) {
		return s
	}

	req := in.Requests[s.Selection.Master]

	switch s.Phase {
	case PhaseWrite:
		s.AddrDone = s.AddrDone || req.AWValid
		s.DataDone = s.DataDone || req.WValid
	case PhaseRead:
		s.AddrDone = s.AddrDone || req.ARValid
	}

	return s
}
