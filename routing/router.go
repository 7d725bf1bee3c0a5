// Package routing renders the signal routing implied by the registered
// arbiter state: it multiplexes the selected slave towards the selected master
// and the selected master towards the selected slave.
package routing

import (
	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
)

// Result is the routed view of one cycle.
type Result struct {
	// Masters[i] is what master i observes.
	Masters []axi.Response
	// Slaves[j] is what slave j observes.
	Slaves []axi.Request
}

// Route computes the signals seen by every master and slave for the given
// registered state. Unselected ports observe idle (zero) signals.
func Route(
	s arbitration.State,
	masters []axi.Request,
	slaves []axi.Response,
	amap *addrmap.Map,
) Result {
	res := Result{
		Masters: make([]axi.Response, len(masters)),
		Slaves:  make([]axi.Request, len(slaves)),
	}

	for i := range masters {
		res.Masters[i] = masterView(i, s, slaves)
	}

	for j := range slaves {
		res.Slaves[j] = slaveView(j, s, masters, amap)
	}

	return res
}

// Handshakes reports the completion handshakes of the bound pair, as
// observed on the routed signals of the selected master.
func (r Result) Handshakes(
	s arbitration.State,
	masters []axi.Request,
) (writeRespDone, readDataDone bool) {
	m := s.Selection.Master
	if m < 0 || m >= len(masters) {
		return false, false
	}

	switch s.Phase {
	case arbitration.PhaseWrite:
		writeRespDone = axi.WriteRespDone(masters[m], r.Masters[m])
	case arbitration.PhaseRead:
		readDataDone = axi.ReadDataDone(masters[m], r.Masters[m])
	}

	return writeRespDone, readDataDone
}

func masterView(i int, s arbitration.State, slaves []axi.Response) axi.Response {
	if i != s.Selection.Master {
		return axi.Response{}
	}

	return selectSlave(s, slaves)
}

// selectSlave multiplexes the slaves on the registered slave selection. The
// default branch is the decode-miss responder.
func selectSlave(s arbitration.State, slaves []axi.Response) axi.Response {
	j := s.Selection.Slave
	if j >= 0 && j < len(slaves) {
		return slaves[j]
	}

	return MissResponse(s)
}

// MissResponse is what the interconnect answers on its own when the bound
// address decodes to no slave: every request is accepted, and the response
// carries OKAY and zero data once the request handshakes are done.
func MissResponse(s arbitration.State) axi.Response {
	switch s.Phase {
	case arbitration.PhaseWrite:
		return axi.Response{
			AWReady: !s.AddrDone,
			WReady:  !s.DataDone,
			BValid:  s.AddrDone && s.DataDone,
			BResp:   axi.RespOkay,
		}
	case arbitration.PhaseRead:
		return axi.Response{
			ARReady: !s.AddrDone,
			RValid:  s.AddrDone,
			RResp:   axi.RespOkay,
		}
	}

	return axi.Response{}
}

func slaveView(
	j int,
	s arbitration.State,
	masters []axi.Request,
	amap *addrmap.Map,
) axi.Request {
	if j != s.Selection.Slave {
		return axi.Request{}
	}

	req, ok := selectMaster(s, masters)
	if !ok {
		return axi.Request{}
	}

	req.AWAddr = rebase(amap, j, req.AWValid, req.AWAddr)
	req.ARAddr = rebase(amap, j, req.ARValid, req.ARAddr)

	return req
}

// rebase moves a valid address into the window of slave j. An address
// without its VALID is driven as zero.
func rebase(amap *addrmap.Map, j int, valid bool, addr uint64) uint64 {
	if !valid {
		return 0
	}

	return amap.Rebase(j, addr)
}

// selectMaster multiplexes the masters on the registered master selection.
func selectMaster(s arbitration.State, masters []axi.Request) (axi.Request, bool) {
	i := s.Selection.Master
	if i < 0 || i >= len(masters) {
		return axi.Request{}, false
	}

	return masters[i], true
}
