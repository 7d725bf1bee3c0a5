package interconnect

import (
	"fmt"

	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/hdl"
)

// Netlist evaluates the generated interconnect cycle by cycle, with signals
// exchanged as axi bundles. Data must be at most 64 bits wide.
type Netlist struct {
	cfg    Config
	module *hdl.Module
	eval   *hdl.Evaluator
}

// NewNetlist generates the interconnect for cfg and clocks it once in reset.
func NewNetlist(cfg Config) (*Netlist, error) {
	m, err := Generate(cfg)
	if err != nil {
		return nil, err
	}

	e, err := hdl.NewEvaluator(m, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	n := &Netlist{cfg: cfg, module: m, eval: e}

	idle := make([]axi.Request, cfg.Masters)
	quiet := make([]axi.Response, cfg.Slaves)
	if err := n.Drive(true, idle, quiet); err != nil {
		return nil, err
	}

	if err := n.Clock(); err != nil {
		return nil, err
	}

	return n, nil
}

// Module returns the evaluated module.
func (n *Netlist) Module() *hdl.Module {
	return n.module
}

// Drive applies the reset and the signals driven by masters and slaves and
// settles the combinational logic.
func (n *Netlist) Drive(reset bool, masters []axi.Request, slaves []axi.Response) error {
	if len(masters) != n.cfg.Masters || len(slaves) != n.cfg.Slaves {
		panic(fmt.Sprintf("netlist %s driven with %d masters and %d slaves",
			n.cfg.Topology(), len(masters), len(slaves)))
	}

	set := func(name string, v uint64) {
		if err := n.eval.Set(name, v); err != nil {
			panic(err)
		}
	}

	set(Reset, boolBit(!reset))

	for i, req := range masters {
		for name, v := range requestSignals(req) {
			set(MasterSignal(i, name), v)
		}
	}

	for j, rsp := range slaves {
		for name, v := range responseSignals(rsp) {
			set(SlaveSignal(j, name), v)
		}
	}

	return n.eval.Settle()
}

// Masters returns what every master observes.
func (n *Netlist) Masters() []axi.Response {
	out := make([]axi.Response, n.cfg.Masters)

	for i := range out {
		get := func(sig string) uint64 { return n.eval.Get(MasterSignal(i, sig)) }

		out[i] = axi.Response{
			AWReady: get("AWREADY") != 0,
			WReady:  get("WREADY") != 0,
			BValid:  get("BVALID") != 0,
			BResp:   axi.Resp(get("BRESP")),
			ARReady: get("ARREADY") != 0,
			RValid:  get("RVALID") != 0,
			RResp:   axi.Resp(get("RRESP")),
			RData:   get("RDATA"),
		}
	}

	return out
}

// Slaves returns what every slave observes.
func (n *Netlist) Slaves() []axi.Request {
	out := make([]axi.Request, n.cfg.Slaves)

	for j := range out {
		get := func(sig string) uint64 { return n.eval.Get(SlaveSignal(j, sig)) }

		out[j] = axi.Request{
			AWValid: get("AWVALID") != 0,
			AWAddr:  get("AWADDR"),
			WValid:  get("WVALID") != 0,
			WData:   get("WDATA"),
			WStrb:   uint8(get("WSTRB")),
			BReady:  get("BREADY") != 0,
			ARValid: get("ARVALID") != 0,
			ARAddr:  get("ARADDR"),
			RReady:  get("RREADY") != 0,
		}
	}

	return out
}

// State reads the arbiter registers.
func (n *Netlist) State() arbitration.State {
	return arbitration.State{
		Phase: arbitration.Phase(n.eval.Get(StateReg)),
		Selection: arbitration.Selection{
			Master: int(n.eval.Get(SelMasterReg)),
			Slave:  int(n.eval.Get(SelSlaveReg)),
		},
		AddrDone: n.eval.GetBool(MissAddrDone),
		DataDone: n.eval.GetBool(MissDataDone),
	}
}

// Clock applies one rising clock edge with the driven signals.
func (n *Netlist) Clock() error {
	return n.eval.Clock()
}

func requestSignals(r axi.Request) map[string]uint64 {
	return map[string]uint64{
		"AWVALID": boolBit(r.AWValid),
		"AWADDR":  r.AWAddr,
		"WVALID":  boolBit(r.WValid),
		"WDATA":   r.WData,
		"WSTRB":   uint64(r.WStrb),
		"BREADY":  boolBit(r.BReady),
		"ARVALID": boolBit(r.ARValid),
		"ARADDR":  r.ARAddr,
		"RREADY":  boolBit(r.RReady),
	}
}

func responseSignals(r axi.Response) map[string]uint64 {
	return map[string]uint64{
		"AWREADY": boolBit(r.AWReady),
		"WREADY":  boolBit(r.WReady),
		"BVALID":  boolBit(r.BValid),
		"BRESP":   uint64(r.BResp),
		"ARREADY": boolBit(r.ARReady),
		"RVALID":  boolBit(r.RValid),
		"RRESP":   uint64(r.RResp),
		"RDATA":   r.RData,
	}
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}
