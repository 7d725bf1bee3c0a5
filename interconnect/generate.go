package interconnect

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/hdl"
)

// Generate builds the interconnect described by cfg. Nothing is returned
// when the configuration is invalid.
func Generate(cfg Config) (*hdl.Module, error) {
	amap, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	a := &assembler{
		cfg:  cfg,
		amap: amap,
		m: &hdl.Module{
			Name: ModuleName(cfg.Masters, cfg.Slaves),
			Comment: fmt.Sprintf(
				"Code generated by axilite. DO NOT EDIT.\n"+
					"%d master(s), %d slave(s), %d-bit address, %d-bit data.",
				cfg.Masters, cfg.Slaves, cfg.AddrWidth, cfg.DataWidth),
			Clock: Clock,
			Reset: Reset,
		},
	}

	a.params()
	a.ports()
	a.nets()
	a.stateMachine()
	a.registers()
	a.scanner()
	a.decoder()
	a.handshakes()
	a.missResponder()
	a.masterRouting()
	a.slaveRouting()

	if err := a.m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	log.WithFields(log.Fields{
		"module":  a.m.Name,
		"ports":   len(a.m.AllPorts()),
		"assigns": len(a.m.AllAssigns()),
	}).Debug("interconnect assembled")

	return a.m, nil
}

type assembler struct {
	cfg  Config
	amap *addrmap.Map
	m    *hdl.Module
}

func (a *assembler) none(n int) hdl.Expr {
	return hdl.Int(uint64(n))
}

func (a *assembler) inState(state string) hdl.Expr {
	return hdl.Eq(hdl.R(StateReg), hdl.R(state))
}

func (a *assembler) params() {
	bus := hdl.ParamGroup{
		Comment: "parameters",
		Params: []hdl.Param{
			{Name: AddrParam, Value: hdl.Int(uint64(a.cfg.AddrWidth))},
			{Name: DataParam, Value: hdl.Int(uint64(a.cfg.DataWidth))},
		},
	}

	addrs := hdl.ParamGroup{Comment: "address parameters"}
	for j, r := range a.amap.Ranges() {
		addrs.Params = append(addrs.Params,
			hdl.Param{Name: LowAddr(j), Value: hdl.HexConst(a.cfg.AddrWidth, r.Low)},
			hdl.Param{Name: HighAddr(j), Value: hdl.HexConst(a.cfg.AddrWidth, r.High)},
		)
	}

	a.m.Params = []hdl.ParamGroup{bus, addrs}
}

func channelGroups(name func(string) string, initiatorDir hdl.Dir) []hdl.PortGroup {
	groups := []hdl.PortGroup{}

	for c := axi.ChannelWriteAddr; c <= axi.ChannelReadData; c++ {
		g := hdl.PortGroup{Comment: c.String() + " channel"}

		for _, sig := range axi.Signals {
			if sig.Channel != c {
				continue
			}

			dir := initiatorDir
			if !sig.FromInitiator {
				dir = 1 - initiatorDir
			}

			g.Ports = append(g.Ports, hdl.Port{
				Name:  name(sig.Name),
				Dir:   dir,
				Width: SignalWidth(sig.Width),
			})
		}

		groups = append(groups, g)
	}

	return groups
}

func (a *assembler) ports() {
	for i := 0; i < a.cfg.Masters; i++ {
		a.m.Ports = append(a.m.Ports, hdl.PortBundle{
			Comment: fmt.Sprintf("master interface %d", i),
			Groups: channelGroups(func(sig string) string {
				return MasterSignal(i, sig)
			}, hdl.Input),
		})
	}

	for j := 0; j < a.cfg.Slaves; j++ {
		a.m.Ports = append(a.m.Ports, hdl.PortBundle{
			Comment: fmt.Sprintf("slave interface %d", j),
			Groups: channelGroups(func(sig string) string {
				return SlaveSignal(j, sig)
			}, hdl.Output),
		})
	}
}

func (a *assembler) nets() {
	mw := hdl.Int(uint64(selWidth(a.cfg.Masters)))
	sw := hdl.Int(uint64(selWidth(a.cfg.Slaves)))
	addr := hdl.R(AddrParam)

	a.m.Nets = []hdl.Net{
		{Name: ReadStart, Kind: hdl.Reg},
		{Name: WriteStart, Kind: hdl.Reg},
		{Name: SelMaster, Kind: hdl.Reg, Width: mw},
		{Name: SelMasterReg, Kind: hdl.Reg, Width: mw},
		{Name: SelSlave, Kind: hdl.Reg, Width: sw},
		{Name: SelSlaveReg, Kind: hdl.Reg, Width: sw},
		{Name: MissAddrDone, Kind: hdl.Reg},
		{Name: MissDataDone, Kind: hdl.Reg},
		{Name: AWAddrSel, Kind: hdl.Wire, Width: addr},
		{Name: ARAddrSel, Kind: hdl.Wire, Width: addr},
		{Name: WriteDone, Kind: hdl.Wire},
		{Name: ReadDone, Kind: hdl.Wire},
		{Name: MissAddrSeen, Kind: hdl.Wire},
		{Name: MissDataSeen, Kind: hdl.Wire},
	}

	for _, sig := range missSignals {
		a.m.Nets = append(a.m.Nets, hdl.Net{Name: missSignal(sig), Kind: hdl.Wire})
	}
}

func (a *assembler) stateMachine() {
	a.m.FSM = &hdl.FSM{
		Current: StateReg,
		Next:    NextState,
		Width:   2,
		States: []hdl.State{
			{Name: StateIdle, Code: uint64(arbitration.PhaseIdle)},
			{Name: StateWrite, Code: uint64(arbitration.PhaseWrite)},
			{Name: StateRead, Code: uint64(arbitration.PhaseRead)},
		},
		Transitions: []hdl.Transition{
			{From: StateIdle, To: StateWrite, When: hdl.R(WriteStart)},
			{From: StateIdle, To: StateRead, When: hdl.R(ReadStart)},
			{From: StateWrite, To: StateIdle, When: hdl.R(WriteDone)},
			{From: StateRead, To: StateIdle, When: hdl.R(ReadDone)},
		},
	}
}

func (a *assembler) clearSelection() []hdl.Stmt {
	return []hdl.Stmt{
		hdl.Set{Target: SelMasterReg, Value: a.none(a.cfg.Masters)},
		hdl.Set{Target: SelSlaveReg, Value: a.none(a.cfg.Slaves)},
		hdl.Set{Target: MissAddrDone, Value: hdl.Bit(false)},
		hdl.Set{Target: MissDataDone, Value: hdl.Bit(false)},
	}
}

// registers latches the selection when leaving IDLE, clears it when the
// transaction completes and tracks the handshakes accepted on a decode miss.
func (a *assembler) registers() {
	reset := append([]hdl.Stmt{
		hdl.Set{Target: StateReg, Value: hdl.R(StateIdle)},
	}, a.clearSelection()...)

	latch := []hdl.Stmt{
		hdl.Set{Target: SelMasterReg, Value: hdl.R(SelMaster)},
		hdl.Set{Target: SelSlaveReg, Value: hdl.R(SelSlave)},
		hdl.Set{Target: MissAddrDone, Value: hdl.Bit(false)},
		hdl.Set{Target: MissDataDone, Value: hdl.Bit(false)},
	}

	trackMiss := hdl.If{
		Cond: hdl.Eq(hdl.R(SelSlaveReg), a.none(a.cfg.Slaves)),
		Then: []hdl.Stmt{
			hdl.Set{Target: MissAddrDone, Value: hdl.Or(hdl.R(MissAddrDone), hdl.R(MissAddrSeen))},
			hdl.Set{Target: MissDataDone, Value: hdl.Or(hdl.R(MissDataDone), hdl.R(MissDataSeen))},
		},
	}

	a.m.Blocks = append(a.m.Blocks, hdl.Block{
		Comment: "registers",
		Kind:    hdl.Seq,
		Body: []hdl.Stmt{hdl.If{
			Cond: hdl.Not(hdl.R(Reset)),
			Then: reset,
			Else: []hdl.Stmt{
				hdl.Set{Target: StateReg, Value: hdl.R(NextState)},
				hdl.If{
					Cond: a.inState(StateIdle),
					Then: latch,
					Else: []hdl.Stmt{hdl.If{
						Cond: hdl.Or(hdl.R(WriteDone), hdl.R(ReadDone)),
						Then: a.clearSelection(),
						Else: []hdl.Stmt{trackMiss},
					}},
				},
			},
		}},
	})
}

// scanner grants the bus to the lowest-indexed requesting master. A read
// wins over a write of the same master.
func (a *assembler) scanner() {
	var chain []hdl.Stmt

	for i := a.cfg.Masters - 1; i >= 0; i-- {
		grant := func(start string) []hdl.Stmt {
			return []hdl.Stmt{
				hdl.Set{Target: SelMaster, Value: hdl.Int(uint64(i))},
				hdl.Set{Target: start, Value: hdl.Bit(true)},
			}
		}

		chain = []hdl.Stmt{hdl.If{
			Cond: hdl.R(MasterSignal(i, "ARVALID")),
			Then: grant(ReadStart),
			Else: []hdl.Stmt{hdl.If{
				Cond: hdl.R(MasterSignal(i, "AWVALID")),
				Then: grant(WriteStart),
				Else: chain,
			}},
		}}
	}

	a.m.Blocks = append(a.m.Blocks, hdl.Block{
		Comment: "request scanner",
		Kind:    hdl.Comb,
		Body: []hdl.Stmt{
			hdl.Set{Target: SelMaster, Value: a.none(a.cfg.Masters)},
			hdl.Set{Target: WriteStart, Value: hdl.Bit(false)},
			hdl.Set{Target: ReadStart, Value: hdl.Bit(false)},
			hdl.If{Cond: a.inState(StateIdle), Then: chain},
		},
	})
}

func (a *assembler) decodeChain(addr string) []hdl.Stmt {
	var chain []hdl.Stmt

	for j := a.cfg.Slaves - 1; j >= 0; j-- {
		chain = []hdl.Stmt{hdl.If{
			Cond: hdl.And(
				hdl.Ge(hdl.R(addr), hdl.R(LowAddr(j))),
				hdl.Le(hdl.R(addr), hdl.R(HighAddr(j))),
			),
			Then: []hdl.Stmt{hdl.Set{Target: SelSlave, Value: hdl.Int(uint64(j))}},
			Else: chain,
		}}
	}

	return chain
}

func (a *assembler) masterMux(sig string, dflt hdl.Expr) hdl.Mux {
	return a.muxMasters(SelMaster, sig, dflt)
}

func (a *assembler) muxMasters(key, sig string, dflt hdl.Expr) hdl.Mux {
	mux := hdl.Mux{Key: hdl.R(key), Default: dflt}
	for i := 0; i < a.cfg.Masters; i++ {
		mux.Arms = append(mux.Arms, hdl.Arm{
			Match: uint64(i),
			Value: hdl.R(MasterSignal(i, sig)),
		})
	}

	return mux
}

// decoder maps the address of the granted master to a slave.
func (a *assembler) decoder() {
	a.m.Assigns = append(a.m.Assigns, hdl.AssignGroup{
		Comment: "address of the granted master",
		Assigns: []hdl.Assign{
			{Target: AWAddrSel, Value: a.masterMux("AWADDR", hdl.Int(0))},
			{Target: ARAddrSel, Value: a.masterMux("ARADDR", hdl.Int(0))},
		},
	})

	a.m.Blocks = append(a.m.Blocks, hdl.Block{
		Comment: "address decoder",
		Kind:    hdl.Comb,
		Body: []hdl.Stmt{
			hdl.Set{Target: SelSlave, Value: a.none(a.cfg.Slaves)},
			hdl.If{
				Cond: hdl.R(WriteStart),
				Then: a.decodeChain(AWAddrSel),
				Else: []hdl.Stmt{hdl.If{
					Cond: hdl.R(ReadStart),
					Then: a.decodeChain(ARAddrSel),
				}},
			},
		},
	})
}

func (a *assembler) handshake(ready, valid string) hdl.Mux {
	mux := hdl.Mux{Key: hdl.R(SelMasterReg), Default: hdl.Bit(false)}
	for i := 0; i < a.cfg.Masters; i++ {
		mux.Arms = append(mux.Arms, hdl.Arm{
			Match: uint64(i),
			Value: hdl.And(hdl.R(MasterSignal(i, ready)), hdl.R(MasterSignal(i, valid))),
		})
	}

	return mux
}

// handshakes observes the completing handshake on the selected master.
func (a *assembler) handshakes() {
	a.m.Assigns = append(a.m.Assigns, hdl.AssignGroup{
		Comment: "transaction completion",
		Assigns: []hdl.Assign{
			{Target: WriteDone, Value: hdl.And(a.inState(StateWrite), a.handshake("BREADY", "BVALID"))},
			{Target: ReadDone, Value: hdl.And(a.inState(StateRead), a.handshake("RREADY", "RVALID"))},
		},
	})
}

var missSignals = []string{"AWREADY", "WREADY", "BVALID", "ARREADY", "RVALID"}

// missResponder answers a transaction that decodes to no slave: it accepts
// the request channels and responds OKAY with zero data.
func (a *assembler) missResponder() {
	sel := func(sig string) hdl.Expr {
		return a.muxMasters(SelMasterReg, sig, hdl.Bit(false))
	}
	addrDone, dataDone := hdl.R(MissAddrDone), hdl.R(MissDataDone)
	writing, reading := a.inState(StateWrite), a.inState(StateRead)

	a.m.Assigns = append(a.m.Assigns, hdl.AssignGroup{
		Comment: "decode miss responder",
		Assigns: []hdl.Assign{
			{Target: MissAddrSeen, Value: hdl.Cond(writing, sel("AWVALID"),
				hdl.Cond(reading, sel("ARVALID"), hdl.Bit(false)))},
			{Target: MissDataSeen, Value: hdl.And(writing, sel("WVALID"))},
			{Target: missSignal("AWREADY"), Value: hdl.And(writing, hdl.Not(addrDone))},
			{Target: missSignal("WREADY"), Value: hdl.And(writing, hdl.Not(dataDone))},
			{Target: missSignal("BVALID"), Value: hdl.And(writing, addrDone, dataDone)},
			{Target: missSignal("ARREADY"), Value: hdl.And(reading, hdl.Not(addrDone))},
			{Target: missSignal("RVALID"), Value: hdl.And(reading, addrDone)},
		},
	})
}

func missValue(sig axi.Signal) hdl.Expr {
	for _, name := range missSignals {
		if name == sig.Name {
			return hdl.R(missSignal(name))
		}
	}

	return idleValue(sig.Width)
}

// masterRouting drives every response signal of master i from the selected
// slave while i is selected, and idles it otherwise.
func (a *assembler) masterRouting() {
	for i := 0; i < a.cfg.Masters; i++ {
		g := hdl.AssignGroup{Comment: fmt.Sprintf("master %d", i)}

		for _, sig := range axi.Signals {
			if sig.FromInitiator {
				continue
			}

			mux := hdl.Mux{Key: hdl.R(SelSlaveReg), Default: missValue(sig)}
			for j := 0; j < a.cfg.Slaves; j++ {
				mux.Arms = append(mux.Arms, hdl.Arm{
					Match: uint64(j),
					Value: hdl.R(SlaveSignal(j, sig.Name)),
				})
			}

			g.Assigns = append(g.Assigns, hdl.Assign{
				Target: MasterSignal(i, sig.Name),
				Value: hdl.Cond(
					hdl.Eq(hdl.R(SelMasterReg), hdl.Int(uint64(i))),
					mux,
					idleValue(sig.Width),
				),
			})
		}

		a.m.Assigns = append(a.m.Assigns, g)
	}
}

// slaveRouting drives every request signal of slave j from the selected
// master while j is selected. Valid addresses are rebased to the slave
// window and idle addresses are driven as zero.
func (a *assembler) slaveRouting() {
	for j := 0; j < a.cfg.Slaves; j++ {
		g := hdl.AssignGroup{Comment: fmt.Sprintf("slave %d", j)}

		for _, sig := range axi.Signals {
			if !sig.FromInitiator {
				continue
			}

			mux := hdl.Mux{Key: hdl.R(SelMasterReg), Default: idleValue(sig.Width)}
			for i := 0; i < a.cfg.Masters; i++ {
				var v hdl.Expr = hdl.R(MasterSignal(i, sig.Name))
				if sig.IsAddress() {
					v = hdl.Cond(
						hdl.R(MasterSignal(i, sig.Valid())),
						hdl.Sub(v, hdl.R(LowAddr(j))),
						idleValue(sig.Width),
					)
				}

				mux.Arms = append(mux.Arms, hdl.Arm{Match: uint64(i), Value: v})
			}

			g.Assigns = append(g.Assigns, hdl.Assign{
				Target: SlaveSignal(j, sig.Name),
				Value: hdl.Cond(
					hdl.Eq(hdl.R(SelSlaveReg), hdl.Int(uint64(j))),
					mux,
					idleValue(sig.Width),
				),
			})
		}

		a.m.Assigns = append(a.m.Assigns, g)
	}
}
