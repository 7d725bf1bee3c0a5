// Package wrapper generates the top-level module that instantiates one
// master wrapper per master, one slave wrapper per slave and the
// interconnect between them.
package wrapper

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/hdl"
	"github.com/sarchlab/axilite/interconnect"
)

// Names of the wrapped agent modules.
const (
	MasterModule = "axi4_lite_master_wrapper"
	SlaveModule  = "axi4_lite_slave_wrapper"
)

// ModuleName returns the name of the wrapper for a topology.
func ModuleName(masters, slaves int) string {
	return "wrapper_" + interconnect.ModuleName(masters, slaves)
}

// Generate builds the wrapper of the interconnect described by cfg.
func Generate(cfg interconnect.Config) (*hdl.Module, error) {
	amap, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	m := &hdl.Module{
		Name: ModuleName(cfg.Masters, cfg.Slaves),
		Comment: fmt.Sprintf("Code generated by axilite. DO NOT EDIT.\n"+
			"Top level of %s.", interconnect.ModuleName(cfg.Masters, cfg.Slaves)),
		Clock: interconnect.Clock,
		Reset: interconnect.Reset,
		Ports: []hdl.PortBundle{{Groups: []hdl.PortGroup{{
			Comment: "output",
			Ports: []hdl.Port{
				{Name: "ADDR", Dir: hdl.Output, Width: hdl.R(interconnect.AddrParam)},
				{Name: "DATA", Dir: hdl.Output, Width: hdl.R(interconnect.DataParam)},
			},
		}}}},
	}

	addrs := hdl.ParamGroup{Comment: "address parameters"}
	for j, r := range amap.Ranges() {
		addrs.Params = append(addrs.Params,
			hdl.Param{Name: interconnect.LowAddr(j), Value: hdl.HexConst(cfg.AddrWidth, r.Low)},
			hdl.Param{Name: interconnect.HighAddr(j), Value: hdl.HexConst(cfg.AddrWidth, r.High)},
		)
	}

	m.Params = []hdl.ParamGroup{
		{
			Comment: "parameters",
			Params: []hdl.Param{
				{Name: interconnect.AddrParam, Value: hdl.Int(uint64(cfg.AddrWidth))},
				{Name: interconnect.DataParam, Value: hdl.Int(uint64(cfg.DataWidth))},
			},
		},
		addrs,
	}

	for i := 0; i < cfg.Masters; i++ {
		m.Nets = append(m.Nets, wires(func(sig string) string {
			return interconnect.MasterSignal(i, sig)
		})...)
	}

	for j := 0; j < cfg.Slaves; j++ {
		m.Nets = append(m.Nets, wires(func(sig string) string {
			return interconnect.SlaveSignal(j, sig)
		})...)
	}

	for i := 0; i < cfg.Masters; i++ {
		m.Instances = append(m.Instances, agent(
			fmt.Sprintf("master %d", i), MasterModule, fmt.Sprintf("master%d", i), "m_",
			func(sig string) string { return interconnect.MasterSignal(i, sig) },
			nil,
		))
	}

	for j := 0; j < cfg.Slaves; j++ {
		m.Instances = append(m.Instances, agent(
			fmt.Sprintf("slave %d", j), SlaveModule, fmt.Sprintf("slave%d", j), "s_",
			func(sig string) string { return interconnect.SlaveSignal(j, sig) },
			hdl.Const{Width: 3, Base: hdl.Bin},
		))
	}

	m.Instances = append(m.Instances, fabric(cfg))

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", interconnect.ErrConfig, err)
	}

	log.WithFields(log.Fields{
		"module":    m.Name,
		"instances": len(m.Instances),
	}).Debug("wrapper assembled")

	return m, nil
}

func wires(name func(string) string) []hdl.Net {
	nets := make([]hdl.Net, 0, len(axi.Signals))

	for _, sig := range axi.Signals {
		nets = append(nets, hdl.Net{
			Name:  name(sig.Name),
			Kind:  hdl.Wire,
			Width: interconnect.SignalWidth(sig.Width),
		})
	}

	return nets
}

func clocking() []hdl.Binding {
	return []hdl.Binding{
		{Name: interconnect.Clock, Value: hdl.R(interconnect.Clock)},
		{Name: interconnect.Reset, Value: hdl.R(interconnect.Reset)},
	}
}

func busParams() []hdl.Binding {
	return []hdl.Binding{
		{Name: interconnect.AddrParam, Value: hdl.R(interconnect.AddrParam)},
		{Name: interconnect.DataParam, Value: hdl.R(interconnect.DataParam)},
	}
}

// agent instantiates a master or slave wrapper. Each address channel also
// carries a protection signal, tied to prot (nil leaves it open).
func agent(
	comment, module, name, prefix string,
	net func(string) string,
	prot hdl.Expr,
) hdl.Instance {
	ports := clocking()

	for _, sig := range axi.Signals {
		ports = append(ports, hdl.Binding{Name: prefix + sig.Name, Value: hdl.R(net(sig.Name))})

		if sig.IsAddress() {
			ports = append(ports, hdl.Binding{Name: prefix + sig.Name[:2] + "PROT", Value: prot})
		}
	}

	return hdl.Instance{
		Comment: comment,
		Module:  module,
		Name:    name,
		Params:  busParams(),
		Ports:   ports,
	}
}

func fabric(cfg interconnect.Config) hdl.Instance {
	params := busParams()
	for j := 0; j < cfg.Slaves; j++ {
		params = append(params,
			hdl.Binding{Name: interconnect.LowAddr(j), Value: hdl.R(interconnect.LowAddr(j))},
			hdl.Binding{Name: interconnect.HighAddr(j), Value: hdl.R(interconnect.HighAddr(j))},
		)
	}

	ports := clocking()
	for i := 0; i < cfg.Masters; i++ {
		for _, sig := range axi.Signals {
			name := interconnect.MasterSignal(i, sig.Name)
			ports = append(ports, hdl.Binding{Name: name, Value: hdl.R(name)})
		}
	}

	for j := 0; j < cfg.Slaves; j++ {
		for _, sig := range axi.Signals {
			name := interconnect.SlaveSignal(j, sig.Name)
			ports = append(ports, hdl.Binding{Name: name, Value: hdl.R(name)})
		}
	}

	return hdl.Instance{
		Comment: "interconnect",
		Module:  interconnect.ModuleName(cfg.Masters, cfg.Slaves),
		Name:    "interconnect",
		Params:  params,
		Ports:   ports,
	}
}
