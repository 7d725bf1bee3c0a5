package sim

import (
	"fmt"
	"strings"

	"github.com/sarchlab/axilite/addrmap"
	"github.com/sarchlab/axilite/arbitration"
	"github.com/sarchlab/axilite/axi"
	"github.com/sarchlab/axilite/interconnect"
	"github.com/sarchlab/axilite/routing"
)

// A Fabric is a cycle-accurate interconnect. Route is called once per
// cycle with the signals driven by the masters and the slaves; Clock then
// applies the rising edge.
type Fabric interface {
	Route(reset bool, masters []axi.Request, slaves []axi.Response) (
		toMasters []axi.Response, toSlaves []axi.Request, err error)
	Clock() error
	State() arbitration.State
}

// Backend selects the Fabric implementation.
type Backend int

// Backends.
const (
	// BackendModel runs the arbiter and the router directly.
	BackendModel Backend = iota
	// BackendNetlist evaluates the generated hardware description.
	BackendNetlist
)

func (b Backend) String() string {
	if b == BackendNetlist {
		return "netlist"
	}

	return "model"
}

// ParseBackend parses "model" or "netlist".
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "model", "":
		return BackendModel, nil
	case "netlist":
		return BackendNetlist, nil
	}

	return BackendModel, fmt.Errorf("unknown backend %q, want model or netlist", s)
}

// ModelFabric implements Fabric with the arbitration and routing packages.
type ModelFabric struct {
	amap  *addrmap.Map
	state arbitration.State

	reset   bool
	masters []axi.Request
	routed  routing.Result
}

// NewModelFabric creates a fabric in its reset state.
func NewModelFabric(masters int, amap *addrmap.Map) *ModelFabric {
	return &ModelFabric{
		amap:  amap,
		state: arbitration.Reset(masters, amap.Len()),
	}
}

// Route computes what every master and slave observes this cycle.
func (f *ModelFabric) Route(
	reset bool,
	masters []axi.Request,
	slaves []axi.Response,
) ([]axi.Response, []axi.Request, error) {
	f.reset = reset
	f.masters = masters
	f.routed = routing.Route(f.state, masters, slaves, f.amap)

	return f.routed.Masters, f.routed.Slaves, nil
}

// Clock moves the arbiter to its next state.
func (f *ModelFabric) Clock() error {
	if f.masters == nil {
		panic("fabric clocked before being routed")
	}

	writeDone, readDone := f.routed.Handshakes(f.state, f.masters)

	f.state = arbitration.Next(f.state, arbitration.Inputs{
		Reset:         f.reset,
		Requests:      f.masters,
		Map:           f.amap,
		WriteRespDone: writeDone,
		ReadDataDone:  readDone,
	})

	return nil
}

// State returns the registered arbiter state.
func (f *ModelFabric) State() arbitration.State {
	return f.state
}

// NetlistFabric implements Fabric by evaluating the generated module.
type NetlistFabric struct {
	netlist *interconnect.Netlist
}

// NewNetlistFabric generates and loads the interconnect for cfg.
func NewNetlistFabric(cfg interconnect.Config) (*NetlistFabric, error) {
	n, err := interconnect.NewNetlist(cfg)
	if err != nil {
		return nil, err
	}

	return &NetlistFabric{netlist: n}, nil
}

// Route drives the module inputs and reads its outputs.
func (f *NetlistFabric) Route(
	reset bool,
	masters []axi.Request,
	slaves []axi.Response,
) ([]axi.Response, []axi.Request, error) {
	if err := f.netlist.Drive(reset, masters, slaves); err != nil {
		return nil, nil, err
	}

	return f.netlist.Masters(), f.netlist.Slaves(), nil
}

// Clock applies a rising edge to the module.
func (f *NetlistFabric) Clock() error {
	return f.netlist.Clock()
}

// State reads the arbiter registers of the module.
func (f *NetlistFabric) State() arbitration.State {
	return f.netlist.State()
}
