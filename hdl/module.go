// Package hdl is a syntax-independent description of a synchronous hardware
// module: parameters, ports, nets, a state table, continuous multiplexer
// assignments, procedural blocks and sub-module instances.
//
// Generators build a Module; renderers such as package verilog turn it into
// text; the Evaluator interprets it cycle by cycle.
package hdl

// Dir is the direction of a port.
type Dir int

// Port directions.
const (
	Input Dir = iota
	Output
)

func (d Dir) String() string {
	if d == Output {
		return "output"
	}

	return "input"
}

// Param is a module parameter or a local parameter.
type Param struct {
	Name  string
	Value Const
}

// ParamGroup is a commented run of parameters.
type ParamGroup struct {
	Comment string
	Params  []Param
}

// Port is a module port. A nil Width is a single bit; otherwise the port is
// Width bits wide.
type Port struct {
	Name  string
	Dir   Dir
	Width Expr
}

// PortGroup is a commented run of ports, such as one channel of one master.
type PortGroup struct {
	Comment string
	Ports   []Port
}

// PortBundle is a commented run of port groups, such as one master.
type PortBundle struct {
	Comment string
	Groups  []PortGroup
}

// NetKind distinguishes procedurally assigned nets from continuously assigned
// ones.
type NetKind int

// Net kinds.
const (
	Wire NetKind = iota
	Reg
)

// Net is an internal signal.
type Net struct {
	Name  string
	Kind  NetKind
	Width Expr
}

// Assign drives Target continuously with Value.
type Assign struct {
	Target string
	Value  Expr
}

// AssignGroup is a commented run of continuous assignments.
type AssignGroup struct {
	Comment string
	Assigns []Assign
}

// Stmt is a procedural statement.
type Stmt interface {
	isStmt()
}

// Set assigns Value to Target. Inside a combinational block it is a blocking
// assignment; inside a sequential block it is a non-blocking one.
type Set struct {
	Target string
	Value  Expr
}

// If executes Then when Cond is non-zero and Else otherwise.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// CaseItem is one labelled branch of a Case.
type CaseItem struct {
	Match Expr
	Body  []Stmt
}

// Case executes the first item whose Match equals Subject, or Default.
type Case struct {
	Subject Expr
	Items   []CaseItem
	Default []Stmt
}

func (Set) isStmt()  {}
func (If) isStmt()   {}
func (Case) isStmt() {}

// BlockKind tells when a procedural block runs.
type BlockKind int

// Block kinds.
const (
	// Comb blocks run whenever one of their inputs changes.
	Comb BlockKind = iota
	// Seq blocks run on the rising edge of the module clock.
	Seq
)

// Block is a procedural block.
type Block struct {
	Comment string
	Kind    BlockKind
	Body    []Stmt
}

// State is one state of an FSM together with its encoding.
type State struct {
	Name string
	Code uint64
}

// Transition moves the FSM from From to To when When holds. Transitions out
// of one state are tried in order; if none fires the FSM stays.
type Transition struct {
	From string
	To   string
	When Expr
}

// FSM is a state table. Current and Next name the state register and the
// combinational next-state net.
type FSM struct {
	Current     string
	Next        string
	Width       int
	States      []State
	Transitions []Transition
}

// Binding connects a parameter or a port of an instance. A nil Value leaves
// a port unconnected.
type Binding struct {
	Name  string
	Value Expr
}

// Instance is a sub-module instantiation.
type Instance struct {
	Comment string
	Module  string
	Name    string
	Params  []Binding
	Ports   []Binding
}

// Module is a complete module description.
type Module struct {
	Name    string
	Comment string

	Params []ParamGroup

	// Clock and Reset name the clock and the active-low synchronous reset
	// input. Either may be empty for modules without one.
	Clock string
	Reset string

	Ports  []PortBundle
	Locals []Param
	Nets   []Net

	FSM       *FSM
	Blocks    []Block
	Assigns   []AssignGroup
	Instances []Instance
}

// AllParams returns the module parameters in declaration order.
func (m *Module) AllParams() []Param {
	params := []Param{}
	for _, g := range m.Params {
		params = append(params, g.Params...)
	}

	return params
}

// AllPorts returns the ports in declaration order, excluding clock and reset.
func (m *Module) AllPorts() []Port {
	ports := []Port{}
	for _, b := range m.Ports {
		for _, g := range b.Groups {
			ports = append(ports, g.Ports...)
		}
	}

	return ports
}

// Port looks a port up by name.
func (m *Module) Port(name string) (Port, bool) {
	for _, p := range m.AllPorts() {
		if p.Name == name {
			return p, true
		}
	}

	return Port{}, false
}

// AllAssigns returns the continuous assignments in declaration order.
func (m *Module) AllAssigns() []Assign {
	assigns := []Assign{}
	for _, g := range m.Assigns {
		assigns = append(assigns, g.Assigns...)
	}

	return assigns
}

// Driver returns the expression continuously driving name.
func (m *Module) Driver(name string) (Expr, bool) {
	for _, a := range m.AllAssigns() {
		if a.Target == name {
			return a.Value, true
		}
	}

	return nil, false
}

// Logic expresses the next-state function as a combinational block: the
// state holds unless the first matching transition out of it fires.
func (f *FSM) Logic() Block {
	items := []CaseItem{}

	for _, s := range f.States {
		var chain []Stmt

		transitions := f.from(s.Name)
		for i := len(transitions) - 1; i >= 0; i-- {
			t := transitions[i]
			set := []Stmt{Set{Target: f.Next, Value: R(t.To)}}

			if t.When == nil {
				chain = set
				continue
			}

			chain = []Stmt{If{Cond: t.When, Then: set, Else: chain}}
		}

		if len(chain) > 0 {
			items = append(items, CaseItem{Match: R(s.Name), Body: chain})
		}
	}

	return Block{
		Comment: "next state",
		Kind:    Comb,
		Body: []Stmt{
			Set{Target: f.Next, Value: R(f.Current)},
			Case{Subject: R(f.Current), Items: items},
		},
	}
}

func (f *FSM) from(state string) []Transition {
	out := []Transition{}

	for _, t := range f.Transitions {
		if t.From == state {
			out = append(out, t)
		}
	}

	return out
}
