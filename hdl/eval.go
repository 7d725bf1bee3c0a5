package hdl

import (
	"errors"
	"fmt"
)

// Errors reported by the Evaluator.
var (
	ErrCombLoop    = errors.New("combinational logic does not settle")
	ErrTooWide     = errors.New("signal is wider than 64 bits")
	ErrUnsupported = errors.New("module cannot be evaluated")
	ErrNotInput    = errors.New("signal is not an input port")
)

// Evaluator interprets a Module one clock cycle at a time. Signals are at
// most 64 bits wide.
type Evaluator struct {
	module *Module
	values map[string]uint64
	widths map[string]int
	inputs map[string]bool
	combs  []Block
	seqs   []Block
	passes int
}

// NewEvaluator prepares m for evaluation. Parameters take their declared
// values unless overridden.
func NewEvaluator(m *Module, overrides map[string]uint64) (*Evaluator, error) {
	if len(m.Instances) > 0 {
		return nil, fmt.Errorf("%w: %s instantiates sub-modules", ErrUnsupported, m.Name)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{
		module: m,
		values: make(map[string]uint64),
		widths: make(map[string]int),
		inputs: make(map[string]bool),
	}

	for _, p := range m.AllParams() {
		v, found := overrides[p.Name]
		if !found {
			v = p.Value.Value
		}

		e.values[p.Name] = v
	}

	for _, p := range m.Locals {
		e.values[p.Name] = p.Value.Value
	}

	if err := e.declareSignals(); err != nil {
		return nil, err
	}

	drivers := len(m.AllAssigns())
	for _, b := range m.Blocks {
		if b.Kind == Comb {
			e.combs = append(e.combs, b)
		} else {
			e.seqs = append(e.seqs, b)
		}
	}
	if m.FSM != nil {
		e.combs = append(e.combs, m.FSM.Logic())
	}

	e.passes = drivers + len(e.combs) + 2

	if err := e.Settle(); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Evaluator) declareSignals() error {
	m := e.module

	declare := func(name string, width Expr) error {
		w := 1
		if width != nil {
			w = int(e.Eval(width))
		}

		if w < 1 || w > 64 {
			return fmt.Errorf("%w: %s is %d bits", ErrTooWide, name, w)
		}

		e.widths[name] = w
		e.values[name] = 0

		return nil
	}

	for _, name := range []string{m.Clock, m.Reset} {
		if name != "" {
			e.widths[name] = 1
			e.inputs[name] = true
		}
	}

	for _, p := range m.AllPorts() {
		if err := declare(p.Name, p.Width); err != nil {
			return err
		}

		if p.Dir == Input {
			e.inputs[p.Name] = true
		}
	}

	for _, n := range m.Nets {
		if err := declare(n.Name, n.Width); err != nil {
			return err
		}
	}

	if m.FSM != nil {
		for _, s := range m.FSM.States {
			e.values[s.Name] = s.Code
		}

		width := Int(uint64(m.FSM.Width))
		if err := declare(m.FSM.Current, width); err != nil {
			return err
		}

		if err := declare(m.FSM.Next, width); err != nil {
			return err
		}
	}

	return nil
}

// Set drives an input port. The new value is visible after the next Settle
// or Clock.
func (e *Evaluator) Set(name string, v uint64) error {
	if !e.inputs[name] {
		return fmt.Errorf("%w: %s", ErrNotInput, name)
	}

	e.write(name, v)

	return nil
}

// SetBool drives a single-bit input port.
func (e *Evaluator) SetBool(name string, v bool) error {
	if v {
		return e.Set(name, 1)
	}

	return e.Set(name, 0)
}

// Get returns the current value of any declared name.
func (e *Evaluator) Get(name string) uint64 {
	return e.values[name]
}

// GetBool reports whether name is non-zero.
func (e *Evaluator) GetBool(name string) bool {
	return e.values[name] != 0
}

// Settle propagates the inputs and registers through the combinational
// logic until nothing changes.
func (e *Evaluator) Settle() error {
	for pass := 0; pass < e.passes; pass++ {
		changed := false

		for _, a := range e.module.AllAssigns() {
			changed = e.write(a.Target, e.Eval(a.Value)) || changed
		}

		for _, b := range e.combs {
			changed = e.runComb(b) || changed
		}

		if !changed {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrCombLoop, e.module.Name)
}

// Clock applies one rising clock edge. Every sequential block samples the
// settled values; the updates land together afterwards.
func (e *Evaluator) Clock() error {
	if err := e.Settle(); err != nil {
		return err
	}

	pending := make(map[string]uint64)

	for _, b := range e.seqs {
		e.exec(b.Body, func(name string, v uint64) bool {
			pending[name] = v
			return true
		})
	}

	for name, v := range pending {
		e.write(name, v)
	}

	return e.Settle()
}

// runComb executes a combinational block with blocking assignments and
// reports whether any target ends up with a new value.
func (e *Evaluator) runComb(b Block) bool {
	before := make(map[string]uint64)
	for target := range stmtTargets(b.Body) {
		before[target] = e.values[target]
	}

	e.exec(b.Body, e.write)

	for target, old := range before {
		if e.values[target] != old {
			return true
		}
	}

	return false
}

func (e *Evaluator) write(name string, v uint64) bool {
	v &= mask(e.widths[name])
	if old, found := e.values[name]; found && old == v {
		return false
	}

	e.values[name] = v

	return true
}

func (e *Evaluator) exec(stmts []Stmt, set func(string, uint64) bool) bool {
	changed := false

	for _, s := range stmts {
		switch x := s.(type) {
		case Set:
			changed = set(x.Target, e.Eval(x.Value)) || changed
		case If:
			if e.Eval(x.Cond) != 0 {
				changed = e.exec(x.Then, set) || changed
			} else {
				changed = e.exec(x.Else, set) || changed
			}
		case Case:
			changed = e.execCase(x, set) || changed
		}
	}

	return changed
}

func (e *Evaluator) execCase(c Case, set func(string, uint64) bool) bool {
	subject := e.Eval(c.Subject)

	for _, item := range c.Items {
		if e.Eval(item.Match) == subject {
			return e.exec(item.Body, set)
		}
	}

	return e.exec(c.Default, set)
}

// Eval computes the value of x against the current signal values.
func (e *Evaluator) Eval(x Expr) uint64 {
	switch v := x.(type) {
	case Ref:
		return e.values[v.Name]
	case Const:
		if v.Width > 0 {
			return v.Value & mask(v.Width)
		}

		return v.Value
	case Unary:
		return boolValue(e.Eval(v.X) == 0)
	case Binary:
		return e.binary(v)
	case Ternary:
		if e.Eval(v.Cond) != 0 {
			return e.Eval(v.Then)
		}

		return e.Eval(v.Else)
	case Mux:
		key := e.Eval(v.Key)
		for _, a := range v.Arms {
			if a.Match == key {
				return e.Eval(a.Value)
			}
		}

		return e.Eval(v.Default)
	}

	return 0
}

func (e *Evaluator) binary(b Binary) uint64 {
	l, r := e.Eval(b.L), e.Eval(b.R)

	switch b.Op {
	case OpAnd:
		return boolValue(l != 0 && r != 0)
	case OpOr:
		return boolValue(l != 0 || r != 0)
	case OpEq:
		return boolValue(l == r)
	case OpNe:
		return boolValue(l != r)
	case OpGe:
		return boolValue(l >= r)
	case OpLe:
		return boolValue(l <= r)
	case OpSub:
		return l - r
	case OpAdd:
		return l + r
	case OpDiv:
		if r == 0 {
			return 0
		}

		return l / r
	}

	return 0
}

func boolValue(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}

func mask(width int) uint64 {
	if width <= 0 || width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(width)) - 1
}
