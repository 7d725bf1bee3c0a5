package hdl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Structural errors reported by Validate.
var (
	ErrMultipleDrivers = errors.New("signal has more than one driver")
	ErrUndeclared      = errors.New("reference to an undeclared name")
	ErrDuplicate       = errors.New("name declared more than once")
	ErrDrivesInput     = errors.New("input port is driven inside the module")
)

type declKind int

const (
	declParam declKind = iota
	declInput
	declOutput
	declNet
	declState
)

// Validate checks that every referenced name is declared exactly once and
// that every signal has at most one driver. A driver is one continuous
// assignment, one procedural block or the FSM next-state logic.
func (m *Module) Validate() error {
	decls, err := m.declarations()
	if err != nil {
		return err
	}

	if err := m.checkRefs(decls); err != nil {
		return err
	}

	return m.checkDrivers(decls)
}

func (m *Module) declarations() (map[string]declKind, error) {
	decls := make(map[string]declKind)
	var dups []string

	declare := func(name string, k declKind) {
		if name == "" {
			return
		}

		if _, found := decls[name]; found {
			dups = append(dups, name)
		}

		decls[name] = k
	}

	for _, p := range m.AllParams() {
		declare(p.Name, declParam)
	}

	for _, p := range m.Locals {
		declare(p.Name, declParam)
	}

	declare(m.Clock, declInput)
	declare(m.Reset, declInput)

	for _, p := range m.AllPorts() {
		if p.Dir == Output {
			declare(p.Name, declOutput)
		} else {
			declare(p.Name, declInput)
		}
	}

	for _, n := range m.Nets {
		declare(n.Name, declNet)
	}

	if m.FSM != nil {
		declare(m.FSM.Current, declNet)
		declare(m.FSM.Next, declNet)

		for _, s := range m.FSM.States {
			declare(s.Name, declState)
		}
	}

	if len(dups) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, strings.Join(dups, ", "))
	}

	return decls, nil
}

func (m *Module) checkRefs(decls map[string]declKind) error {
	var missing []string

	check := func(e Expr) {
		for _, name := range Refs(e) {
			if _, found := decls[name]; !found {
				missing = append(missing, name)
			}
		}
	}

	for _, p := range m.AllPorts() {
		check(p.Width)
	}

	for _, n := range m.Nets {
		check(n.Width)
	}

	for _, a := range m.AllAssigns() {
		check(a.Value)
	}

	for _, b := range m.Blocks {
		forEachExpr(b.Body, check)
	}

	if m.FSM != nil {
		for _, t := range m.FSM.Transitions {
			check(t.When)
			check(R(t.From))
			check(R(t.To))
		}
	}

	for _, inst := range m.Instances {
		for _, b := range inst.Params {
			check(b.Value)
		}

		for _, b := range inst.Ports {
			check(b.Value)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUndeclared, strings.Join(unique(missing), ", "))
	}

	return nil
}

func (m *Module) checkDrivers(decls map[string]declKind) error {
	drivers := make(map[string]int)

	for _, a := range m.AllAssigns() {
		drivers[a.Target]++
	}

	for _, b := range m.Blocks {
		for target := range stmtTargets(b.Body) {
			drivers[target]++
		}
	}

	if m.FSM != nil {
		drivers[m.FSM.Next]++
	}

	var multi, undeclared, inputs []string
	for target, n := range drivers {
		kind, found := decls[target]

		switch {
		case !found:
			undeclared = append(undeclared, target)
		case kind == declInput:
			inputs = append(inputs, target)
		case kind == declParam || kind == declState:
			undeclared = append(undeclared, target)
		case n > 1:
			multi = append(multi, target)
		}
	}

	if len(undeclared) > 0 {
		return fmt.Errorf("%w: %s", ErrUndeclared, strings.Join(unique(undeclared), ", "))
	}

	if len(inputs) > 0 {
		return fmt.Errorf("%w: %s", ErrDrivesInput, strings.Join(unique(inputs), ", "))
	}

	if len(multi) > 0 {
		return fmt.Errorf("%w: %s", ErrMultipleDrivers, strings.Join(unique(multi), ", "))
	}

	return nil
}

func stmtTargets(stmts []Stmt) map[string]bool {
	targets := make(map[string]bool)

	var visit func([]Stmt)
	visit = func(stmts []Stmt) {
		for _, s := range stmts {
			switch x := s.(type) {
			case Set:
				targets[x.Target] = true
			case If:
				visit(x.Then)
				visit(x.Else)
			case Case:
				for _, item := range x.Items {
					visit(item.Body)
				}
				visit(x.Default)
			}
		}
	}
	visit(stmts)

	return targets
}

func forEachExpr(stmts []Stmt, fn func(Expr)) {
	for _, s := range stmts {
		switch x := s.(type) {
		case Set:
			fn(x.Value)
		case If:
			fn(x.Cond)
			forEachExpr(x.Then, fn)
			forEachExpr(x.Else, fn)
		case Case:
			fn(x.Subject)
			for _, item := range x.Items {
				fn(item.Match)
				forEachExpr(item.Body, fn)
			}
			forEachExpr(x.Default, fn)
		}
	}
}

func unique(names []string) []string {
	seen := make(map[string]bool)
	out := []string{}

	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	sort.Strings(out)

	return out
}
