// Package verilog renders hdl modules as Verilog-2001 source.
package verilog

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/sarchlab/axilite/hdl"
)

//go:embed module.tmpl
var moduleTemplate string

var tmpl = template.Must(template.New("module").Parse(moduleTemplate))

const indent = "    "

type moduleView struct {
	Header   []string
	Name     string
	Params   []string
	Ports    []string
	Sections [][]string
}

// FileName returns the file a module is written to.
func FileName(m *hdl.Module) string {
	return m.Name + ".v"
}

// Render writes m as Verilog. The module is validated first; nothing is
// written when it is malformed.
func Render(w io.Writer, m *hdl.Module) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("cannot render %s: %w", m.Name, err)
	}

	view := moduleView{
		Name:   m.Name,
		Params: params(m),
		Ports:  ports(m),
	}

	if m.Comment != "" {
		view.Header = strings.Split(m.Comment, "\n")
	}

	for _, section := range [][]string{
		declarations(m),
		fsmLogic(m),
		blocks(m),
		assigns(m),
		instances(m),
	} {
		if len(section) > 0 {
			view.Sections = append(view.Sections, section)
		}
	}

	return tmpl.Execute(w, view)
}

// String renders m into a string.
func String(m *hdl.Module) (string, error) {
	var sb strings.Builder

	if err := Render(&sb, m); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// listItem is either a comment line or a list element that takes a comma
// unless it is the last element.
type listItem struct {
	text    string
	comment bool
}

func commaSeparated(items []listItem) []string {
	last := -1
	for i, it := range items {
		if !it.comment {
			last = i
		}
	}

	lines := make([]string, 0, len(items))
	for i, it := range items {
		switch {
		case it.comment:
			lines = append(lines, it.text)
		case i == last:
			lines = append(lines, it.text)
		default:
			lines = append(lines, it.text+",")
		}
	}

	return lines
}

func comment(depth int, text string) listItem {
	return listItem{text: strings.Repeat(indent, depth) + "/* " + text + " */", comment: true}
}

func blank() listItem {
	return listItem{comment: true}
}

func params(m *hdl.Module) []string {
	items := []listItem{}

	for i, g := range m.Params {
		if i > 0 {
			items = append(items, blank())
		}

		if g.Comment != "" {
			items = append(items, comment(1, g.Comment))
		}

		for _, p := range g.Params {
			items = append(items, listItem{
				text: fmt.Sprintf("%sparameter %-13s = %s", indent, p.Name, Const(p.Value)),
			})
		}
	}

	return commaSeparated(items)
}

func portLine(depth int, dir, rng, name string) string {
	return fmt.Sprintf("%s%-8s%-24s%s", strings.Repeat(indent, depth), dir, rng, name)
}

func ports(m *hdl.Module) []string {
	items := []listItem{}

	clocks := []string{}
	for _, name := range []string{m.Clock, m.Reset} {
		if name != "" {
			clocks = append(clocks, name)
		}
	}

	if len(clocks) > 0 {
		items = append(items, listItem{
			text: portLine(1, "input", "", strings.Join(clocks, ", ")),
		})
	}

	for _, b := range m.Ports {
		if len(items) > 0 {
			items = append(items, blank())
		}

		if b.Comment != "" {
			items = append(items, comment(1, b.Comment))
		}

		for gi, g := range b.Groups {
			if gi > 0 {
				items = append(items, blank())
			}

			depth := 1
			if b.Comment != "" {
				depth = 2
			}

			if g.Comment != "" {
				items = append(items, comment(depth, g.Comment))
			}

			for _, p := range g.Ports {
				items = append(items, listItem{
					text: portLine(depth, p.Dir.String(), Range(p.Width), p.Name),
				})
			}
		}
	}

	return commaSeparated(items)
}

func declarations(m *hdl.Module) []string {
	lines := []string{}

	if m.FSM != nil {
		lines = append(lines, indent+"/* finite state machine */")
		width := hdl.Int(uint64(m.FSM.Width))

		for _, s := range m.FSM.States {
			code := hdl.Const{Width: m.FSM.Width, Value: s.Code, Base: hdl.Bin}
			lines = append(lines, fmt.Sprintf("%slocalparam %-8s = %s;", indent, s.Name, Const(code)))
		}

		lines = append(lines, fmt.Sprintf("%s%-4s%-12s%s, %s;",
			indent, "reg", Range(width), m.FSM.Current, m.FSM.Next))
	}

	for _, p := range m.Locals {
		lines = append(lines, fmt.Sprintf("%slocalparam %-8s = %s;", indent, p.Name, Const(p.Value)))
	}

	for _, n := range m.Nets {
		kind := "wire"
		if n.Kind == hdl.Reg {
			kind = "reg"
		}

		lines = append(lines, fmt.Sprintf("%s%-8s%-24s%s;", indent, kind, Range(n.Width), n.Name))
	}

	return lines
}

func fsmLogic(m *hdl.Module) []string {
	if m.FSM == nil {
		return nil
	}

	return block(m, m.FSM.Logic())
}

func blocks(m *hdl.Module) []string {
	lines := []string{}

	for i, b := range m.Blocks {
		if i > 0 {
			lines = append(lines, "")
		}

		lines = append(lines, block(m, b)...)
	}

	return lines
}

func block(m *hdl.Module, b hdl.Block) []string {
	lines := []string{}

	if b.Comment != "" {
		lines = append(lines, indent+"/* "+b.Comment+" */")
	}

	assign := "="
	if b.Kind == hdl.Seq {
		lines = append(lines, fmt.Sprintf("%salways @(posedge %s) begin", indent, m.Clock))
		assign = "<="
	} else {
		lines = append(lines, indent+"always @(*) begin")
	}

	lines = append(lines, stmts(b.Body, 2, assign)...)
	lines = append(lines, indent+"end")

	return lines
}

func stmts(body []hdl.Stmt, depth int, assign string) []string {
	lines := []string{}
	pad := strings.Repeat(indent, depth)

	for _, s := range body {
		switch x := s.(type) {
		case hdl.Set:
			lines = append(lines, fmt.Sprintf("%s%s %s %s;", pad, x.Target, assign, Expr(x.Value)))
		case hdl.If:
			lines = append(lines, ifChain(x, depth, assign)...)
		case hdl.Case:
			lines = append(lines, caseStmt(x, depth, assign)...)
		}
	}

	return lines
}

func ifChain(x hdl.If, depth int, assign string) []string {
	pad := strings.Repeat(indent, depth)
	lines := []string{fmt.Sprintf("%sif (%s) begin", pad, Expr(x.Cond))}

	for {
		lines = append(lines, stmts(x.Then, depth+1, assign)...)

		if len(x.Else) == 0 {
			return append(lines, pad+"end")
		}

		next, ok := x.Else[0].(hdl.If)
		if len(x.Else) != 1 || !ok {
			lines = append(lines, pad+"end else begin")
			lines = append(lines, stmts(x.Else, depth+1, assign)...)

			return append(lines, pad+"end")
		}

		lines = append(lines, fmt.Sprintf("%send else if (%s) begin", pad, Expr(next.Cond)))
		x = next
	}
}

func caseStmt(x hdl.Case, depth int, assign string) []string {
	pad := strings.Repeat(indent, depth)
	lines := []string{fmt.Sprintf("%scase (%s)", pad, Expr(x.Subject))}

	item := func(label string, body []hdl.Stmt) {
		inner := strings.Repeat(indent, depth+1)
		lines = append(lines, fmt.Sprintf("%s%s: begin", inner, label))
		lines = append(lines, stmts(body, depth+2, assign)...)
		lines = append(lines, inner+"end")
	}

	for _, it := range x.Items {
		item(Expr(it.Match), it.Body)
	}

	if len(x.Default) > 0 {
		item("default", x.Default)
	}

	return append(lines, pad+"endcase")
}

func assigns(m *hdl.Module) []string {
	lines := []string{}

	for i, g := range m.Assigns {
		if i > 0 {
			lines = append(lines, "")
		}

		if g.Comment != "" {
			lines = append(lines, indent+"/* "+g.Comment+" */")
		}

		for _, a := range g.Assigns {
			lines = append(lines, fmt.Sprintf("%sassign %-12s = %s;", indent, a.Target, Expr(a.Value)))
		}
	}

	return lines
}

func bindings(bs []hdl.Binding) []listItem {
	items := make([]listItem, 0, len(bs))

	for _, b := range bs {
		items = append(items, listItem{
			text: fmt.Sprintf("%s.%s(%s)", indent+indent, b.Name, Expr(b.Value)),
		})
	}

	return items
}

func instances(m *hdl.Module) []string {
	lines := []string{}

	for i, inst := range m.Instances {
		if i > 0 {
			lines = append(lines, "")
		}

		if inst.Comment != "" {
			lines = append(lines, indent+"/* "+inst.Comment+" */")
		}

		if len(inst.Params) > 0 {
			lines = append(lines, fmt.Sprintf("%s%s #(", indent, inst.Module))
			lines = append(lines, commaSeparated(bindings(inst.Params))...)
			lines = append(lines, fmt.Sprintf("%s) %s (", indent, inst.Name))
		} else {
			lines = append(lines, fmt.Sprintf("%s%s %s (", indent, inst.Module, inst.Name))
		}

		lines = append(lines, commaSeparated(bindings(inst.Ports))...)
		lines = append(lines, indent+");")
	}

	return lines
}
