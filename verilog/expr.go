package verilog

import (
	"fmt"
	"strings"

	"github.com/sarchlab/axilite/hdl"
)

var opTokens = map[hdl.Op]string{
	hdl.OpAnd: "&&",
	hdl.OpOr:  "||",
	hdl.OpEq:  "==",
	hdl.OpNe:  "!=",
	hdl.OpGe:  ">=",
	hdl.OpLe:  "<=",
	hdl.OpSub: "-",
	hdl.OpAdd: "+",
	hdl.OpDiv: "/",
	hdl.OpNot: "!",
}

// Expr writes e as a Verilog expression.
func Expr(e hdl.Expr) string {
	switch x := e.(type) {
	case nil:
		return ""
	case hdl.Ref:
		return x.Name
	case hdl.Const:
		return Const(x)
	case hdl.Unary:
		return opTokens[x.Op] + operand(x.X)
	case hdl.Binary:
		return operand(x.L) + " " + opTokens[x.Op] + " " + operand(x.R)
	case hdl.Ternary:
		return ternary(x.Cond, x.Then, x.Else)
	case hdl.Mux:
		return mux(x)
	}

	panic(fmt.Sprintf("cannot render expression %T", e))
}

// Const writes a literal. Sized hexadecimal literals wider than 16 bits are
// grouped by four digits.
func Const(c hdl.Const) string {
	if c.Width == 0 {
		return fmt.Sprintf("%d", c.Value)
	}

	switch c.Base {
	case hdl.Bin:
		return fmt.Sprintf("%d'b%0*b", c.Width, c.Width, c.Value)
	case hdl.Hex:
		digits := (c.Width + 3) / 4
		return fmt.Sprintf("%d'h%s", c.Width, group(fmt.Sprintf("%0*X", digits, c.Value)))
	}

	return fmt.Sprintf("%d'd%d", c.Width, c.Value)
}

func group(digits string) string {
	if len(digits) <= 4 {
		return digits
	}

	parts := []string{}
	head := len(digits) % 4
	if head > 0 {
		parts = append(parts, digits[:head])
	}

	for i := head; i < len(digits); i += 4 {
		parts = append(parts, digits[i:i+4])
	}

	return strings.Join(parts, "_")
}

// Range writes the packed range of a width expression, such as
// [ADDR_WIDTH-1:0]. A nil width is a single bit and has no range.
func Range(width hdl.Expr) string {
	switch w := width.(type) {
	case nil:
		return ""
	case hdl.Const:
		if w.Value <= 1 {
			return ""
		}

		return fmt.Sprintf("[%d:0]", w.Value-1)
	}

	return "[" + operand(width) + "-1:0]"
}

func operand(e hdl.Expr) string {
	switch e.(type) {
	case hdl.Binary, hdl.Ternary, hdl.Mux:
		return "(" + Expr(e) + ")"
	}

	return Expr(e)
}

func ternary(c, t, e hdl.Expr) string {
	then := Expr(t)
	switch t.(type) {
	case hdl.Ternary, hdl.Mux:
		then = "(" + then + ")"
	}

	return operand(c) + " ? " + then + " : " + Expr(e)
}

func mux(m hdl.Mux) string {
	if len(m.Arms) == 0 {
		return Expr(m.Default)
	}

	var e hdl.Expr = m.Default
	for i := len(m.Arms) - 1; i >= 0; i-- {
		a := m.Arms[i]
		e = hdl.Ternary{
			Cond: hdl.Eq(m.Key, hdl.Int(a.Match)),
			Then: a.Value,
			Else: e,
		}
	}

	return Expr(e)
}
