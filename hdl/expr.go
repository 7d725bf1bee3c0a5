package hdl

// Expr is a combinational expression over ports, nets and parameters.
type Expr interface {
	isExpr()
}

// Base selects how a constant is written out.
type Base int

// Constant bases.
const (
	Dec Base = iota
	Hex
	Bin
)

// Ref names a port, net, parameter or state.
type Ref struct {
	Name string
}

// Const is a literal. Width 0 means unsized.
type Const struct {
	Width int
	Value uint64
	Base  Base
}

// Op is a unary or binary operator.
type Op int

// Operators.
const (
	OpAnd Op = iota
	OpOr
	OpEq
	OpNe
	OpGe
	OpLe
	OpSub
	OpAdd
	OpDiv
	OpNot
)

// Binary applies Op to L and R.
type Binary struct {
	Op Op
	L  Expr
	R  Expr
}

// Unary applies Op to X.
type Unary struct {
	Op Op
	X  Expr
}

// Ternary is Cond ? Then : Else.
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Arm is one branch of a Mux.
type Arm struct {
	Match uint64
	Value Expr
}

// Mux selects the arm whose Match equals Key, or Default when none does. A
// Mux is a single total expression, so one signal driven by a Mux has
// exactly one driver.
type Mux struct {
	Key     Expr
	Arms    []Arm
	Default Expr
}

func (Ref) isExpr()     {}
func (Const) isExpr()   {}
func (Binary) isExpr()  {}
func (Unary) isExpr()   {}
func (Ternary) isExpr() {}
func (Mux) isExpr()     {}

// R refers to a named object.
func R(name string) Ref {
	return Ref{Name: name}
}

// Bit returns a 1-bit constant.
func Bit(v bool) Const {
	if v {
		return Const{Width: 1, Value: 1, Base: Bin}
	}

	return Const{Width: 1, Value: 0, Base: Bin}
}

// Int returns an unsized decimal constant.
func Int(v uint64) Const {
	return Const{Value: v}
}

// HexConst returns a sized hexadecimal constant.
func HexConst(width int, v uint64) Const {
	return Const{Width: width, Value: v, Base: Hex}
}

// And joins the operands with logical and.
func And(first Expr, rest ...Expr) Expr {
	e := first
	for _, r := range rest {
		e = Binary{Op: OpAnd, L: e, R: r}
	}

	return e
}

// Or joins the operands with logical or.
func Or(first Expr, rest ...Expr) Expr {
	e := first
	for _, r := range rest {
		e = Binary{Op: OpOr, L: e, R: r}
	}

	return e
}

// Eq compares for equality.
func Eq(l, r Expr) Expr {
	return Binary{Op: OpEq, L: l, R: r}
}

// Ge compares l >= r.
func Ge(l, r Expr) Expr {
	return Binary{Op: OpGe, L: l, R: r}
}

// Le compares l <= r.
func Le(l, r Expr) Expr {
	return Binary{Op: OpLe, L: l, R: r}
}

// Sub subtracts r from l.
func Sub(l, r Expr) Expr {
	return Binary{Op: OpSub, L: l, R: r}
}

// Div divides l by r.
func Div(l, r Expr) Expr {
	return Binary{Op: OpDiv, L: l, R: r}
}

// Not is the logical negation.
func Not(x Expr) Expr {
	return Unary{Op: OpNot, X: x}
}

// Cond builds a ternary expression.
func Cond(c, t, e Expr) Expr {
	return Ternary{Cond: c, Then: t, Else: e}
}

// Walk calls fn for every sub-expression of e, e included, depth first.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}

	fn(e)

	switch x := e.(type) {
	case Binary:
		Walk(x.L, fn)
		Walk(x.R, fn)
	case Unary:
		Walk(x.X, fn)
	case Ternary:
		Walk(x.Cond, fn)
		Walk(x.Then, fn)
		Walk(x.Else, fn)
	case Mux:
		Walk(x.Key, fn)
		for _, a := range x.Arms {
			Walk(a.Value, fn)
		}
		Walk(x.Default, fn)
	}
}

// Refs returns the names referenced by e, in first-use order.
func Refs(e Expr) []string {
	seen := make(map[string]bool)
	names := []string{}

	Walk(e, func(x Expr) {
		if r, ok := x.(Ref); ok && !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	})

	return names
}
