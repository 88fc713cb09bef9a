package genf

import (
	"fmt"
	"math/big"
	"strings"
)

// Expr is a node of a generating-function expression in the variable x.
// Implementations: X, Const, Symbol, Base, Add, Mul, Neg, Div, Pow, Series.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// X is the size variable.
type X struct{}

// Const is a rational constant.
type Const struct{ Value *big.Rat }

// Symbol is the unknown F_i(x) of one class.
type Symbol struct {
	Index int
	Class string
}

// Base is the series B_i(x) of a verified class without a closed form.
type Base struct {
	Index int
	Class string
}

// Add is the sum of Terms.
type Add struct{ Terms []Expr }

// Mul is the product of Factors.
type Mul struct{ Factors []Expr }

// Neg is -Arg.
type Neg struct{ Arg Expr }

// Div is Num / Den.
type Div struct{ Num, Den Expr }

// Pow is Arg raised to a non-negative integer power.
type Pow struct {
	Arg Expr
	Exp int
}

// Series is a truncated power series literal; Coeffs[n] multiplies x^n.
type Series struct{ Coeffs []*big.Rat }

func (X) isExpr()      {}
func (Const) isExpr()  {}
func (Symbol) isExpr() {}
func (Base) isExpr()   {}
func (Add) isExpr()    {}
func (Mul) isExpr()    {}
func (Neg) isExpr()    {}
func (Div) isExpr()    {}
func (Pow) isExpr()    {}
func (Series) isExpr() {}

// Int returns the constant n.
func Int(n int64) Const { return Const{Value: new(big.Rat).SetInt64(n)} }

func (X) String() string { return "x" }

func (c Const) String() string {
	if c.Value == nil {
		return "0"
	}
	if c.Value.IsInt() {
		return c.Value.Num().String()
	}

	return c.Value.RatString()
}

func (s Symbol) String() string { return fmt.Sprintf("F_%d(x)", s.Index) }

func (b Base) String() string { return fmt.Sprintf("B_%d(x)", b.Index) }

func (a Add) String() string {
	if len(a.Terms) == 0 {
		return "0"
	}
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}

	return strings.Join(parts, " + ")
}

func (m Mul) String() string {
	if len(m.Factors) == 0 {
		return "1"
	}
	parts := make([]string, len(m.Factors))
	for i, f := range m.Factors {
		parts[i] = wrap(f)
	}

	return strings.Join(parts, "*")
}

func (n Neg) String() string { return "-" + wrap(n.Arg) }

func (d Div) String() string { return wrap(d.Num) + "/" + wrap(d.Den) }

func (p Pow) String() string { return fmt.Sprintf("%s^%d", wrap(p.Arg), p.Exp) }

func (s Series) String() string {
	var b strings.Builder
	for n, c := range s.Coeffs {
		if c == nil || c.Sign() == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" + ")
		}
		switch n {
		case 0:
			b.WriteString(Const{Value: c}.String())
		case 1:
			fmt.Fprintf(&b, "%s*x", Const{Value: c})
		default:
			fmt.Fprintf(&b, "%s*x^%d", Const{Value: c}, n)
		}
	}
	fmt.Fprintf(&b, " + O(x^%d)", len(s.Coeffs))

	return strings.TrimPrefix(b.String(), " + ")
}

// wrap parenthesizes compound operands.
func wrap(e Expr) string {
	switch e := e.(type) {
	case Add, Neg, Div, Series:
		return "(" + e.String() + ")"
	case Mul:
		if len(e.Factors) > 1 {
			return "(" + e.String() + ")"
		}
	case Const:
		if e.Value != nil && (!e.Value.IsInt() || e.Value.Sign() < 0) {
			return "(" + e.String() + ")"
		}
	}

	return e.String()
}

// Equation is Left = Right.
type Equation struct {
	Left  Symbol
	Right Expr
}

func (e Equation) String() string { return e.Left.String() + " = " + e.Right.String() }
