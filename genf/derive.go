package genf

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

// System is the equation system of one specification.
type System struct {
	// Unknowns[i] is the unknown of Classes[i], in preorder of first appearance.
	Unknowns []Symbol
	Classes  []core.Class
	// Equations has one definition per unknown; Steps[i] is the formal step
	// that produced Equations[i].
	Equations []Equation
	Steps     []string
	// Bases are the verified classes without a closed form.
	Bases []Base
	// Root is the unknown of the specification's root class.
	Root Symbol
}

// Symbol returns the unknown assigned to c.
func (s *System) Symbol(c core.Class) (Symbol, bool) {
	k, err := core.KeyOf(c)
	if err != nil {
		return Symbol{}, false
	}
	for _, u := range s.Unknowns {
		if u.Class == k {
			return u, true
		}
	}

	return Symbol{}, false
}

// String renders one equation per line.
func (s *System) String() string {
	lines := make([]string, len(s.Equations))
	for i, eq := range s.Equations {
		lines[i] = eq.String()
	}

	return strings.Join(lines, "\n")
}

// Derive turns sp into one equation per class:
//
//	union          F = F_1 + ... + F_k
//	decomposition  F = F_1 * ... * F_k
//	equivalence    F = F_1
//	verified leaf  F = closed form, or F = B(x) without one
//	in != out      F_in = F_out (equivalence explanations)
//
// Recursive leaves reuse the unknown of their ancestor's class. The first
// definition of an unknown wins. closedForms may be nil.
func Derive(sp *spec.Specification, closedForms ClosedForms) (*System, error) {
	if sp == nil || sp.Root == nil {
		return nil, errors.Wrap(core.ErrType, "nil specification")
	}
	if err := sp.Validate(); err != nil {
		return nil, err
	}

	for n := range sp.Nodes() {
		if n.InClass == nil || n.OutClass == nil {
			return nil, errors.Wrapf(core.ErrType, "step %q has no class", n.FormalStep)
		}
	}

	sys := &System{}
	index := make(map[string]Symbol)
	sym := func(c core.Class) Symbol {
		k := c.Key()
		if s, ok := index[k]; ok {
			return s
		}
		s := Symbol{Index: len(sys.Unknowns), Class: k}
		index[k] = s
		sys.Unknowns = append(sys.Unknowns, s)
		sys.Classes = append(sys.Classes, c)

		return s
	}
	for n := range sp.Nodes() {
		sym(n.InClass)
		sym(n.OutClass)
	}
	sys.Root = sym(sp.Root.InClass)

	defined := make(map[Symbol]bool)
	define := func(left Symbol, right Expr, step string) {
		if defined[left] {
			return
		}
		defined[left] = true
		sys.Equations = append(sys.Equations, Equation{Left: left, Right: right})
		sys.Steps = append(sys.Steps, step)
	}

	for n := range sp.Nodes() {
		in, out := sym(n.InClass), sym(n.OutClass)
		if in != out {
			step := strings.Join(n.Explanations, "; ")
			if step == "" {
				step = "equivalence"
			}
			define(in, out, step)
		}

		switch {
		case n.Recursive:
			// out is the ancestor's class, defined at the ancestor
		case n.Verified:
			rhs, err := verifiedForm(n, out, closedForms)
			if err != nil {
				return nil, err
			}
			if b, ok := rhs.(Base); ok && !defined[out] {
				sys.Bases = append(sys.Bases, b)
			}
			define(out, rhs, n.FormalStep)
		default:
			children := make([]Expr, len(n.Children))
			for i, c := range n.Children {
				children[i] = sym(c.InClass)
			}
			define(out, combine(n.Constructor, children), n.FormalStep)
		}
	}

	return sys, nil
}

func verifiedForm(n *spec.Node, out Symbol, closedForms ClosedForms) (Expr, error) {
	if closedForms != nil {
		if s, ok := closedForms(n.OutClass); ok {
			e, err := ParseClosedForm(s)
			if err != nil {
				return nil, errors.WithMessagef(err, "closed form of %s", out.Class)
			}

			return e, nil
		}
	}

	return Base{Index: out.Index, Class: out.Class}, nil
}

func combine(c core.Constructor, children []Expr) Expr {
	if len(children) == 1 {
		return children[0]
	}
	if c == core.Decomposition {
		return Mul{Factors: children}
	}

	return Add{Terms: children}
}

// substitute replaces Base nodes with the given series.
func substitute(e Expr, bases map[Base]Series) Expr {
	switch e := e.(type) {
	case Base:
		if s, ok := bases[e]; ok {
			return s
		}

		return e
	case Add:
		terms := make([]Expr, len(e.Terms))
		for i, t := range e.Terms {
			terms[i] = substitute(t, bases)
		}

		return Add{Terms: terms}
	case Mul:
		factors := make([]Expr, len(e.Factors))
		for i, f := range e.Factors {
			factors[i] = substitute(f, bases)
		}

		return Mul{Factors: factors}
	case Neg:
		return Neg{Arg: substitute(e.Arg, bases)}
	case Div:
		return Div{Num: substitute(e.Num, bases), Den: substitute(e.Den, bases)}
	case Pow:
		return Pow{Arg: substitute(e.Arg, bases), Exp: e.Exp}
	default:
		return e
	}
}
