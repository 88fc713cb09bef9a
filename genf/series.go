package genf

import (
	"math/big"

	"github.com/pkg/errors"
)

// ps is a power series truncated to a fixed number of terms.
type ps []*big.Rat

func zeroSeries(order int) ps {
	s := make(ps, order)
	for i := range s {
		s[i] = new(big.Rat)
	}

	return s
}

func constSeries(order int, c *big.Rat) ps {
	s := zeroSeries(order)
	if order > 0 && c != nil {
		s[0].Set(c)
	}

	return s
}

func (s ps) add(t ps) ps {
	out := zeroSeries(len(s))
	for i := range out {
		out[i].Add(s[i], t[i])
	}

	return out
}

func (s ps) neg() ps {
	out := zeroSeries(len(s))
	for i := range out {
		out[i].Neg(s[i])
	}

	return out
}

func (s ps) mul(t ps) ps {
	out := zeroSeries(len(s))
	var term big.Rat
	for i := range s {
		if s[i].Sign() == 0 {
			continue
		}
		for j := 0; i+j < len(out); j++ {
			term.Mul(s[i], t[j])
			out[i+j].Add(out[i+j], &term)
		}
	}

	return out
}

// div solves q*t = s term by term; t must have a non-zero constant term.
func (s ps) div(t ps) (ps, error) {
	out := zeroSeries(len(s))
	if len(s) == 0 {
		return out, nil
	}
	if t[0].Sign() == 0 {
		return nil, errors.Wrap(ErrDivision, "denominator has no constant term")
	}
	var acc, term big.Rat
	for n := range out {
		acc.Set(s[n])
		for k := 1; k <= n; k++ {
			term.Mul(t[k], out[n-k])
			acc.Sub(&acc, &term)
		}
		out[n].Quo(&acc, t[0])
	}

	return out, nil
}

func (s ps) equal(t ps) bool {
	if len(s) != len(t) {
		return false
	}
	for i := range s {
		if s[i].Cmp(t[i]) != 0 {
			return false
		}
	}

	return true
}

// ints converts s to integers, failing on a fractional coefficient.
func (s ps) ints() ([]*big.Int, error) {
	out := make([]*big.Int, len(s))
	for i, c := range s {
		if !c.IsInt() {
			return nil, errors.Wrapf(ErrNotInteger, "coefficient %d is %s", i, c.RatString())
		}
		out[i] = new(big.Int).Set(c.Num())
	}

	return out, nil
}

// env resolves symbols and base series during evaluation.
type env struct {
	order   int
	symbols map[Symbol]ps
	bases   map[Base]ps
}

// eval expands e as a series truncated to env.order terms.
func (v *env) eval(e Expr) (ps, error) {
	switch e := e.(type) {
	case X:
		s := zeroSeries(v.order)
		if v.order > 1 {
			s[1].SetInt64(1)
		}

		return s, nil
	case Const:
		return constSeries(v.order, e.Value), nil
	case Symbol:
		s, ok := v.symbols[e]
		if !ok {
			return nil, errors.Wrapf(ErrUnboundSymbol, "%s", e)
		}

		return s, nil
	case Base:
		s, ok := v.bases[e]
		if !ok {
			return nil, errors.Wrapf(ErrUnboundSymbol, "%s", e)
		}

		return s, nil
	case Series:
		s := zeroSeries(v.order)
		for i := 0; i < v.order && i < len(e.Coeffs); i++ {
			if e.Coeffs[i] != nil {
				s[i].Set(e.Coeffs[i])
			}
		}

		return s, nil
	case Neg:
		a, err := v.eval(e.Arg)
		if err != nil {
			return nil, err
		}

		return a.neg(), nil
	case Add:
		sum := zeroSeries(v.order)
		for _, t := range e.Terms {
			a, err := v.eval(t)
			if err != nil {
				return nil, err
			}
			sum = sum.add(a)
		}

		return sum, nil
	case Mul:
		prod := constSeries(v.order, big.NewRat(1, 1))
		for _, f := range e.Factors {
			a, err := v.eval(f)
			if err != nil {
				return nil, err
			}
			prod = prod.mul(a)
		}

		return prod, nil
	case Div:
		num, err := v.eval(e.Num)
		if err != nil {
			return nil, err
		}
		den, err := v.eval(e.Den)
		if err != nil {
			return nil, err
		}

		return num.div(den)
	case Pow:
		if e.Exp < 0 {
			return nil, errors.Wrapf(ErrParse, "negative exponent %d", e.Exp)
		}
		base, err := v.eval(e.Arg)
		if err != nil {
			return nil, err
		}
		out := constSeries(v.order, big.NewRat(1, 1))
		for range e.Exp {
			out = out.mul(base)
		}

		return out, nil
	default:
		return nil, errors.Errorf("genf: unknown expression %T", e)
	}
}

// SeriesAlgebra solves systems numerically over power series truncated to
// Order terms. Solve runs Kleene iteration from zero: every unknown starts
// as the zero series and each round re-evaluates all right-hand sides. A
// well-founded system reaches a fixed point; one whose recursion adds no
// size (F = A + F) keeps growing and yields no candidate.
type SeriesAlgebra struct {
	// Order is the number of terms kept.
	Order int
	// MaxRounds bounds the iteration; zero means (Order+1)*(unknowns+1).
	MaxRounds int
}

// Solve implements Algebra. Each solution maps an unknown to a Series.
func (a SeriesAlgebra) Solve(eqs []Equation, unknowns []Symbol) ([]Solution, error) {
	if a.Order <= 0 {
		return nil, errors.Wrapf(ErrOptionViolation, "series order must be > 0, got %d", a.Order)
	}
	defs := make(map[Symbol]Expr, len(eqs))
	for _, eq := range eqs {
		if _, dup := defs[eq.Left]; dup {
			return nil, errors.Wrapf(ErrSystem, "%s defined twice", eq.Left)
		}
		defs[eq.Left] = eq.Right
	}
	for _, u := range unknowns {
		if _, ok := defs[u]; !ok {
			return nil, errors.Wrapf(ErrSystem, "no equation for %s", u)
		}
	}

	v := &env{order: a.Order, symbols: make(map[Symbol]ps, len(unknowns))}
	for _, u := range unknowns {
		v.symbols[u] = zeroSeries(a.Order)
	}
	rounds := a.MaxRounds
	if rounds <= 0 {
		rounds = (a.Order + 1) * (len(unknowns) + 1)
	}
	for range rounds {
		next := make(map[Symbol]ps, len(unknowns))
		stable := true
		for _, u := range unknowns {
			s, err := v.eval(defs[u])
			if err != nil {
				return nil, err
			}
			next[u] = s
			stable = stable && s.equal(v.symbols[u])
		}
		if stable {
			sol := make(Solution, len(unknowns))
			for _, u := range unknowns {
				sol[u] = Series{Coeffs: next[u]}
			}

			return []Solution{sol}, nil
		}
		v.symbols = next
	}

	return nil, nil
}

// SeriesCoefficients implements Algebra. e may use X, constants and Series
// literals only.
func (a SeriesAlgebra) SeriesCoefficients(e Expr, order int) ([]*big.Int, error) {
	if order < 0 {
		return nil, errors.Wrapf(ErrOptionViolation, "order must be >= 0, got %d", order)
	}
	s, err := (&env{order: order}).eval(e)
	if err != nil {
		return nil, err
	}

	return s.ints()
}
