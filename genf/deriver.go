package genf

import (
	"context"
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

// Result is an accepted generating function.
type Result struct {
	System   *System
	Solution Solution
	// Root is the accepted expression for the root unknown.
	Root Expr
	// Coefficients are the first Order counts of the root class.
	Coefficients []*big.Int
}

// Deriver derives and validates generating functions of specifications.
type Deriver struct {
	enum    Enumerator
	algebra Algebra
	opts    Options
}

// NewDeriver returns a Deriver that checks candidates against enum.
func NewDeriver(enum Enumerator, opts ...Option) (*Deriver, error) {
	if enum == nil {
		return nil, errors.Wrap(ErrOptionViolation, "nil enumerator")
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	a := o.Algebra
	if a == nil {
		a = SeriesAlgebra{Order: o.Order}
	}

	return &Deriver{enum: enum, algebra: a, opts: o}, nil
}

// Counts enumerates c for sizes 0..Order-1.
func (d *Deriver) Counts(ctx context.Context, c core.Class) ([]*big.Int, error) {
	counts := make([]*big.Int, d.opts.Order)
	for n := range counts {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
		objs, err := d.enum.ObjectsOfSize(c, n)
		if err != nil {
			return nil, errors.WithMessagef(err, "enumerating %s at size %d", c.Key(), n)
		}
		counts[n] = big.NewInt(int64(len(objs)))
	}

	return counts, nil
}

// GeneratingFunction derives the system of sp, solves it and accepts the
// first candidate whose root series matches enumeration for sizes
// 0..Order-1.
//
// Steps:
//  1. Derive the system; enumerate every class of it.
//  2. Replace base series B_i by their enumerated counts and solve.
//  3. No candidate: ErrNoSolution.
//  4. First candidate whose root coefficients equal the counts wins.
//  5. Otherwise find the first equation whose counts disagree and return
//     core.ErrUnsoundRule naming its formal step.
func (d *Deriver) GeneratingFunction(ctx context.Context, sp *spec.Specification) (*Result, error) {
	sys, err := Derive(sp, d.opts.ClosedForms)
	if err != nil {
		return nil, err
	}
	counts, err := d.countAll(ctx, sys)
	if err != nil {
		return nil, err
	}

	bases := make(map[Base]Series, len(sys.Bases))
	for _, b := range sys.Bases {
		bases[b] = Series{Coeffs: toRats(counts[b.Index])}
	}
	eqs := make([]Equation, len(sys.Equations))
	for i, eq := range sys.Equations {
		eqs[i] = Equation{Left: eq.Left, Right: substitute(eq.Right, bases)}
	}

	cands, err := d.algebra.Solve(eqs, sys.Unknowns)
	if err != nil {
		return nil, errors.WithMessage(err, "solving system")
	}
	if len(cands) == 0 {
		return nil, errors.Wrapf(ErrNoSolution, "system of %d equations for %s", len(eqs), sys.Root.Class)
	}

	want := counts[sys.Root.Index]
	for i, cand := range cands {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
		root, ok := cand[sys.Root]
		if !ok {
			d.opts.Logger.Debug("candidate has no root", "candidate", i)

			continue
		}
		got, err := d.algebra.SeriesCoefficients(root, d.opts.Order)
		if err != nil {
			d.opts.Logger.Debug("candidate not expandable", "candidate", i, "error", err)

			continue
		}
		if equalInts(got, want) {
			return &Result{System: sys, Solution: cand, Root: root, Coefficients: got}, nil
		}
		d.opts.Logger.Debug("candidate rejected", "candidate", i, "root", root.String())
	}

	return nil, d.unsound(sys, counts)
}

func (d *Deriver) countAll(ctx context.Context, sys *System) ([][]*big.Int, error) {
	out := make([][]*big.Int, len(sys.Unknowns))
	for i, c := range sys.Classes {
		counts, err := d.Counts(ctx, c)
		if err != nil {
			return nil, err
		}
		out[i] = counts
	}

	return out, nil
}

// unsound checks every equation against enumeration and blames the first
// that fails. When all hold, the candidates were spurious roots and the
// root's step is blamed.
func (d *Deriver) unsound(sys *System, counts [][]*big.Int) error {
	v := &env{
		order:   d.opts.Order,
		symbols: make(map[Symbol]ps, len(sys.Unknowns)),
		bases:   make(map[Base]ps, len(sys.Bases)),
	}
	for _, u := range sys.Unknowns {
		v.symbols[u] = toRats(counts[u.Index])
	}
	for _, b := range sys.Bases {
		v.bases[b] = toRats(counts[b.Index])
	}

	for i, eq := range sys.Equations {
		got, err := v.eval(eq.Right)
		if err != nil {
			return errors.Wrapf(core.ErrUnsoundRule, "step %q: %v", sys.Steps[i], err)
		}
		if want := v.symbols[eq.Left]; !got.equal(want) {
			return errors.Wrapf(core.ErrUnsoundRule, "step %q: %s gives %s, enumeration gives %s",
				sys.Steps[i], eq, Series{Coeffs: got}, Series{Coeffs: want})
		}
	}

	step := ""
	for i, eq := range sys.Equations {
		if eq.Left == sys.Root {
			step = sys.Steps[i]
		}
	}

	return errors.Wrapf(core.ErrUnsoundRule, "step %q: no candidate matches enumeration", step)
}

func toRats(ints []*big.Int) ps {
	s := make(ps, len(ints))
	for i, n := range ints {
		s[i] = new(big.Rat).SetInt(n)
	}

	return s
}

func equalInts(a, b []*big.Int) bool {
	return slices.EqualFunc(a, b, func(x, y *big.Int) bool { return x.Cmp(y) == 0 })
}
