package isomorphism

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

// errBudget stops the walk; Match turns it into Result.BudgetExceeded.
var errBudget = errors.New("isomorphism: budget exceeded")

// noDep marks a match that relied on no pair open on the path.
const noDep = math.MaxInt

// Match decides whether a and b describe isomorphic structures.
//
// Two nodes match when their constructors and arities agree and some
// permutation of b's children matches a's children pairwise. Verified
// leaves match under the atom comparator. A recursive leaf stands for its
// ancestor, and a pair already open on the current path matches.
// Exhausting the budget is reported in the Result, not as an error.
//
// Complexity: O(P·n!) pairings in the worst case, P node pairs of arity at
// most n; failed pairs are memoized and a failed child pairing is never
// retried, so trees with distinct children stay near O(P·n²).
//
// Error Conditions:
//   - core.ErrType if a specification or its root is nil.
//   - ErrOptionViolation if an Option is invalid.
func Match(a, b *spec.Specification, opts ...Option) (*Result, error) {
	if a == nil || a.Root == nil || b == nil || b.Root == nil {
		return nil, errors.Wrap(core.ErrType, "nil specification")
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	m := &matcher{
		opts:  o,
		open:  make(map[Pair]int),
		memo:  make(map[Pair]bool),
		order: make(map[Pair][]int),
	}
	res := &Result{Roots: Pair{A: a.Root, B: b.Root}, Order: map[Pair][]int{}, partner: map[*spec.Node]*spec.Node{}}

	ok, _, err := m.match(a.Root, b.Root)
	switch {
	case errors.Is(err, errBudget):
		res.BudgetExceeded = true

		return res, nil
	case err != nil:
		return nil, err
	case !ok:
		return res, nil
	}

	res.Isomorphic = true
	m.link(res, a.Root, b.Root)

	return res, nil
}

type matcher struct {
	opts  Options
	steps int

	// open maps each pair on the current path to its depth on the path.
	open map[Pair]int
	// memo holds outcomes that hold in any context.
	memo  map[Pair]bool
	order map[Pair][]int
	// journal records order writes so a failed pair can undo its subtree.
	journal []write
}

type write struct {
	p    Pair
	prev []int
	had  bool
}

func (m *matcher) setOrder(p Pair, perm []int) {
	prev, had := m.order[p]
	m.journal = append(m.journal, write{p: p, prev: prev, had: had})
	m.order[p] = perm
}

// rollback undoes the order writes made since mark, except for pairs whose
// success holds in any context.
func (m *matcher) rollback(mark int) {
	for i := len(m.journal) - 1; i >= mark; i-- {
		w := m.journal[i]
		if m.memo[w.p] {
			continue
		}
		if w.had {
			m.order[w.p] = w.prev
		} else {
			delete(m.order, w.p)
		}
	}
	m.journal = m.journal[:mark]
}

func (m *matcher) tick() error {
	if err := m.opts.Ctx.Err(); err != nil {
		return errors.Wrap(errBudget, err.Error())
	}
	m.steps++
	if m.opts.MaxSteps > 0 && m.steps > m.opts.MaxSteps {
		return errors.Wrapf(errBudget, "after %d steps", m.opts.MaxSteps)
	}

	return nil
}

// resolve returns the ancestor a recursive leaf stands for.
func resolve(n *spec.Node) *spec.Node {
	if n.Recursive && n.Ancestor != nil {
		return n.Ancestor
	}

	return n
}

// match reports whether n1 and n2 match and the shallowest path depth the
// answer relied on (noDep if none).
func (m *matcher) match(n1, n2 *spec.Node) (bool, int, error) {
	a, b := resolve(n1), resolve(n2)
	p := Pair{A: a, B: b}
	if d, ok := m.open[p]; ok {
		return true, d, nil
	}
	if ok, known := m.memo[p]; known {
		return ok, noDep, nil
	}
	if err := m.tick(); err != nil {
		return false, 0, err
	}

	if a.IsLeaf() || b.IsLeaf() {
		ok := a.IsLeaf() && b.IsLeaf() && a.Verified && b.Verified &&
			m.opts.AtomEqual(a.OutClass, b.OutClass)
		m.memo[p] = ok
		if ok {
			m.order[p] = []int{}
		}

		return ok, noDep, nil
	}
	if a.Constructor != b.Constructor || len(a.Children) != len(b.Children) {
		m.memo[p] = false

		return false, noDep, nil
	}

	depth, mark := len(m.open), len(m.journal)
	m.open[p] = depth
	perm, dep, err := m.permute(a, b)
	delete(m.open, p)
	if err != nil {
		return false, 0, err
	}
	if perm == nil {
		// assumptions only help, so a failure holds everywhere
		m.memo[p] = false
		m.rollback(mark)

		return false, noDep, nil
	}
	m.setOrder(p, perm)
	if dep >= depth {
		m.memo[p] = true
		dep = noDep
	}

	return true, dep, nil
}

type frame struct {
	i1, i2 int
	inUse  []bool
}

// permute searches for perm with perm[i2] = i1 such that every child pair
// matches. Candidates are tried depth-first, lowest index first; a failed
// (i1, i2) pairing is never retried.
func (m *matcher) permute(a, b *spec.Node) ([]int, int, error) {
	n := len(a.Children)
	perm := make([]int, n)
	dep := noDep
	failed := make(map[[2]int]bool)

	push := func(stack []frame, i1 int, inUse []bool) []frame {
		for i := n - 1; i >= 0; i-- {
			if inUse[i] {
				continue
			}
			next := slices.Clone(inUse)
			next[i] = true
			stack = append(stack, frame{i1: i1, i2: i, inUse: next})
		}

		return stack
	}
	stack := push(nil, 0, make([]bool, n))

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if failed[[2]int{f.i1, f.i2}] {
			continue
		}
		ok, d, err := m.match(a.Children[f.i1], b.Children[f.i2])
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			failed[[2]int{f.i1, f.i2}] = true

			continue
		}
		dep = min(dep, d)
		perm[f.i2] = f.i1
		if f.i1 == n-1 {
			return perm, dep, nil
		}
		stack = push(stack, f.i1+1, f.inUse)
	}

	return nil, noDep, nil
}

// link walks both trees along the chosen permutations, recording partners
// and keeping only the orders of pairs it reaches.
func (m *matcher) link(res *Result, n1, n2 *spec.Node) {
	if _, seen := res.partner[n1]; !seen {
		res.partner[n1] = n2
	}
	p := Pair{A: resolve(n1), B: resolve(n2)}
	if _, seen := res.Order[p]; seen {
		return
	}
	perm, ok := m.order[p]
	if !ok {
		return
	}
	res.Order[p] = perm
	for i2, i1 := range perm {
		m.link(res, p.A.Children[i1], p.B.Children[i2])
	}
}
