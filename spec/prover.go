package spec

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/ruledb"
)

// hyperedge is a rule lifted onto equivalence roots.
type hyperedge struct {
	rule ruledb.Rule
	// children are the equivalence roots of rule.Ends, aligned with them.
	children []core.Label
	// branching rules have at least two children.
	branching bool
}

// Prover answers specification queries against one snapshot of a Store.
// Build a new Prover after the databases change.
type Prover struct {
	store Store
	opts  Options
	steps int

	nodes    []core.Label
	out      map[core.Label][]*hyperedge
	in       map[core.Label][]core.Label
	verified map[core.Label]bool
	// reachers caches, per class, the classes with a rule path to it.
	reachers map[core.Label]map[core.Label]bool

	win  map[core.Label]bool
	rank map[core.Label]int
}

// NewProver snapshots store and solves it.
//
// Complexity:
//   - Snapshot: O(R·k) for R rules of at most k children.
//   - Solve: O(N·(N+R·k)) in the worst case, N classes; each outer round
//     removes at least one class from the candidate set.
//   - Memory: O(N + R·k) plus one reacher set per branching start class.
//
// Error Conditions:
//   - ErrNilStore if a Store field is nil.
//   - ErrOptionViolation if an Option is invalid.
//   - ErrBudgetExceeded if MaxSteps or the context stops the solve.
func NewProver(store Store, opts ...Option) (*Prover, error) {
	if err := store.check(); err != nil {
		return nil, err
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	p := &Prover{
		store:    store,
		opts:     o,
		out:      make(map[core.Label][]*hyperedge),
		in:       make(map[core.Label][]core.Label),
		verified: make(map[core.Label]bool),
		reachers: make(map[core.Label]map[core.Label]bool),
	}
	if err := p.snapshot(); err != nil {
		return nil, err
	}
	if err := p.solve(); err != nil {
		return nil, err
	}

	return p, nil
}

// HasSpecification reports whether root has a specification in store.
func HasSpecification(store Store, root core.Label, opts ...Option) (bool, error) {
	p, err := NewProver(store, opts...)
	if err != nil {
		return false, err
	}

	return p.Has(root)
}

// Has reports whether l has a specification in the snapshot.
// A label never interned in the ClassDB is core.ErrUnknown.
func (p *Prover) Has(l core.Label) (bool, error) {
	if err := p.known(l); err != nil {
		return false, err
	}
	r, err := p.store.Equivalences.Find(l)
	if err != nil {
		return false, err
	}
	if p.verified[r] || p.store.Equivalences.IsVerified(r) {
		return true, nil
	}

	return p.win[r], nil
}

// known rejects labels the ClassDB never issued, so queries do not grow
// the union-find.
func (p *Prover) known(l core.Label) error {
	if !l.Valid() || int(l) >= p.store.Classes.Len() {
		return errors.Wrapf(core.ErrUnknown, "label %d", l)
	}

	return nil
}

// tick charges one step against the budget.
func (p *Prover) tick() error {
	if err := p.opts.Ctx.Err(); err != nil {
		return errors.Wrap(ErrBudgetExceeded, err.Error())
	}
	p.steps++
	if p.opts.MaxSteps > 0 && p.steps > p.opts.MaxSteps {
		return errors.Wrapf(ErrBudgetExceeded, "after %d steps", p.opts.MaxSteps)
	}

	return nil
}

// snapshot lifts every stored rule onto equivalence roots.
func (p *Prover) snapshot() error {
	eq := p.store.Equivalences
	seen := make(map[core.Label]bool)
	add := func(r core.Label) {
		if !seen[r] {
			seen[r] = true
			p.nodes = append(p.nodes, r)
		}
	}

	for rule := range p.store.Rules.All() {
		from, err := eq.Find(rule.Start)
		if err != nil {
			return err
		}
		add(from)
		e := &hyperedge{
			rule:      rule,
			children:  make([]core.Label, len(rule.Ends)),
			branching: len(rule.Ends) >= 2,
		}
		for i, end := range rule.Ends {
			c, err := eq.Find(end)
			if err != nil {
				return err
			}
			add(c)
			e.children[i] = c
			p.in[c] = append(p.in[c], from)
		}
		p.out[from] = append(p.out[from], e)
	}
	for l := range p.store.Classes.Labels() {
		r, err := eq.Find(l)
		if err != nil {
			return err
		}
		if eq.IsVerified(r) {
			add(r)
			p.verified[r] = true
		}
	}
	slices.Sort(p.nodes)

	return nil
}

// solve computes the winning set and ranks (see the package documentation).
func (p *Prover) solve() error {
	z := make(map[core.Label]bool, len(p.nodes))
	for _, v := range p.nodes {
		z[v] = true
	}
	for {
		rank, err := p.attract(z)
		if err != nil {
			return err
		}
		changed := false
		for v := range z {
			if _, ok := rank[v]; !ok {
				delete(z, v)
				changed = true
			}
		}
		if !changed {
			p.win, p.rank = z, rank

			return nil
		}
	}
}

// attract ranks the classes that can reach a verified class or a
// progressing rule into z through finitely many single-child rules.
func (p *Prover) attract(z map[core.Label]bool) (map[core.Label]int, error) {
	rank := make(map[core.Label]int, len(z))

	// 1. Rank 0: verified, or a progressing rule whose children stay in z.
	for _, v := range p.nodes {
		if !z[v] {
			continue
		}
		if err := p.tick(); err != nil {
			return nil, err
		}
		if p.verified[v] {
			rank[v] = 0

			continue
		}
		for _, e := range p.out[v] {
			if p.progresses(v, e, z) {
				rank[v] = 0

				break
			}
		}
	}

	// 2. Rank r+1: a single-child rule into ranks <= r. Each round reads
	//    only ranks assigned in earlier rounds.
	for r := 0; ; r++ {
		var next []core.Label
		for _, v := range p.nodes {
			if _, done := rank[v]; done || !z[v] {
				continue
			}
			if err := p.tick(); err != nil {
				return nil, err
			}
			for _, e := range p.out[v] {
				if !e.branching && allRanked(e.children, rank) {
					next = append(next, v)

					break
				}
			}
		}
		if len(next) == 0 {
			return rank, nil
		}
		for _, v := range next {
			rank[v] = r + 1
		}
	}
}

// allowed returns the rules Extract may use at winning class v.
func (p *Prover) allowed(v core.Label) []*hyperedge {
	var out []*hyperedge
	for _, e := range p.out[v] {
		if e.branching {
			if p.progresses(v, e, p.win) {
				out = append(out, e)
			}

			continue
		}
		ok := true
		for _, c := range e.children {
			if rc, ranked := p.rank[c]; !ranked || rc >= p.rank[v] {
				ok = false

				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}

	return out
}

// progresses reports whether branching rule e at v may close a recursion:
// every child is in z and at least one child is in z without a rule path
// back to v. Such a child carries its own base case, so v never proves
// itself from itself alone (R -> (R, R) is rejected, R -> (A, R) with A
// verified is not).
func (p *Prover) progresses(v core.Label, e *hyperedge, z map[core.Label]bool) bool {
	if !e.branching || !allIn(e.children, z) {
		return false
	}
	back := p.reachersOf(v)
	for _, c := range e.children {
		if !back[c] {
			return true
		}
	}

	return false
}

// reachersOf returns the classes with a rule path to v, v included. Paths
// do not leave verified classes, which are always leaves.
func (p *Prover) reachersOf(v core.Label) map[core.Label]bool {
	if set, ok := p.reachers[v]; ok {
		return set
	}
	set := map[core.Label]bool{v: true}
	queue := []core.Label{v}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, w := range p.in[u] {
			if set[w] || p.verified[w] {
				continue
			}
			set[w] = true
			queue = append(queue, w)
		}
	}
	p.reachers[v] = set

	return set
}

func allIn(ls []core.Label, set map[core.Label]bool) bool {
	for _, l := range ls {
		if !set[l] {
			return false
		}
	}

	return true
}

func allRanked(ls []core.Label, rank map[core.Label]int) bool {
	for _, l := range ls {
		if _, ok := rank[l]; !ok {
			return false
		}
	}

	return true
}
