package isomorphism

import (
	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

// ObjectMaps carries the per-rule object maps of both specifications.
//
// Split is a rule's forward map: it breaks an object of n's class into one
// object per child. For a disjoint union exactly one entry is non-nil.
// Join is the backward map and inverts Split. Leaf carries an object of the
// verified leaf from onto the matched verified leaf to. Each func is called
// with nodes of either specification.
type ObjectMaps struct {
	Split func(n *spec.Node, obj core.Object) ([]core.Object, error)
	Join  func(n *spec.Node, parts []core.Object) (core.Object, error)
	Leaf  func(from, to *spec.Node, obj core.Object) (core.Object, error)
}

// Bijection maps objects of the first specification's root class onto the
// second's along a successful Match.
type Bijection struct {
	roots    Pair
	forward  map[Pair][]int
	backward map[Pair][]int
	maps     ObjectMaps
}

// NewBijection builds the bijection for res. It fails with ErrNotIsomorphic
// unless res.Isomorphic, and with core.ErrType if a map is missing.
func NewBijection(res *Result, maps ObjectMaps) (*Bijection, error) {
	if res == nil || !res.Isomorphic {
		return nil, ErrNotIsomorphic
	}
	if maps.Split == nil || maps.Join == nil || maps.Leaf == nil {
		return nil, errors.Wrap(core.ErrType, "object maps need Split, Join and Leaf")
	}

	backward := make(map[Pair][]int, len(res.Order))
	for p, perm := range res.Order {
		inv := make([]int, len(perm))
		for i2, i1 := range perm {
			inv[i1] = i2
		}
		backward[Pair{A: p.B, B: p.A}] = inv
	}

	return &Bijection{roots: res.Roots, forward: res.Order, backward: backward, maps: maps}, nil
}

// Map sends an object of the first root class to the second.
func (bj *Bijection) Map(obj core.Object) (core.Object, error) {
	return bj.carry(bj.roots.A, bj.roots.B, obj, bj.forward)
}

// Inverse sends an object of the second root class back to the first.
func (bj *Bijection) Inverse(obj core.Object) (core.Object, error) {
	return bj.carry(bj.roots.B, bj.roots.A, obj, bj.backward)
}

func (bj *Bijection) carry(n1, n2 *spec.Node, obj core.Object, orders map[Pair][]int) (core.Object, error) {
	a, b := resolve(n1), resolve(n2)
	perm, ok := orders[Pair{A: a, B: b}]
	if !ok {
		return nil, errors.Wrapf(ErrNoPartner, "%s", a.OutClass.Key())
	}
	if a.IsLeaf() {
		return bj.maps.Leaf(a, b, obj)
	}

	parts, err := bj.maps.Split(a, obj)
	if err != nil {
		return nil, errors.Wrapf(err, "split %s", a.FormalStep)
	}
	if len(parts) != len(a.Children) {
		return nil, errors.Wrapf(core.ErrType, "split %s: %d parts for %d children", a.FormalStep, len(parts), len(a.Children))
	}

	out := make([]core.Object, len(b.Children))
	for i2, i1 := range perm {
		if parts[i1] == nil {
			continue
		}
		if out[i2], err = bj.carry(a.Children[i1], b.Children[i2], parts[i1], orders); err != nil {
			return nil, err
		}
	}

	return bj.maps.Join(b, out)
}
