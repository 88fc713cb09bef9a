package equivdb

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
)

// Step is one recorded explanation edge, oriented From -> To.
type Step struct {
	From        core.Label
	To          core.Label
	Explanation string
	// Reversed is set when the edge was recorded in the opposite direction.
	Reversed bool
}

// String renders the step for proof trees and logs.
func (s Step) String() string {
	if s.Reversed {
		return fmt.Sprintf("reverse of: %s", s.Explanation)
	}

	return s.Explanation
}

type pair struct{ from, to core.Label }

// DB is a union-find over labels with explanation edges.
type DB struct {
	parent   map[core.Label]core.Label
	weight   map[core.Label]int
	verified map[core.Label]bool // keyed by root
	expl     map[pair]Step
	adj      map[core.Label][]core.Label
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		parent:   make(map[core.Label]core.Label),
		weight:   make(map[core.Label]int),
		verified: make(map[core.Label]bool),
		expl:     make(map[pair]Step),
		adj:      make(map[core.Label][]core.Label),
	}
}

// Len returns the number of labels the DB has seen.
func (db *DB) Len() int { return len(db.parent) }

// Find returns the representative of l's class, creating a singleton for an
// unseen label. Repeated calls return the same root until the next Union.
//
// Complexity: amortized O(α(n)) with union by weight and path compression.
//
// Error Conditions:
//   - core.ErrType if l is negative.
func (db *DB) Find(l core.Label) (core.Label, error) {
	if err := core.CheckLabels(l); err != nil {
		return core.NoLabel, err
	}

	return db.find(l), nil
}

func (db *DB) find(l core.Label) core.Label {
	if _, ok := db.parent[l]; !ok {
		db.parent[l] = l
		db.weight[l] = 1

		return l
	}
	// 1. Walk up to the root.
	root := l
	for db.parent[root] != root {
		root = db.parent[root]
	}
	// 2. Point every node on the walked path directly at the root.
	for l != root {
		next := db.parent[l]
		db.parent[l] = root
		l = next
	}

	return root
}

// Union merges the classes of a and b and records explanation for the pair.
// The heavier root stays the representative; verification carries over.
//
// Complexity: amortized O(α(n)) plus O(1) to record the explanation edge.
//
// Error Conditions:
//   - core.ErrType if a or b is negative. Nothing is recorded then.
func (db *DB) Union(a, b core.Label, explanation string) error {
	if err := core.CheckLabels(a, b); err != nil {
		return err
	}
	db.addEdge(a, b, explanation)

	ra, rb := db.find(a), db.find(b)
	if ra == rb {
		return nil
	}
	if db.weight[ra] < db.weight[rb] {
		ra, rb = rb, ra
	}
	db.parent[rb] = ra
	db.weight[ra] += db.weight[rb]
	delete(db.weight, rb)
	if db.verified[rb] {
		db.verified[ra] = true
	}
	delete(db.verified, rb)

	return nil
}

// addEdge keeps the first explanation recorded for an unordered pair.
func (db *DB) addEdge(a, b core.Label, explanation string) {
	if a == b {
		return
	}
	if _, ok := db.expl[pair{a, b}]; ok {
		return
	}
	db.expl[pair{a, b}] = Step{From: a, To: b, Explanation: explanation}
	db.expl[pair{b, a}] = Step{From: b, To: a, Explanation: explanation, Reversed: true}
	db.adj[a] = append(db.adj[a], b)
	db.adj[b] = append(db.adj[b], a)
}

// IsEquivalent reports whether a and b share a class.
func (db *DB) IsEquivalent(a, b core.Label) (bool, error) {
	if err := core.CheckLabels(a, b); err != nil {
		return false, err
	}

	return db.find(a) == db.find(b), nil
}

// SetVerified marks the whole class of l as verified.
func (db *DB) SetVerified(l core.Label) error {
	if err := core.CheckLabels(l); err != nil {
		return err
	}
	db.verified[db.find(l)] = true

	return nil
}

// IsVerified reports whether the class of l is verified.
func (db *DB) IsVerified(l core.Label) bool {
	if !l.Valid() {
		return false
	}

	return db.verified[db.find(l)]
}

// EquivalentSet returns every seen label in l's class, ascending.
func (db *DB) EquivalentSet(l core.Label) ([]core.Label, error) {
	if err := core.CheckLabels(l); err != nil {
		return nil, err
	}
	root := db.find(l)
	out := make([]core.Label, 0, db.weight[root])
	for x := range db.parent {
		if db.find(x) == root {
			out = append(out, x)
		}
	}
	slices.Sort(out)

	return out, nil
}

// Explanation returns the recorded step between two adjacent labels.
func (db *DB) Explanation(a, b core.Label) (Step, bool) {
	s, ok := db.expl[pair{a, b}]

	return s, ok
}

// ExplanationPath returns the shortest chain of labels from a to b over
// recorded explanation edges. For a == b the chain is [a].
//
// Steps:
//  1. Reject labels that are not equivalent (core.ErrNotEquivalent).
//  2. BFS from a; neighbours are visited in recording order.
//  3. Rebuild the path from the parent links.
//
// Complexity: O(V + E) over the explanation edges of the class.
//
// Error Conditions:
//   - core.ErrType if a or b is negative.
//   - core.ErrNotEquivalent if a and b are in different classes.
func (db *DB) ExplanationPath(a, b core.Label) ([]core.Label, error) {
	eq, err := db.IsEquivalent(a, b)
	if err != nil {
		return nil, err
	}
	if !eq {
		return nil, errors.Wrapf(core.ErrNotEquivalent, "labels %d and %d", a, b)
	}
	if a == b {
		return []core.Label{a}, nil
	}

	parent := map[core.Label]core.Label{a: a}
	queue := []core.Label{a}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if curr == b {
			break
		}
		for _, next := range db.adj[curr] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = curr
			queue = append(queue, next)
		}
	}
	if _, ok := parent[b]; !ok {
		// Merged without a connecting explanation chain: cannot happen through
		// Union, which always records the pair it merges.
		return nil, errors.Wrapf(core.ErrNotEquivalent, "no explanation chain between %d and %d", a, b)
	}

	path := []core.Label{b}
	for at := b; at != a; {
		at = parent[at]
		path = append(path, at)
	}
	slices.Reverse(path)

	return path, nil
}

// Explain returns the explanation steps along ExplanationPath(a, b).
func (db *DB) Explain(a, b core.Label) ([]Step, error) {
	path, err := db.ExplanationPath(a, b)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		steps = append(steps, db.expl[pair{path[i-1], path[i]}])
	}

	return steps, nil
}
