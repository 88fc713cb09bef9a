package spec_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/combspec/classdb"
	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/equivdb"
	"github.com/katalvlaran/combspec/ruledb"
	"github.com/katalvlaran/combspec/spec"
)

// fixture builds a Store by class name.
type fixture struct {
	t     testing.TB
	store spec.Store
}

func newFixture(t testing.TB) *fixture {
	t.Helper()

	return &fixture{
		t: t,
		store: spec.Store{
			Classes:      classdb.New(),
			Equivalences: equivdb.New(),
			Rules:        ruledb.New(),
		},
	}
}

func (f *fixture) label(name string) core.Label {
	f.t.Helper()
	l, _, err := f.store.Classes.Intern(core.Named(name))
	require.NoError(f.t, err)

	return l
}

func (f *fixture) rule(start string, c core.Constructor, step string, ends ...string) {
	f.t.Helper()
	ls := make([]core.Label, len(ends))
	for i, e := range ends {
		ls[i] = f.label(e)
	}
	require.NoError(f.t, f.store.Rules.Add(f.label(start), ls, step, c, nil))
}

func (f *fixture) verify(name, explanation string) {
	f.t.Helper()
	l := f.label(name)
	require.NoError(f.t, f.store.Classes.SetVerified(l, explanation))
	require.NoError(f.t, f.store.Classes.Set(l, classdb.StrategyVerified))
	require.NoError(f.t, f.store.Equivalences.SetVerified(l))
}

func (f *fixture) union(a, b, explanation string) {
	f.t.Helper()
	require.NoError(f.t, f.store.Equivalences.Union(f.label(a), f.label(b), explanation))
}

func (f *fixture) extract(root string, opts ...spec.Option) (*spec.Specification, error) {
	f.t.Helper()

	return spec.Extract(f.store, f.label(root), opts...)
}

// productiveCycles reports whether every recursive leaf closes a cycle
// through a node that has another child, off the path, whose subtree
// reaches a verified leaf.
func productiveCycles(s *spec.Specification) bool {
	grounded := make(map[*spec.Node]bool)
	var ground func(n *spec.Node) bool
	ground = func(n *spec.Node) bool {
		if g, ok := grounded[n]; ok {
			return g
		}
		g := n.Verified
		for _, c := range n.Children {
			g = ground(c) || g
		}
		grounded[n] = g

		return g
	}
	ground(s.Root)

	ok := true
	var path []*spec.Node
	var walk func(n *spec.Node)
	walk = func(n *spec.Node) {
		if n.Recursive {
			productive := false
			cycle := append(slices.Clone(path[n.AncestorDepth:]), n)
			for i, p := range cycle[:len(cycle)-1] {
				for _, c := range p.Children {
					if c != cycle[i+1] && grounded[c] {
						productive = true
					}
				}
			}
			ok = ok && productive

			return
		}
		path = append(path, n)
		for _, c := range n.Children {
			walk(c)
		}
		path = path[:len(path)-1]
	}
	walk(s.Root)

	return ok
}

// hasBaseCase reports whether s has at least one verified leaf.
func hasBaseCase(s *spec.Specification) bool {
	for n := range s.Nodes() {
		if n.Verified {
			return true
		}
	}

	return false
}
