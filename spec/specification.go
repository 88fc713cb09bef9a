package spec

import (
	"iter"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
)

// Nodes yields every node in preorder.
func (s *Specification) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if s == nil || s.Root == nil {
			return
		}
		stack := []*Node{s.Root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, n.Children[i])
			}
		}
	}
}

// Size returns the number of nodes.
func (s *Specification) Size() int {
	n := 0
	for range s.Nodes() {
		n++
	}

	return n
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (s *Specification) Depth() int {
	if s == nil || s.Root == nil {
		return 0
	}
	var walk func(*Node) int
	walk = func(n *Node) int {
		best := 0
		for _, c := range n.Children {
			best = max(best, 1+walk(c))
		}

		return best
	}

	return walk(s.Root)
}

// Equal compares two specifications structurally. Search labels and
// back-maps are ignored; classes compare by key.
func (s *Specification) Equal(other *Specification) bool {
	if s == nil || other == nil {
		return s == other
	}

	return nodeEqual(s.Root, other.Root)
}

func nodeEqual(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.FormalStep != b.FormalStep ||
		a.Verified != b.Verified ||
		a.Recursive != b.Recursive ||
		keyOrEmpty(a.InClass) != keyOrEmpty(b.InClass) ||
		keyOrEmpty(a.OutClass) != keyOrEmpty(b.OutClass) ||
		!slices.Equal(a.Explanations, b.Explanations) ||
		len(a.Children) != len(b.Children) {
		return false
	}
	if a.Recursive && a.AncestorDepth != b.AncestorDepth {
		return false
	}
	if len(a.Children) > 0 && a.Constructor != b.Constructor {
		return false
	}
	for i := range a.Children {
		if !nodeEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}

	return true
}

func keyOrEmpty(c core.Class) string {
	if c == nil {
		return ""
	}

	return c.Key()
}

// Validate checks the proof-tree invariants:
//   - every leaf is verified, or a recursive reference to a strict ancestor;
//   - internal nodes carry a constructor whose arity fits their children;
//   - no class is expanded twice on one root-to-leaf path;
//   - the tree is finite (no node reachable twice).
//
// All violations are collected; the result wraps core.ErrUnsoundRule.
func (s *Specification) Validate() error {
	if s == nil || s.Root == nil {
		return errors.Wrap(core.ErrUnsoundRule, "empty specification")
	}

	var result *multierror.Error
	visited := make(map[*Node]bool)
	var path []*Node
	openKeys := make(map[string]bool)

	var walk func(n *Node)
	walk = func(n *Node) {
		if visited[n] {
			result = multierror.Append(result, errors.Errorf("step %q: node reached twice", n.FormalStep))

			return
		}
		visited[n] = true

		switch {
		case n.IsLeaf() && n.Verified && n.Recursive:
			result = multierror.Append(result, errors.Errorf("step %q: leaf is both verified and recursive", n.FormalStep))
		case n.IsLeaf() && n.Recursive:
			d := n.AncestorDepth
			if d < 0 || d >= len(path) {
				result = multierror.Append(result, errors.Errorf("step %q: ancestor depth %d outside path of length %d", n.FormalStep, d, len(path)))
			} else if n.Ancestor != nil && path[d] != n.Ancestor {
				result = multierror.Append(result, errors.Errorf("step %q: ancestor pointer disagrees with depth %d", n.FormalStep, d))
			}
		case n.IsLeaf() && !n.Verified:
			result = multierror.Append(result, errors.Errorf("step %q: leaf is neither verified nor recursive", n.FormalStep))
		case !n.IsLeaf():
			if n.Verified || n.Recursive {
				result = multierror.Append(result, errors.Errorf("step %q: internal node marked as leaf", n.FormalStep))
			}
			if err := n.Constructor.CheckArity(len(n.Children)); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "step %q", n.FormalStep))
			}
			key := keyOrEmpty(n.OutClass)
			if openKeys[key] {
				result = multierror.Append(result, errors.Errorf("step %q: class %q expanded twice on one path", n.FormalStep, key))
			}
			openKeys[key] = true
			path = append(path, n)
			for _, c := range n.Children {
				if c == nil {
					result = multierror.Append(result, errors.Errorf("step %q: nil child", n.FormalStep))

					continue
				}
				walk(c)
			}
			path = path[:len(path)-1]
			delete(openKeys, key)
		}
	}
	walk(s.Root)

	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrap(core.ErrUnsoundRule, err.Error())
	}

	return nil
}
