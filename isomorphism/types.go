package isomorphism

import (
	"context"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

// Sentinel errors for matching and bijections.
var (
	// ErrOptionViolation indicates an invalid Option.
	ErrOptionViolation = errors.New("isomorphism: invalid option supplied")

	// ErrNotIsomorphic indicates a bijection was requested for a failed match.
	ErrNotIsomorphic = errors.New("isomorphism: specifications are not isomorphic")

	// ErrNoPartner indicates an object reached a node pair without a recorded order.
	ErrNoPartner = errors.New("isomorphism: node has no partner")
)

// Option configures Match.
type Option func(*Options)

// Options holds Match parameters.
type Options struct {
	// AtomEqual compares the classes of two verified leaves.
	AtomEqual func(a, b core.Class) bool
	// Ctx is checked once per candidate pairing.
	Ctx context.Context
	// MaxSteps bounds the candidate pairings tried. Zero means unlimited.
	MaxSteps int

	err error
}

// DefaultOptions compares leaves by class key, with no step limit.
func DefaultOptions() Options {
	return Options{
		AtomEqual: func(a, b core.Class) bool { return a.Key() == b.Key() },
		Ctx:       context.Background(),
	}
}

// WithAtomEqual sets the verified-leaf comparator. A nil func is ignored.
func WithAtomEqual(eq func(a, b core.Class) bool) Option {
	return func(o *Options) {
		if eq != nil {
			o.AtomEqual = eq
		}
	}
}

// WithContext sets the context. A nil ctx is ignored.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		if ctx != nil {
			o.Ctx = ctx
		}
	}
}

// WithMaxSteps bounds the number of pairings tried; n must be >= 0.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = errors.Wrapf(ErrOptionViolation, "MaxSteps must be >= 0, got %d", n)

			return
		}
		o.MaxSteps = n
	}
}

// Pair is a node of the first specification matched with a node of the second.
type Pair struct {
	A, B *spec.Node
}

// Result is the outcome of Match.
type Result struct {
	Isomorphic bool
	// BudgetExceeded is set when the context or step budget ran out first.
	BudgetExceeded bool
	// Order maps each matched pair of expanded nodes to the child
	// permutation used: B.Children[i2] matches A.Children[Order[p][i2]].
	// Matched verified leaves map to an empty permutation.
	Order map[Pair][]int
	// Roots is the pair of specification roots.
	Roots Pair

	partner map[*spec.Node]*spec.Node
}

// Partner returns the node of the second specification matched with n.
func (r *Result) Partner(n *spec.Node) (*spec.Node, bool) {
	p, ok := r.partner[n]

	return p, ok
}
