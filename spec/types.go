package spec

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/katalvlaran/combspec/classdb"
	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/equivdb"
	"github.com/katalvlaran/combspec/ruledb"
)

// Sentinel errors for specification search and extraction.
var (
	// ErrNoSpecification indicates the class has no specification yet.
	ErrNoSpecification = errors.New("spec: no specification")

	// ErrBudgetExceeded indicates the step budget or context ran out.
	ErrBudgetExceeded = errors.New("spec: budget exceeded")

	// ErrOptionViolation indicates an invalid Option.
	ErrOptionViolation = errors.New("spec: invalid option supplied")

	// ErrNilStore indicates a Store with a nil database.
	ErrNilStore = errors.New("spec: store is incomplete")
)

// Store bundles the three databases a search writes to.
type Store struct {
	Classes      *classdb.DB
	Equivalences *equivdb.DB
	Rules        *ruledb.DB
}

func (s Store) check() error {
	if s.Classes == nil || s.Equivalences == nil || s.Rules == nil {
		return ErrNilStore
	}

	return nil
}

// Option configures a Prover.
type Option func(*Options)

// Options holds Prover parameters.
type Options struct {
	// Ctx is checked once per class processed.
	Ctx context.Context

	// MaxSteps bounds the number of classes processed by solving and
	// extraction together. Zero means unlimited.
	MaxSteps int

	// Tracer receives one span per Extract.
	Tracer trace.Tracer

	err error
}

// DefaultOptions returns background context, no step limit and the global tracer.
func DefaultOptions() Options {
	return Options{
		Ctx:    context.Background(),
		Tracer: otel.Tracer("github.com/katalvlaran/combspec/spec"),
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

// WithMaxSteps bounds the work done; n must be >= 0.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = errors.Wrapf(ErrOptionViolation, "MaxSteps must be >= 0, got %d", n)

			return
		}
		o.MaxSteps = n
	}
}

// WithTracer sets the tracer used for extraction spans. A nil tracer is ignored.
func WithTracer(t trace.Tracer) Option {
	return func(o *Options) {
		if t != nil {
			o.Tracer = t
		}
	}
}

// Node is one step of a specification tree.
//
// InClass is the class the parent's rule produced; OutClass is the
// equivalent class the rule at this node is applied to (or that is
// verified). Explanations is the chain of equivalence steps from InClass
// to OutClass. Exactly one of the following holds: the node has children,
// Verified is set, or Recursive is set.
type Node struct {
	InClass      core.Class
	OutClass     core.Class
	InLabel      core.Label
	OutLabel     core.Label
	Explanations []string

	// FormalStep names the rule applied, the verification, or "recursion".
	FormalStep  string
	Constructor core.Constructor
	Children    []*Node
	BackMaps    []ruledb.BackMap

	Verified bool

	// Recursive leaves point at a strict ancestor; AncestorDepth is that
	// ancestor's depth below the root (root = 0).
	Recursive     bool
	Ancestor      *Node
	AncestorDepth int
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Specification is a read-only proof tree rooted at Root.
type Specification struct {
	Root *Node
}

// RecursionStep is the formal step recorded on recursive leaves.
const RecursionStep = "recursion"
