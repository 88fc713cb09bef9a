package searcher

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/ruledb"
)

// Slot names one of the five generator slots of a Pack.
type Slot int

const (
	// SlotEquivalence generators return Equivalent results.
	SlotEquivalence Slot = iota
	// SlotBatch generators return Union results.
	SlotBatch
	// SlotInferral generators return Inferred results.
	SlotInferral
	// SlotDecomposition generators return Decompose results.
	SlotDecomposition
	// SlotVerification generators return Verified results.
	SlotVerification
)

var slotNames = [...]string{"equivalence", "batch", "inferral", "decomposition", "verification"}

// String returns the slot name used in logs and metric labels.
func (s Slot) String() string {
	if s < 0 || int(s) >= len(slotNames) {
		return fmt.Sprintf("slot(%d)", int(s))
	}

	return slotNames[s]
}

// Env is passed to every generator call.
type Env struct {
	// Root is the class the search started from.
	Root core.Class
	// Params are the root's defining parameters (e.g. a basis).
	Params map[string]any
	// Pass is the index of the pack layer being applied.
	Pass int
}

// Generator produces rules for one class.
type Generator struct {
	Name  string
	Apply func(c core.Class, env Env) ([]Result, error)
}

// Symmetry maps a class onto a class with the same counting sequence.
type Symmetry struct {
	Name  string
	Apply func(c core.Class) (core.Class, error)
}

// Pack is a caller strategy pack: ordered generators per slot, optional
// symmetries and an emptiness test.
type Pack struct {
	Name string

	Equivalence   []Generator
	Batch         []Generator
	Inferral      []Generator
	Decomposition []Generator
	Verification  []Generator

	Symmetries []Symmetry

	// IsEmpty reports whether a class has no objects at all. Optional.
	IsEmpty func(c core.Class) (bool, error)
}

func (p *Pack) slot(s Slot) []Generator {
	switch s {
	case SlotEquivalence:
		return p.Equivalence
	case SlotBatch:
		return p.Batch
	case SlotInferral:
		return p.Inferral
	case SlotDecomposition:
		return p.Decomposition
	case SlotVerification:
		return p.Verification
	default:
		return nil
	}
}

func (p *Pack) isZero() bool {
	return len(p.Equivalence)+len(p.Batch)+len(p.Inferral)+len(p.Decomposition)+len(p.Verification)+len(p.Symmetries) == 0
}

// Kind tags the shape of a Result.
type Kind int

const (
	// KindEquivalent is a bijection with one child.
	KindEquivalent Kind = iota
	// KindInferred rewrites a class as a single simpler class.
	KindInferred
	// KindUnion splits a class into disjoint parts.
	KindUnion
	// KindDecomposition expresses a class as a product of parts.
	KindDecomposition
	// KindVerified says the class is fully understood.
	KindVerified
)

// slotKind is the only Kind each slot may return.
var slotKind = [...]Kind{
	SlotEquivalence:   KindEquivalent,
	SlotBatch:         KindUnion,
	SlotInferral:      KindInferred,
	SlotDecomposition: KindDecomposition,
	SlotVerification:  KindVerified,
}

// Result is one rule proposed by a generator. Build it with Equivalent,
// Inferred, Union, Decompose or Verified.
type Result struct {
	kind     Kind
	step     string
	children []core.Class
	backMaps []ruledb.BackMap
}

// Equivalent proposes c == child.
func Equivalent(step string, child core.Class) Result {
	return Result{kind: KindEquivalent, step: step, children: []core.Class{child}}
}

// Inferred proposes c -> (child) as a one-part disjoint union.
func Inferred(step string, child core.Class) Result {
	return Result{kind: KindInferred, step: step, children: []core.Class{child}}
}

// Union proposes c as the disjoint union of children.
func Union(step string, children ...core.Class) Result {
	return Result{kind: KindUnion, step: step, children: children}
}

// Decompose proposes c as the product of children.
func Decompose(step string, children ...core.Class) Result {
	return Result{kind: KindDecomposition, step: step, children: children}
}

// Verified proposes that c is fully understood.
func Verified(step string) Result {
	return Result{kind: KindVerified, step: step}
}

// WithBackMaps attaches one back-map per child.
func (r Result) WithBackMaps(maps ...ruledb.BackMap) Result {
	r.backMaps = maps

	return r
}

// Kind returns the result shape.
func (r Result) Kind() Kind { return r.kind }

// Step returns the formal step.
func (r Result) Step() string { return r.step }

// Children returns the proposed child classes.
func (r Result) Children() []core.Class { return r.children }

// check validates r against the slot it came from.
func (r Result) check(s Slot) error {
	if want := slotKind[s]; r.kind != want {
		return errors.Wrapf(core.ErrType, "%s slot returned result kind %d", s, r.kind)
	}
	for i, c := range r.children {
		if c == nil {
			return errors.Wrapf(core.ErrType, "child %d of %q is nil", i, r.step)
		}
	}
	if r.backMaps != nil && len(r.backMaps) != len(r.children) {
		return errors.Wrapf(core.ErrType, "%q has %d back-maps for %d children", r.step, len(r.backMaps), len(r.children))
	}
	switch r.kind {
	case KindUnion:
		if len(r.children) < 2 {
			return errors.Wrapf(core.ErrType, "union %q needs at least two children", r.step)
		}
	case KindDecomposition:
		if len(r.children) < 2 {
			return errors.Wrapf(core.ErrType, "decomposition %q needs at least two children", r.step)
		}
	case KindVerified:
		if len(r.children) != 0 {
			return errors.Wrapf(core.ErrType, "verification %q has children", r.step)
		}
	}

	return nil
}
