package spec

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/katalvlaran/combspec/classdb"
	"github.com/katalvlaran/combspec/core"
)

// Extract returns a specification for root from store.
//
// Complexity: the NewProver cost, plus O(S·k) to build a tree of S nodes
// whose rules have at most k children.
//
// Error Conditions:
//   - Any NewProver error.
//   - core.ErrUnknown if root was never interned.
//   - ErrNoSpecification if root has no specification.
//   - ErrBudgetExceeded if MaxSteps or the context stops the build.
//   - core.ErrNotEquivalent if an equivalence step cannot be explained.
func Extract(store Store, root core.Label, opts ...Option) (*Specification, error) {
	p, err := NewProver(store, opts...)
	if err != nil {
		return nil, err
	}

	return p.Extract(root)
}

// extractor carries the path state of one Extract call.
type extractor struct {
	p *Prover
	// open maps an equivalence root to the node currently expanding it.
	open  map[core.Label]*Node
	depth map[*Node]int
}

// Extract builds the proof tree for root from the solved snapshot.
func (p *Prover) Extract(root core.Label) (*Specification, error) {
	_, span := p.opts.Tracer.Start(p.opts.Ctx, "spec.Extract")
	defer span.End()
	span.SetAttributes(attribute.Int("root", int(root)))

	ok, err := p.Has(root)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}
	if !ok {
		span.SetStatus(codes.Error, "no specification")

		return nil, errors.Wrapf(ErrNoSpecification, "label %d", root)
	}

	x := &extractor{
		p:     p,
		open:  make(map[core.Label]*Node),
		depth: make(map[*Node]int),
	}
	node, err := x.build(root, 0)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}
	s := &Specification{Root: node}
	span.SetAttributes(
		attribute.Int("nodes", s.Size()),
		attribute.Int("depth", s.Depth()),
	)

	return s, nil
}

// build expands the class reached as in at the given depth.
//
// Steps:
//  1. Verified class: emit a verified leaf.
//  2. Pick an allowed rule: first one whose children are all open or
//     verified, else the first discovered.
//  3. Open the class, then for each child emit a recursive leaf if the
//     child is open on the path, otherwise recurse.
func (x *extractor) build(in core.Label, depth int) (*Node, error) {
	p := x.p
	if err := p.tick(); err != nil {
		return nil, err
	}
	v, err := p.store.Equivalences.Find(in)
	if err != nil {
		return nil, err
	}
	inClass, err := p.store.Classes.Class(in)
	if err != nil {
		return nil, err
	}

	// 1. Verified leaf.
	if p.verified[v] || p.store.Equivalences.IsVerified(v) {
		return x.verifiedLeaf(in, inClass, v)
	}

	// 2. Choose a rule.
	edges := p.allowed(v)
	if len(edges) == 0 {
		return nil, errors.Wrapf(ErrNoSpecification, "label %d has no usable rule", in)
	}
	chosen := edges[0]
	for _, e := range edges {
		if x.closes(v, e) {
			chosen = e

			break
		}
	}

	// 3. Expand.
	node := &Node{
		InClass:     inClass,
		InLabel:     in,
		OutLabel:    chosen.rule.Start,
		FormalStep:  chosen.rule.Explanation,
		Constructor: chosen.rule.Constructor,
		BackMaps:    chosen.rule.BackMaps,
	}
	if node.OutClass, err = p.store.Classes.Class(chosen.rule.Start); err != nil {
		return nil, err
	}
	if node.Explanations, err = x.explain(in, chosen.rule.Start); err != nil {
		return nil, err
	}
	x.open[v] = node
	x.depth[node] = depth
	defer delete(x.open, v)

	node.Children = make([]*Node, 0, len(chosen.rule.Ends))
	for i, end := range chosen.rule.Ends {
		if anc, ok := x.open[chosen.children[i]]; ok {
			leaf, err := x.recursiveLeaf(end, anc)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, leaf)

			continue
		}
		child, err := x.build(end, depth+1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

// closes reports whether e, applied at v, opens no new subtree.
func (x *extractor) closes(v core.Label, e *hyperedge) bool {
	for _, c := range e.children {
		if _, open := x.open[c]; open || c == v {
			continue
		}
		if x.p.verified[c] {
			continue
		}

		return false
	}

	return true
}

func (x *extractor) explain(from, to core.Label) ([]string, error) {
	steps, err := x.p.store.Equivalences.Explain(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.String()
	}

	return out, nil
}

// verifiedLeaf picks the member of v's class that carries the verification,
// preferring strategy verifications and the label itself.
func (x *extractor) verifiedLeaf(in core.Label, inClass core.Class, v core.Label) (*Node, error) {
	cdb := x.p.store.Classes
	leaf := &Node{
		InClass:    inClass,
		OutClass:   inClass,
		InLabel:    in,
		OutLabel:   in,
		FormalStep: "verified",
		Verified:   true,
	}

	members, err := x.p.store.Equivalences.EquivalentSet(v)
	if err != nil {
		return nil, err
	}
	candidates := append([]core.Label{in}, members...)
	pick := core.NoLabel
	for _, strategyOnly := range []bool{true, false} {
		for _, m := range candidates {
			if !cdb.IsVerified(m) {
				continue
			}
			if strategyOnly && !cdb.Has(m, classdb.StrategyVerified) {
				continue
			}
			pick = m

			break
		}
		if pick != core.NoLabel {
			break
		}
	}
	if pick == core.NoLabel {
		return leaf, nil
	}

	leaf.OutLabel = pick
	leaf.FormalStep, _ = cdb.Verification(pick)
	if leaf.OutClass, err = cdb.Class(pick); err != nil {
		return nil, err
	}
	if leaf.Explanations, err = x.explain(in, pick); err != nil {
		return nil, err
	}

	return leaf, nil
}

func (x *extractor) recursiveLeaf(in core.Label, anc *Node) (*Node, error) {
	inClass, err := x.p.store.Classes.Class(in)
	if err != nil {
		return nil, err
	}
	expl, err := x.explain(in, anc.OutLabel)
	if err != nil {
		return nil, err
	}

	return &Node{
		InClass:       inClass,
		OutClass:      anc.OutClass,
		InLabel:       in,
		OutLabel:      anc.OutLabel,
		Explanations:  expl,
		FormalStep:    RecursionStep,
		Recursive:     true,
		Ancestor:      anc,
		AncestorDepth: x.depth[anc],
	}, nil
}
