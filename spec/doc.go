// Package spec decides whether a class has a combinatorial specification
// and extracts one as a proof tree.
//
// What:
//
//	The rules found by a search form an AND/OR hypergraph over equivalence
//	classes: a class is satisfied if it is verified, or if some rule leaving
//	it has only satisfied children. Recursion is allowed, so a child may be
//	a class that is still open on the current path. Such a back-reference is
//	only accepted when the cycle it closes passes through a rule with at
//	least two children, one of which is satisfied without any rule path back
//	to the rule's start. A cycle of single-child rules (R -> R) describes
//	nothing, and R -> (R, R) has no base case; both are rejected.
//
// How:
//
//	Prover snapshots ClassDB, EquivalenceDB and RuleDB and solves the
//	hypergraph once as a nested fixpoint:
//
//	  Z := all classes
//	  repeat
//	    rank 0  : verified classes and classes with a progressing rule into Z
//	    rank r+1: classes with a single-child rule into ranks <= r
//	    Z := classes that received a rank
//	  until Z is stable
//
//	A class has a specification iff its equivalence root is in Z. The rank
//	table is the memo: Extract walks depth-first from the root, threading the
//	set of classes open on the path, and only follows rules that keep the
//	walk winning (progressing rules into Z, or single-child rules to a lower
//	rank). Children already open on the path become recursive leaves.
//
//	A rule progresses when it has at least two children, all in Z, and one
//	of them cannot reach its start class through rules of non-verified
//	classes. That child is never open when the rule is applied, so every
//	extracted tree ends in at least one verified leaf.
//
// Tie-break:
//
//	Among allowed rules Extract prefers one whose children are all open on
//	the path or verified (no new subtrees), then the rule discovered first.
//	Output is therefore deterministic for a given search history.
//
// Serialization:
//
//	Marshal/Unmarshal convert a Specification to a JSON tree of records
//	{formal_step, in_class, out_class, explanations, constructor, verified,
//	recurse, ancestor, children}. Classes go through a caller Codec. A
//	marshal -> unmarshal -> marshal round trip is byte-identical.
//
// Errors:
//
//	ErrNoSpecification  - the root class has no specification.
//	ErrBudgetExceeded   - MaxSteps or the context stopped the walk.
//	ErrOptionViolation  - an invalid Option was supplied.
//	ErrNilStore         - a Store field is nil.
//	core.ErrUnknown     - the queried label was never interned.
//	core.ErrUnsoundRule - Validate found a broken tree invariant.
package spec
