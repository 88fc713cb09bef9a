// Package core defines the primitives shared by every stage of a
// combinatorial specification search: labels, classes, objects, rule
// constructors and the error kinds surfaced at API boundaries.
//
// A search never inspects a class beyond its canonical key. Two classes
// whose Key() values are equal are the same search node; everything else
// about a class is owned by the caller's strategy pack.
//
// Types:
//
//	Label        - dense non-negative integer naming an interned class (NoLabel = -1).
//	Class        - opaque caller value with a canonical Key().
//	Object       - opaque element of a class (used only by collaborators).
//	Constructor  - how a rule's children combine: Equivalence, DisjointUnion, Decomposition.
//	Named        - string-backed Class for fixtures and simple hosts.
//
// Errors:
//
//	ErrType          - a value of the wrong shape crossed an API boundary.
//	ErrUnknown       - a class or label was never interned.
//	ErrNotEquivalent - an explanation was requested between unrelated labels.
//	ErrExhausted     - the search ran out of classes without a specification.
//	ErrUnsoundRule   - a derived artefact disagrees with brute force or breaks a tree invariant.
//
// Every package wraps these sentinels with context (github.com/pkg/errors),
// so callers test them with errors.Is.
package core
