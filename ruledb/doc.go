// Package ruledb stores discovered rules as directed hyperedges
// start -> (end1, ..., endk) between class labels.
//
// Ends are kept sorted, so two rules that differ only in child order are
// the same hyperedge. Back-maps (opaque per-child correspondences supplied
// by a generator) are permuted alongside the ends. Each hyperedge remembers
// the sequence number of its first insertion; All and Ends iterate in that
// order, which is what makes extraction deterministic.
//
// Adding an existing hyperedge again replaces its explanation, constructor
// and back-maps but keeps its sequence number.
//
// Errors:
//
//	core.ErrType    - negative label, arity that does not fit the constructor,
//	                  or back-maps that do not match the children.
//	ErrUnknownRule  - Remove or a lookup of a hyperedge that is not stored.
package ruledb
