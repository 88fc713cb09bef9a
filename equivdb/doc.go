// Package equivdb tracks which class labels are known to be in bijection.
//
// What:
//
//	A union-find forest over labels with path compression and union by
//	weight (set size). Labels never seen before are implicit singletons.
//	Every Union also records an explanation edge between the two labels it
//	was called with, so a chain of human-readable reasons can be produced
//	for any two members of the same class.
//
// Verification:
//
//	Verification is a property of the whole equivalence class. SetVerified
//	marks the class of a label; Union of a verified class with anything
//	yields a verified class. Verification is never lost.
//
// Explanation paths:
//
//	ExplanationPath(a, b) runs a breadth-first search over the recorded
//	explanation edges and returns the shortest chain of labels a..b.
//	Reverse directions are derived from the forward explanation.
//
// Complexity:
//
//	Find / Union / IsEquivalent: amortized O(α(n)).
//	EquivalentSet: O(n).  ExplanationPath: O(V+E) of the class.
//
// Errors:
//
//	core.ErrType          - a negative label.
//	core.ErrNotEquivalent - an explanation requested across classes.
package equivdb
