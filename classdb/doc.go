// Package classdb interns combinatorial classes as dense integer labels and
// keeps per-class search bookkeeping.
//
// What:
//
//	A DB maps each distinct class (by canonical Key) to a Label 0,1,2,...
//	in order of first insertion, and back again. Alongside every label it
//	stores the expansion counter, the monotone search flags, the optional
//	verification explanation and a tri-state emptiness marker.
//
// Flags:
//
//	Expandable              - some strategy applies to the class at all.
//	SymmetryExpanded        - symmetries of the class have been interned.
//	EquivalentExpanded      - the equivalence slot has been closed over it.
//	ExpandingOtherSymmetry  - the class is being expanded via a symmetric partner.
//	StrategyVerified        - the class was verified by a verification rule
//	                          (not by being empty or by inheritance).
//	InferralExpanded        - the inferral slot has been applied.
//
// Flags and verification only change through explicit setter calls.
//
// Complexity:
//
//	Intern, Label, Class and every flag accessor are O(1) amortized.
//	VerifiedLabels / EmptyLabels iterate O(n) over all labels.
//
// A DB is owned by one search and is not safe for concurrent use.
package classdb
