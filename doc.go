// Package combspec searches for combinatorial specifications: finite,
// well-founded derivations that express an unbounded combinatorial class
// exactly in terms of elementary building blocks.
//
// What is in the box?
//
//	A single-threaded search engine, driven by a caller-supplied strategy pack:
//		• Class, equivalence and rule stores with stable integer labels
//		• Breadth-first and iterative-deepening expansion
//		• Specification existence and extraction as a proof tree
//		• Generating-function equations checked against brute-force counts
//		• Isomorphism of specifications and the induced bijection
//
// Packages:
//
//	core/        labels, classes, constructors & shared error kinds
//	classdb/     class ↔ label interning and per-class flags
//	equivdb/     union-find of equivalent classes with explanations
//	ruledb/      hyperedges start → ends with constructor & back-maps
//	spec/        existence check, extraction, JSON (de)serialization
//	searcher/    expansion engine, strategy packs, config, metrics, tracing
//	genf/        equation systems, power-series algebra, validation
//	isomorphism/ matching two specifications and mapping objects
//	batch/       many independent searches in parallel
//	words/       a small worked domain: words over a finite alphabet
//
// Quick example:
//
//	s, _ := searcher.New(words.Words{Alphabet: "ab"}, words.Pack())
//	out, _ := s.Search(ctx)
//	// words(ab): empty or not
//	//   eps: the empty word
//	//   nonempty(ab): first letter
//	//     words(ab): recursion
//	//     letters(ab): 2 single letters
//
// See each subpackage's doc.go for usage and guarantees.
package combspec
