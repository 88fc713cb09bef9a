// Package isomorphism decides whether two specifications describe the same
// recursive structure and turns a successful match into a bijection.
//
// Match walks both trees together. Two expanded nodes match when their
// constructors and arities agree and some permutation of the second node's
// children matches the first node's children pairwise; verified leaves are
// compared by a pluggable atom comparator (class key equality by default).
// A recursive leaf stands for its ancestor, and a pair of nodes already
// being compared higher up the path counts as matched, so a recursion may
// be matched against an unrolled copy of itself.
//
// The permutation search is depth-first: children of the first node are
// assigned in order, candidates of the second are tried lowest index first,
// and a failed child pairing is never retried for the same parents.
//
//	res, err := isomorphism.Match(a, b, isomorphism.WithMaxSteps(10_000))
//	if err == nil && res.Isomorphic {
//		bj, _ := isomorphism.NewBijection(res, maps)
//		out, _ := bj.Map(obj)
//	}
package isomorphism
