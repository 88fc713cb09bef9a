// Package words is a small, complete strategy pack over words on a finite
// alphabet. It drives the examples and end-to-end tests of the search,
// derivation and matching packages.
//
// Classes:
//
//	Epsilon{}            the empty word only               1
//	Letters{"ab"}        one-letter words                  k*x
//	Words{"ab"}          all words                         1/(1-k*x)
//	NonEmpty{"ab"}       words of length >= 1              k*x/(1-k*x)
//	Reversed{C}          the words of C, reversed          same as C
//	Nothing{}            no words at all                   0
//
// Alphabets are canonical (sorted, duplicate-free), so Words{"ba"} and
// Words{"ab"} are the same class.
//
// Pack() proves Words with the rules
//
//	Words    = Epsilon + NonEmpty            (batch: "empty or not")
//	NonEmpty = Letters x Words               (decomposition: "first letter")
//	Reversed{C} == C                         (equivalence: "reverse every word")
//
// and verifies Epsilon and Letters. Enumerator lists the objects of every
// class by size, and ClosedForm gives the generating function of each base
// class as text.
package words
