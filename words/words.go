package words

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/searcher"
)

// canonical sorts and dedupes the letters of an alphabet.
func canonical(alphabet string) string {
	rs := []rune(alphabet)
	slices.Sort(rs)

	return string(slices.Compact(rs))
}

// Epsilon holds only the empty word.
type Epsilon struct{}

// Key implements core.Class.
func (Epsilon) Key() string { return "eps" }

// Nothing holds no words.
type Nothing struct{}

// Key implements core.Class.
func (Nothing) Key() string { return "nothing" }

// Letters holds the one-letter words over Alphabet.
type Letters struct{ Alphabet string }

// Key implements core.Class.
func (c Letters) Key() string { return "letters(" + canonical(c.Alphabet) + ")" }

// Words holds every word over Alphabet.
type Words struct{ Alphabet string }

// Key implements core.Class.
func (c Words) Key() string { return "words(" + canonical(c.Alphabet) + ")" }

// NonEmpty holds every non-empty word over Alphabet.
type NonEmpty struct{ Alphabet string }

// Key implements core.Class.
func (c NonEmpty) Key() string { return "nonempty(" + canonical(c.Alphabet) + ")" }

// Reversed holds the reversals of the words of Inner.
type Reversed struct{ Inner core.Class }

// Key implements core.Class.
func (c Reversed) Key() string { return "reversed(" + c.Inner.Key() + ")" }

// Pack returns the strategy pack described in the package documentation.
func Pack() searcher.Pack {
	return searcher.Pack{
		Name: "words",
		Equivalence: []searcher.Generator{
			{Name: "unreverse", Apply: unreverse},
		},
		Batch: []searcher.Generator{
			{Name: "empty or not", Apply: emptyOrNot},
		},
		Decomposition: []searcher.Generator{
			{Name: "first letter", Apply: firstLetter},
		},
		Verification: []searcher.Generator{
			{Name: "base classes", Apply: verify},
		},
		IsEmpty: IsEmpty,
	}
}

func unreverse(c core.Class, _ searcher.Env) ([]searcher.Result, error) {
	r, ok := c.(Reversed)
	if !ok {
		return nil, nil
	}
	switch r.Inner.(type) {
	case Words, Epsilon, Letters, Nothing, NonEmpty:
		return []searcher.Result{searcher.Equivalent("reverse every word", r.Inner)}, nil
	case Reversed:
		return []searcher.Result{searcher.Equivalent("reverse twice", r.Inner.(Reversed).Inner)}, nil
	default:
		return nil, errors.Errorf("words: cannot reverse %q", r.Inner.Key())
	}
}

func emptyOrNot(c core.Class, _ searcher.Env) ([]searcher.Result, error) {
	w, ok := c.(Words)
	if !ok {
		return nil, nil
	}

	return []searcher.Result{
		searcher.Union("empty or not", Epsilon{}, NonEmpty{Alphabet: canonical(w.Alphabet)}),
	}, nil
}

func firstLetter(c core.Class, _ searcher.Env) ([]searcher.Result, error) {
	ne, ok := c.(NonEmpty)
	if !ok {
		return nil, nil
	}
	a := canonical(ne.Alphabet)

	return []searcher.Result{
		searcher.Decompose("first letter", Letters{Alphabet: a}, Words{Alphabet: a}),
	}, nil
}

func verify(c core.Class, _ searcher.Env) ([]searcher.Result, error) {
	switch c := c.(type) {
	case Epsilon:
		return []searcher.Result{searcher.Verified("the empty word")}, nil
	case Letters:
		return []searcher.Result{searcher.Verified(fmt.Sprintf("%d single letters", len(canonical(c.Alphabet))))}, nil
	default:
		return nil, nil
	}
}

// IsEmpty reports whether c has no words.
func IsEmpty(c core.Class) (bool, error) {
	switch c := c.(type) {
	case Nothing:
		return true, nil
	case Letters:
		return canonical(c.Alphabet) == "", nil
	case NonEmpty:
		return canonical(c.Alphabet) == "", nil
	case Reversed:
		return IsEmpty(c.Inner)
	case Epsilon, Words:
		return false, nil
	default:
		return false, errors.Errorf("words: unknown class %T", c)
	}
}

// ClosedForm returns the generating function of a base class as text.
func ClosedForm(c core.Class) (string, bool) {
	switch c := c.(type) {
	case Epsilon:
		return "1", true
	case Nothing:
		return "0", true
	case Letters:
		return fmt.Sprintf("%d*x", len(canonical(c.Alphabet))), true
	case Words:
		return fmt.Sprintf("1/(1-%d*x)", len(canonical(c.Alphabet))), true
	default:
		return "", false
	}
}

// Enumerator lists the words of a class by length.
type Enumerator struct{}

// ObjectsOfSize returns the words of c with n letters, in lexicographic order.
func (Enumerator) ObjectsOfSize(c core.Class, n int) ([]core.Object, error) {
	ws, err := wordsOfSize(c, n)
	if err != nil {
		return nil, err
	}
	out := make([]core.Object, len(ws))
	for i, w := range ws {
		out[i] = w
	}

	return out, nil
}

func wordsOfSize(c core.Class, n int) ([]string, error) {
	if n < 0 {
		return nil, errors.Wrapf(core.ErrType, "negative size %d", n)
	}
	switch c := c.(type) {
	case Epsilon:
		if n == 0 {
			return []string{""}, nil
		}

		return nil, nil
	case Nothing:
		return nil, nil
	case Letters:
		if n != 1 {
			return nil, nil
		}

		return strings.Split(canonical(c.Alphabet), ""), nil
	case Words:
		return all(canonical(c.Alphabet), n), nil
	case NonEmpty:
		if n == 0 {
			return nil, nil
		}

		return all(canonical(c.Alphabet), n), nil
	case Reversed:
		inner, err := wordsOfSize(c.Inner, n)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(inner))
		for i, w := range inner {
			out[i] = Reverse(w)
		}
		slices.Sort(out)

		return out, nil
	default:
		return nil, errors.Wrapf(core.ErrUnknown, "words: class %T", c)
	}
}

func all(alphabet string, n int) []string {
	if alphabet == "" {
		if n == 0 {
			return []string{""}
		}

		return nil
	}
	out := []string{""}
	for i := 0; i < n; i++ {
		next := make([]string, 0, len(out)*len(alphabet))
		for _, w := range out {
			for _, r := range alphabet {
				next = append(next, w+string(r))
			}
		}
		out = next
	}

	return out
}

// Reverse returns w with its letters in reverse order.
func Reverse(w string) string {
	rs := []rune(w)
	slices.Reverse(rs)

	return string(rs)
}
