package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel errors shared by all packages.
var (
	// ErrType indicates a caller passed a value of the wrong shape.
	ErrType = errors.New("core: value has the wrong shape")

	// ErrUnknown indicates a class or label that was never interned.
	ErrUnknown = errors.New("core: unknown class or label")

	// ErrNotEquivalent indicates two labels are not in the same equivalence class.
	ErrNotEquivalent = errors.New("core: labels are not equivalent")

	// ErrExhausted indicates a search ran out of classes without finding a specification.
	ErrExhausted = errors.New("core: search exhausted without a specification")

	// ErrUnsoundRule indicates a caller rule produced an inconsistent result.
	ErrUnsoundRule = errors.New("core: unsound rule")
)

// Label is the dense integer identifier of an interned class.
type Label int

// NoLabel marks a node that carries no search label (e.g. a decoded specification).
const NoLabel Label = -1

// Valid reports whether l can name an interned class.
func (l Label) Valid() bool { return l >= 0 }

// Class is an opaque combinatorial class supplied by the caller.
//
// Key must be canonical: equal classes return equal keys and distinct
// classes return distinct keys. Keys are used for interning and hashing only.
type Class interface {
	Key() string
}

// Object is an element of a class. The engine never looks inside one.
type Object any

// Named is a Class identified by its own string value.
type Named string

// Key implements Class.
func (n Named) Key() string { return string(n) }

// String implements fmt.Stringer.
func (n Named) String() string { return string(n) }

// KeyOf returns c.Key(), or ErrType when c is nil.
func KeyOf(c Class) (string, error) {
	if c == nil {
		return "", errors.Wrap(ErrType, "nil class")
	}

	return c.Key(), nil
}

// CheckLabels returns ErrType naming the first negative label.
func CheckLabels(labels ...Label) error {
	for _, l := range labels {
		if !l.Valid() {
			return errors.Wrapf(ErrType, "label %d is negative", l)
		}
	}

	return nil
}

// Constructor says how the children of a rule combine into its start class.
type Constructor int

const (
	// Equivalence is a bijection with exactly one child.
	Equivalence Constructor = iota
	// DisjointUnion splits a class into one or more disjoint parts.
	DisjointUnion
	// Decomposition expresses a class as a product of two or more parts.
	Decomposition
)

var constructorNames = [...]string{
	Equivalence:   "equivalence",
	DisjointUnion: "disjoint_union",
	Decomposition: "decomposition",
}

// String returns the wire name of c.
func (c Constructor) String() string {
	if c < 0 || int(c) >= len(constructorNames) {
		return fmt.Sprintf("constructor(%d)", int(c))
	}

	return constructorNames[c]
}

// Valid reports whether c is a known constructor.
func (c Constructor) Valid() bool {
	return c >= Equivalence && c <= Decomposition
}

// CheckArity validates the number of children a rule of kind c may have.
func (c Constructor) CheckArity(n int) error {
	switch c {
	case Equivalence:
		if n != 1 {
			return errors.Wrapf(ErrType, "equivalence rule needs exactly one child, got %d", n)
		}
	case DisjointUnion:
		if n < 1 {
			return errors.Wrap(ErrType, "disjoint union rule needs at least one child")
		}
	case Decomposition:
		if n < 2 {
			return errors.Wrapf(ErrType, "decomposition rule needs at least two children, got %d", n)
		}
	default:
		return errors.Wrapf(ErrType, "unknown constructor %d", int(c))
	}

	return nil
}

// ParseConstructor is the inverse of Constructor.String.
func ParseConstructor(s string) (Constructor, error) {
	for i, name := range constructorNames {
		if strings.EqualFold(name, s) {
			return Constructor(i), nil
		}
	}

	return 0, errors.Wrapf(ErrType, "unknown constructor %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Constructor) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.Wrapf(ErrType, "unknown constructor %d", int(c))
	}

	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Constructor) UnmarshalText(b []byte) error {
	parsed, err := ParseConstructor(string(b))
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}
