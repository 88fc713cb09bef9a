package classdb

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
)

// Flag names one monotone boolean kept per class.
type Flag uint8

const (
	// Expandable marks a class some strategy could expand.
	Expandable Flag = 1 << iota
	// SymmetryExpanded marks a class whose symmetries were interned.
	SymmetryExpanded
	// EquivalentExpanded marks a class closed under the equivalence slot.
	EquivalentExpanded
	// ExpandingOtherSymmetry marks a class expanded through a symmetric partner.
	ExpandingOtherSymmetry
	// StrategyVerified marks a class verified by a verification rule.
	StrategyVerified
	// InferralExpanded marks a class the inferral slot was applied to.
	InferralExpanded
)

// emptiness is the tri-state empty marker.
type emptiness uint8

const (
	emptyUnknown emptiness = iota
	emptyYes
	emptyNo
)

// record is the per-label bookkeeping.
type record struct {
	class       core.Class
	expansions  int
	flags       Flag
	verified    bool
	explanation string
	empty       emptiness
}

// DB interns classes and stores per-class search state.
type DB struct {
	byKey   map[string]core.Label
	records []record
}

// New returns an empty DB.
func New() *DB {
	return &DB{byKey: make(map[string]core.Label)}
}

// Len returns the number of interned classes.
func (db *DB) Len() int { return len(db.records) }

// Intern adds c if it is new and returns its label.
// added is true only on the first call for a given key.
func (db *DB) Intern(c core.Class) (l core.Label, added bool, err error) {
	key, err := core.KeyOf(c)
	if err != nil {
		return core.NoLabel, false, err
	}
	if l, ok := db.byKey[key]; ok {
		return l, false, nil
	}
	l = core.Label(len(db.records))
	db.records = append(db.records, record{class: c})
	db.byKey[key] = l

	return l, true, nil
}

// Contains reports whether c has been interned.
func (db *DB) Contains(c core.Class) bool {
	if c == nil {
		return false
	}
	_, ok := db.byKey[c.Key()]

	return ok
}

// Label returns the label of an interned class.
func (db *DB) Label(c core.Class) (core.Label, error) {
	key, err := core.KeyOf(c)
	if err != nil {
		return core.NoLabel, err
	}
	l, ok := db.byKey[key]
	if !ok {
		return core.NoLabel, errors.Wrapf(core.ErrUnknown, "class %q", key)
	}

	return l, nil
}

// Class returns the class interned under l.
func (db *DB) Class(l core.Label) (core.Class, error) {
	r, err := db.record(l)
	if err != nil {
		return nil, err
	}

	return r.class, nil
}

// MustClass is Class for labels the caller obtained from this DB.
func (db *DB) MustClass(l core.Label) core.Class {
	c, err := db.Class(l)
	if err != nil {
		panic(err)
	}

	return c
}

func (db *DB) record(l core.Label) (*record, error) {
	if err := core.CheckLabels(l); err != nil {
		return nil, err
	}
	if int(l) >= len(db.records) {
		return nil, errors.Wrapf(core.ErrUnknown, "label %d", l)
	}

	return &db.records[l], nil
}

// IncrementExpansions bumps the expansion counter of l.
func (db *DB) IncrementExpansions(l core.Label) error {
	r, err := db.record(l)
	if err != nil {
		return err
	}
	r.expansions++

	return nil
}

// Expansions returns how many expansion passes l has received.
func (db *DB) Expansions(l core.Label) int {
	r, err := db.record(l)
	if err != nil {
		return 0
	}

	return r.expansions
}

// Set raises flag f on l.
func (db *DB) Set(l core.Label, f Flag) error {
	r, err := db.record(l)
	if err != nil {
		return err
	}
	r.flags |= f

	return nil
}

// Clear lowers flag f on l.
func (db *DB) Clear(l core.Label, f Flag) error {
	r, err := db.record(l)
	if err != nil {
		return err
	}
	r.flags &^= f

	return nil
}

// Has reports whether every bit of f is set on l. Unknown labels report false.
func (db *DB) Has(l core.Label, f Flag) bool {
	r, err := db.record(l)
	if err != nil {
		return false
	}

	return r.flags&f == f
}

// SetVerified records that l is fully understood, with a human-readable reason.
// The first explanation wins; later calls only keep the class verified.
func (db *DB) SetVerified(l core.Label, explanation string) error {
	r, err := db.record(l)
	if err != nil {
		return err
	}
	if !r.verified {
		r.verified = true
		r.explanation = explanation
	}

	return nil
}

// Verification returns the verification explanation of l, if any.
func (db *DB) Verification(l core.Label) (string, bool) {
	r, err := db.record(l)
	if err != nil || !r.verified {
		return "", false
	}

	return r.explanation, true
}

// IsVerified reports whether l was verified.
func (db *DB) IsVerified(l core.Label) bool {
	_, ok := db.Verification(l)

	return ok
}

// SetEmpty records whether l contains no objects.
func (db *DB) SetEmpty(l core.Label, empty bool) error {
	r, err := db.record(l)
	if err != nil {
		return err
	}
	if empty {
		r.empty = emptyYes
	} else {
		r.empty = emptyNo
	}

	return nil
}

// Empty returns the emptiness of l; known is false while undecided.
func (db *DB) Empty(l core.Label) (empty, known bool) {
	r, err := db.record(l)
	if err != nil {
		return false, false
	}
	switch r.empty {
	case emptyYes:
		return true, true
	case emptyNo:
		return false, true
	default:
		return false, false
	}
}

// Labels yields every label in insertion order.
func (db *DB) Labels() iter.Seq[core.Label] {
	n := len(db.records)

	return func(yield func(core.Label) bool) {
		for i := 0; i < n; i++ {
			if !yield(core.Label(i)) {
				return
			}
		}
	}
}

// VerifiedLabels yields labels that carry a verification, in insertion order.
func (db *DB) VerifiedLabels() iter.Seq[core.Label] {
	return db.filter(func(r *record) bool { return r.verified })
}

// EmptyLabels yields labels known to be empty.
func (db *DB) EmptyLabels() iter.Seq[core.Label] {
	return db.filter(func(r *record) bool { return r.empty == emptyYes })
}

// filter snapshots the length so insertions during iteration are not visited.
func (db *DB) filter(keep func(*record) bool) iter.Seq[core.Label] {
	n := len(db.records)

	return func(yield func(core.Label) bool) {
		for i := 0; i < n; i++ {
			if keep(&db.records[i]) && !yield(core.Label(i)) {
				return
			}
		}
	}
}
