package ruledb

import (
	"iter"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
)

// ErrUnknownRule indicates the requested hyperedge is not stored.
var ErrUnknownRule = errors.New("ruledb: unknown rule")

// BackMap is an opaque per-child object correspondence passed through from
// generators to collaborators that build bijections.
type BackMap any

// Rule is a snapshot of one stored hyperedge.
type Rule struct {
	Start       core.Label
	Ends        []core.Label
	Explanation string
	Constructor core.Constructor
	BackMaps    []BackMap
	// Seq is the discovery order of the hyperedge.
	Seq int
}

type entry struct {
	start       core.Label
	ends        []core.Label
	explanation string
	constructor core.Constructor
	backMaps    []BackMap
	seq         int
	removed     bool
}

// DB holds hyperedges keyed by start label and sorted end tuple.
type DB struct {
	byKey   map[string]*entry
	byStart map[core.Label][]*entry
	order   []*entry
	live    int
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		byKey:   make(map[string]*entry),
		byStart: make(map[core.Label][]*entry),
	}
}

// Len returns the number of stored hyperedges.
func (db *DB) Len() int { return db.live }

func key(start core.Label, ends []core.Label) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(start)))
	b.WriteByte('>')
	for i, e := range ends {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(e)))
	}

	return b.String()
}

func sortedEnds(ends []core.Label) []core.Label {
	out := slices.Clone(ends)
	slices.Sort(out)

	return out
}

// Add stores start -> ends. See the package documentation for overwrite rules.
//
// Complexity: O(k log k) to sort k ends, plus O(k) to key and index them.
//
// Error Conditions:
//   - core.ErrType if a label is negative, the arity does not fit c, or
//     backMaps is non-nil with a length other than len(ends). The DB is
//     unchanged then.
func (db *DB) Add(start core.Label, ends []core.Label, explanation string, c core.Constructor, backMaps []BackMap) error {
	// 1. Validate shapes at the boundary.
	if err := core.CheckLabels(start); err != nil {
		return err
	}
	if err := core.CheckLabels(ends...); err != nil {
		return err
	}
	if err := c.CheckArity(len(ends)); err != nil {
		return err
	}
	if backMaps != nil && len(backMaps) != len(ends) {
		return errors.Wrapf(core.ErrType, "%d back-maps for %d children", len(backMaps), len(ends))
	}

	// 2. Sort ends, carrying back-maps along.
	idx := make([]int, len(ends))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return ends[idx[i]] < ends[idx[j]] })
	sorted := make([]core.Label, len(ends))
	var maps []BackMap
	if backMaps != nil {
		maps = make([]BackMap, len(ends))
	}
	for i, from := range idx {
		sorted[i] = ends[from]
		if maps != nil {
			maps[i] = backMaps[from]
		}
	}

	// 3. Overwrite or insert.
	k := key(start, sorted)
	if e, ok := db.byKey[k]; ok {
		e.explanation = explanation
		e.constructor = c
		e.backMaps = maps

		return nil
	}
	e := &entry{
		start:       start,
		ends:        sorted,
		explanation: explanation,
		constructor: c,
		backMaps:    maps,
		seq:         len(db.order),
	}
	db.byKey[k] = e
	db.byStart[start] = append(db.byStart[start], e)
	db.order = append(db.order, e)
	db.live++

	return nil
}

func (db *DB) lookup(start core.Label, ends []core.Label) (*entry, error) {
	if err := core.CheckLabels(start); err != nil {
		return nil, err
	}
	if err := core.CheckLabels(ends...); err != nil {
		return nil, err
	}
	e, ok := db.byKey[key(start, sortedEnds(ends))]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRule, "%d -> %v", start, ends)
	}

	return e, nil
}

// Remove deletes start -> ends.
func (db *DB) Remove(start core.Label, ends []core.Label) error {
	e, err := db.lookup(start, ends)
	if err != nil {
		return err
	}
	delete(db.byKey, key(e.start, e.ends))
	db.byStart[start] = slices.DeleteFunc(db.byStart[start], func(x *entry) bool { return x == e })
	if len(db.byStart[start]) == 0 {
		delete(db.byStart, start)
	}
	e.removed = true
	db.live--

	return nil
}

// Contains reports whether start -> ends is stored.
func (db *DB) Contains(start core.Label, ends []core.Label) bool {
	_, err := db.lookup(start, ends)

	return err == nil
}

// Explanation returns the formal step of start -> ends.
func (db *DB) Explanation(start core.Label, ends []core.Label) (string, error) {
	e, err := db.lookup(start, ends)
	if err != nil {
		return "", err
	}

	return e.explanation, nil
}

// Constructor returns the constructor of start -> ends.
func (db *DB) Constructor(start core.Label, ends []core.Label) (core.Constructor, error) {
	e, err := db.lookup(start, ends)
	if err != nil {
		return 0, err
	}

	return e.constructor, nil
}

// BackMaps returns the back-maps of start -> ends, aligned with sorted ends.
func (db *DB) BackMaps(start core.Label, ends []core.Label) ([]BackMap, error) {
	e, err := db.lookup(start, ends)
	if err != nil {
		return nil, err
	}

	return slices.Clone(e.backMaps), nil
}

// Rule returns a snapshot of start -> ends.
func (db *DB) Rule(start core.Label, ends []core.Label) (Rule, error) {
	e, err := db.lookup(start, ends)
	if err != nil {
		return Rule{}, err
	}

	return e.snapshot(), nil
}

// Starts returns every label that has at least one outgoing hyperedge, ascending.
func (db *DB) Starts() []core.Label {
	out := make([]core.Label, 0, len(db.byStart))
	for s := range db.byStart {
		out = append(out, s)
	}
	slices.Sort(out)

	return out
}

// Ends returns the end tuples of start in discovery order.
func (db *DB) Ends(start core.Label) [][]core.Label {
	entries := db.byStart[start]
	out := make([][]core.Label, len(entries))
	for i, e := range entries {
		out[i] = slices.Clone(e.ends)
	}

	return out
}

// Outgoing returns snapshots of the hyperedges leaving start, in discovery order.
func (db *DB) Outgoing(start core.Label) []Rule {
	entries := db.byStart[start]
	out := make([]Rule, len(entries))
	for i, e := range entries {
		out[i] = e.snapshot()
	}

	return out
}

// All yields every stored hyperedge in discovery order. The set is
// snapshotted when iteration starts, so Add or Remove inside the loop is safe.
func (db *DB) All() iter.Seq[Rule] {
	snap := make([]Rule, 0, db.live)
	for _, e := range db.order {
		if !e.removed {
			snap = append(snap, e.snapshot())
		}
	}

	return func(yield func(Rule) bool) {
		for _, r := range snap {
			if !yield(r) {
				return
			}
		}
	}
}

func (e *entry) snapshot() Rule {
	return Rule{
		Start:       e.start,
		Ends:        slices.Clone(e.ends),
		Explanation: e.explanation,
		Constructor: e.constructor,
		BackMaps:    slices.Clone(e.backMaps),
		Seq:         e.seq,
	}
}
