package searcher

import "github.com/katalvlaran/combspec/core"

// levelQueue orders labels for breadth-first expansion.
//
// working holds labels that must be expanded before the rest of the
// current level (re-entry after Extend); curr is the level being expanded;
// next collects labels found while expanding curr.
type levelQueue struct {
	working []core.Label
	curr    []core.Label
	next    []core.Label
	queued  map[core.Label]bool
}

func newLevelQueue() *levelQueue {
	return &levelQueue{queued: make(map[core.Label]bool)}
}

func (q *levelQueue) Len() int { return len(q.working) + len(q.curr) + len(q.next) }

// push schedules l for the next level unless it is already waiting.
func (q *levelQueue) push(l core.Label) {
	if q.queued[l] {
		return
	}
	q.queued[l] = true
	q.next = append(q.next, l)
}

// pushNow schedules l ahead of the current level.
func (q *levelQueue) pushNow(l core.Label) {
	if q.queued[l] {
		return
	}
	q.queued[l] = true
	q.working = append(q.working, l)
}

// pop returns the next label of the current level.
func (q *levelQueue) pop() (core.Label, bool) {
	var l core.Label
	switch {
	case len(q.working) > 0:
		l, q.working = q.working[0], q.working[1:]
	case len(q.curr) > 0:
		l, q.curr = q.curr[0], q.curr[1:]
	default:
		return core.NoLabel, false
	}
	delete(q.queued, l)

	return l, true
}

// levelDone reports whether the current level has been drained.
func (q *levelQueue) levelDone() bool { return len(q.working) == 0 && len(q.curr) == 0 }

// advance promotes the next level; it reports false when nothing is left.
func (q *levelQueue) advance() bool {
	if !q.levelDone() {
		return true
	}
	if len(q.next) == 0 {
		return false
	}
	q.curr, q.next = q.next, nil

	return true
}
