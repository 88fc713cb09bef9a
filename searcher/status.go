package searcher

import (
	"fmt"
	"time"

	"github.com/katalvlaran/combspec/classdb"
)

// Phase names a part of the search whose time is tracked.
type Phase int

const (
	// PhaseEquivalence covers the equivalence slot.
	PhaseEquivalence Phase = iota
	// PhaseVerification covers emptiness tests and the verification slot.
	PhaseVerification
	// PhaseInferral covers the inferral slot.
	PhaseInferral
	// PhaseSymmetry covers symmetry application.
	PhaseSymmetry
	// PhaseExpansion covers the batch and decomposition slots.
	PhaseExpansion
	// PhaseQueueing covers level promotion and popping labels.
	PhaseQueueing
	// PhaseTreeSearch covers specification checks and extraction.
	PhaseTreeSearch

	numPhases
)

var phaseNames = [...]string{"equivalence", "verification", "inferral", "symmetry", "expansion", "queueing", "tree_search"}

// String returns the phase name used in logs and metric labels.
func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return fmt.Sprintf("phase(%d)", int(p))
	}

	return phaseNames[p]
}

func slotPhase(s Slot) Phase {
	switch s {
	case SlotEquivalence:
		return PhaseEquivalence
	case SlotVerification:
		return PhaseVerification
	case SlotInferral:
		return PhaseInferral
	default:
		return PhaseExpansion
	}
}

// QueueSizes are the lengths of the breadth-first queue parts.
type QueueSizes struct {
	Working int
	Current int
	Next    int
}

// Report is a point-in-time view of a search.
type Report struct {
	Levels     int
	Expansions int
	Classes    int
	Rules      int

	// Verified counts verified classes, empty ones included.
	Verified int
	// StrategyVerified counts classes verified by a verification generator.
	StrategyVerified int
	Empty            int
	Expandable       int
	// EquivalenceSets counts the distinct sets among interned classes.
	EquivalenceSets int

	Queue QueueSizes

	// Phases is the time spent in each phase, excluding nested phases.
	Phases map[Phase]time.Duration
	// Layers is the expansion time spent per pack layer, keyed by pack name.
	Layers  map[string]time.Duration
	Elapsed time.Duration
}

// Report counts the current state of the databases. It walks every
// interned class, so its cost is linear in the number of classes.
func (s *Searcher) Report() Report {
	r := Report{
		Levels:     s.levels,
		Expansions: s.expansions,
		Classes:    s.classes.Len(),
		Rules:      s.rules.Len(),
		Queue: QueueSizes{
			Working: len(s.queue.working),
			Current: len(s.queue.curr),
			Next:    len(s.queue.next),
		},
		Phases:  make(map[Phase]time.Duration, numPhases),
		Layers:  make(map[string]time.Duration, len(s.layers)),
		Elapsed: time.Since(s.started),
	}
	roots := make(map[int]bool)
	for l := range s.classes.Labels() {
		if s.classes.IsVerified(l) {
			r.Verified++
		}
		if s.classes.Has(l, classdb.StrategyVerified) {
			r.StrategyVerified++
		}
		if empty, _ := s.classes.Empty(l); empty {
			r.Empty++
		}
		if s.classes.Has(l, classdb.Expandable) {
			r.Expandable++
		}
		if root, err := s.equiv.Find(l); err == nil {
			roots[int(root)] = true
		}
	}
	r.EquivalenceSets = len(roots)
	for p := range numPhases {
		r.Phases[p] = s.clock.total[p]
	}
	for i, pack := range s.layers {
		var d time.Duration
		if i < len(s.clock.layers) {
			d = s.clock.layers[i]
		}
		r.Layers[pack.Name] += d
	}

	return r
}

// publish copies r into the gauges.
func (m *Metrics) publish(r Report) {
	m.Classes.Set(float64(r.Classes))
	m.Rules.Set(float64(r.Rules))
	m.Verified.Set(float64(r.Verified))
	m.StrategyVerified.Set(float64(r.StrategyVerified))
	m.Empty.Set(float64(r.Empty))
	m.Expandable.Set(float64(r.Expandable))
	m.EquivalenceSets.Set(float64(r.EquivalenceSets))
	m.QueueParts.WithLabelValues("working").Set(float64(r.Queue.Working))
	m.QueueParts.WithLabelValues("current").Set(float64(r.Queue.Current))
	m.QueueParts.WithLabelValues("next").Set(float64(r.Queue.Next))
}

// phaseFrame is one open phase; self excludes time spent in nested phases.
type phaseFrame struct {
	phase Phase
	layer int
	self  time.Duration
}

// phaseClock charges wall time to the innermost open phase.
type phaseClock struct {
	now    func() time.Time
	mark   time.Time
	stack  []phaseFrame
	total  [numPhases]time.Duration
	layers []time.Duration
}

func newPhaseClock() *phaseClock {
	return &phaseClock{now: time.Now}
}

// charge adds the time since the last mark to the innermost frame.
func (c *phaseClock) charge() {
	t := c.now()
	if n := len(c.stack); n > 0 {
		c.stack[n-1].self += t.Sub(c.mark)
	}
	c.mark = t
}

// enter opens phase p; layer is the pack index for PhaseExpansion, else -1.
func (c *phaseClock) enter(p Phase, layer int) {
	c.charge()
	c.stack = append(c.stack, phaseFrame{phase: p, layer: layer})
}

// leave closes the innermost phase and returns it.
func (c *phaseClock) leave() phaseFrame {
	c.charge()
	f := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.total[f.phase] += f.self
	if f.layer >= 0 {
		for len(c.layers) <= f.layer {
			c.layers = append(c.layers, 0)
		}
		c.layers[f.layer] += f.self
	}

	return f
}

// timed opens a phase and returns the func that closes it and records its
// duration. Use as: defer s.timed(PhaseSymmetry, -1)().
func (s *Searcher) timed(p Phase, layer int) func() {
	s.clock.enter(p, layer)

	return func() {
		f := s.clock.leave()
		s.metrics.PhaseSeconds.WithLabelValues(f.phase.String()).Observe(f.self.Seconds())
		if f.layer >= 0 && f.layer < len(s.layers) {
			s.metrics.LayerSeconds.WithLabelValues(s.layers[f.layer].Name).Observe(f.self.Seconds())
		}
	}
}
