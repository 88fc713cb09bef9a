package searcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/katalvlaran/combspec/classdb"
	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/equivdb"
	"github.com/katalvlaran/combspec/ruledb"
	"github.com/katalvlaran/combspec/spec"
)

const (
	emptyExplanation    = "contains no objects"
	symmetryExplanation = "a symmetry"

	failureSymmetry  = "symmetry"
	failureEmptiness = "emptiness"
)

// Searcher expands classes from a root with a layered strategy pack until
// the root has a specification. It owns its databases; it is not safe for
// concurrent use, but separate Searchers share nothing.
type Searcher struct {
	id     uuid.UUID
	root   core.Class
	rootL  core.Label
	layers []Pack
	opts   Options

	classes *classdb.DB
	equiv   *equivdb.DB
	rules   *ruledb.DB

	queue *levelQueue
	// fresh holds interned labels whose discovery work is pending.
	fresh       []core.Label
	symPartners map[core.Label][]core.Label

	levels     int
	expansions int
	started    time.Time

	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *Metrics
	registry *prometheus.Registry
	status   *rate.Sometimes
	clock    *phaseClock
	failures *multierror.Error
}

// New interns root and runs its discovery work (emptiness, verification,
// symmetries, equivalence closure). A root verified here has a
// specification before any expansion.
func New(root core.Class, pack Pack, opts ...Option) (*Searcher, error) {
	if root == nil {
		return nil, errors.Wrap(core.ErrType, "nil root class")
	}
	if pack.isZero() {
		return nil, errors.Wrapf(ErrNoPack, "pack %q has no generators", pack.Name)
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	s := &Searcher{
		id:          uuid.New(),
		root:        root,
		layers:      []Pack{pack},
		opts:        o,
		classes:     classdb.New(),
		equiv:       equivdb.New(),
		rules:       ruledb.New(),
		queue:       newLevelQueue(),
		symPartners: make(map[core.Label][]core.Label),
		started:     time.Now(),
		tracer:      o.TracerProvider.Tracer("github.com/katalvlaran/combspec/searcher"),
		status:      &rate.Sometimes{Interval: o.StatusInterval},
		clock:       newPhaseClock(),
	}
	s.logger = o.Logger.With("search_id", s.id.String())
	reg := o.Registerer
	if reg == nil {
		s.registry = prometheus.NewRegistry()
		reg = s.registry
	}
	s.metrics = newMetrics(reg)

	l, err := s.discover(root)
	if err != nil {
		return nil, err
	}
	s.rootL = l
	if err := s.settle(); err != nil {
		return nil, err
	}
	s.logger.Debug("search created", "root", root.Key(), "pack", pack.Name, "traversal", o.Traversal.String())

	return s, nil
}

// ID returns the search identifier used in logs, spans and outcomes.
func (s *Searcher) ID() uuid.UUID { return s.id }

// RootLabel returns the label of the root class.
func (s *Searcher) RootLabel() core.Label { return s.rootL }

// Store exposes the databases for extraction and inspection.
func (s *Searcher) Store() spec.Store {
	return spec.Store{Classes: s.classes, Equivalences: s.equiv, Rules: s.rules}
}

// Metrics returns the searcher's collectors.
func (s *Searcher) Metrics() *Metrics { return s.metrics }

// Gatherer returns the private registry, or nil when WithRegisterer was used.
func (s *Searcher) Gatherer() prometheus.Gatherer {
	if s.registry == nil {
		return nil
	}

	return s.registry
}

// Levels returns the number of completed levels.
func (s *Searcher) Levels() int { return s.levels }

// Expansions returns the number of expansion passes performed.
func (s *Searcher) Expansions() int { return s.expansions }

// Failures returns every generator failure seen so far, or nil.
func (s *Searcher) Failures() error { return s.failures.ErrorOrNil() }

// Extend adds a pack layer. Classes that finished every earlier layer are
// scheduled again so the new layer is applied to them.
func (s *Searcher) Extend(pack Pack) {
	done := len(s.layers)
	s.layers = append(s.layers, pack)
	for l := range s.classes.Labels() {
		if s.classes.Expansions(l) == done && !s.equiv.IsVerified(l) {
			s.queue.pushNow(l)
		}
	}
	s.metrics.Queue.Set(float64(s.queue.Len()))
	s.logger.Info("pack layer added", "pack", pack.Name, "layers", len(s.layers))
}

// discover interns c; new labels are queued for discovery work.
func (s *Searcher) discover(c core.Class) (core.Label, error) {
	l, added, err := s.classes.Intern(c)
	if err != nil {
		return core.NoLabel, err
	}
	if added {
		s.fresh = append(s.fresh, l)
		s.metrics.Classes.Set(float64(s.classes.Len()))
	}

	return l, nil
}

// settle runs discovery work until no fresh label is left.
func (s *Searcher) settle() error {
	for len(s.fresh) > 0 {
		l := s.fresh[0]
		s.fresh = s.fresh[1:]
		if err := s.onDiscover(l); err != nil {
			return err
		}
	}

	return nil
}

// onDiscover runs the per-class work done once, when a class first appears.
//
// Steps:
//  1. Emptiness test; empty classes are verified and never expanded.
//  2. Verification slot of every layer.
//  3. Symmetries, unioned with the class.
//  4. Equivalence slot of every layer (children are discovered in turn,
//     which closes the class under equivalence).
//  5. Schedule for expansion unless verified.
func (s *Searcher) onDiscover(l core.Label) error {
	c := s.classes.MustClass(l)

	empty, err := s.isEmpty(l, c)
	if err != nil {
		return err
	}
	if empty {
		return s.markEmpty(l)
	}

	for pass := range s.layers {
		if _, err := s.runSlot(l, c, pass, SlotVerification); err != nil {
			return err
		}
	}
	if err := s.expandSymmetries(l, c); err != nil {
		return err
	}
	for pass := range s.layers {
		if _, err := s.runSlot(l, c, pass, SlotEquivalence); err != nil {
			return err
		}
	}
	if err := s.classes.Set(l, classdb.EquivalentExpanded); err != nil {
		return err
	}

	if !s.equiv.IsVerified(l) {
		s.schedule(l)
	}

	return nil
}

func (s *Searcher) schedule(l core.Label) {
	if s.opts.Traversal != BreadthFirst {
		return
	}
	s.queue.push(l)
	s.metrics.Queue.Set(float64(s.queue.Len()))
}

func (s *Searcher) isEmpty(l core.Label, c core.Class) (bool, error) {
	if empty, known := s.classes.Empty(l); known {
		return empty, nil
	}
	defer s.timed(PhaseVerification, -1)()
	for _, pack := range s.layers {
		if pack.IsEmpty == nil {
			continue
		}
		empty, err := protect(func() (bool, error) { return pack.IsEmpty(c) })
		if err != nil {
			s.failed(l, failureEmptiness, pack.Name, err)

			continue
		}
		if empty {
			return true, nil
		}
		if err := s.classes.SetEmpty(l, false); err != nil {
			return false, err
		}
	}

	return false, nil
}

func (s *Searcher) markEmpty(l core.Label) error {
	if err := s.classes.SetEmpty(l, true); err != nil {
		return err
	}
	if err := s.classes.SetVerified(l, emptyExplanation); err != nil {
		return err
	}

	return s.equiv.SetVerified(l)
}

// markEmptyBy marks l empty because rule step forces it. A class already
// known to be non-empty is left alone and the rule is reported as unsound.
func (s *Searcher) markEmptyBy(l core.Label, step string) error {
	if empty, known := s.classes.Empty(l); known && !empty {
		err := errors.Wrapf(core.ErrUnsoundRule, "%q forces non-empty label %d to be empty", step, l)
		s.failures = multierror.Append(s.failures, err)
		s.logger.Warn("rule contradicts emptiness", "label", int(l), "rule", step)

		return nil
	}

	return s.markEmpty(l)
}

func (s *Searcher) expandSymmetries(l core.Label, c core.Class) error {
	defer s.timed(PhaseSymmetry, -1)()
	for _, pack := range s.layers {
		for _, sym := range pack.Symmetries {
			if sym.Apply == nil {
				continue
			}
			sc, err := protect(func() (core.Class, error) { return sym.Apply(c) })
			if err != nil {
				s.failed(l, failureSymmetry, sym.Name, err)

				continue
			}
			if sc == nil {
				continue
			}
			sl, err := s.discover(sc)
			if err != nil {
				return err
			}
			if sl == l {
				continue
			}
			if err := s.equiv.Union(l, sl, symmetryExplanation); err != nil {
				return err
			}
			s.metrics.Equivalences.Inc()
			s.symPartners[l] = append(s.symPartners[l], sl)
			s.symPartners[sl] = append(s.symPartners[sl], l)
		}
	}

	return s.classes.Set(l, classdb.SymmetryExpanded)
}

// runSlot applies every generator of one slot of one layer to c.
// Generator errors and panics are logged and skipped; only database
// errors are returned. produced reports whether any result was recorded.
func (s *Searcher) runSlot(l core.Label, c core.Class, pass int, slot Slot) (produced bool, err error) {
	if slot == SlotVerification && s.classes.IsVerified(l) {
		return false, nil
	}
	phase, layer := slotPhase(slot), -1
	if phase == PhaseExpansion {
		layer = pass
	}
	defer s.timed(phase, layer)()
	env := Env{Root: s.root, Params: s.opts.Params, Pass: pass}
	for _, g := range s.layers[pass].slot(slot) {
		results, err := s.call(g, c, env, slot)
		if err != nil {
			s.failed(l, slot.String(), g.Name, err)

			continue
		}
		for _, r := range results {
			if err := s.record(l, r); err != nil {
				return produced, err
			}
			produced = true
		}
		s.metrics.GeneratorResults.WithLabelValues(slot.String()).Add(float64(len(results)))
	}

	return produced, nil
}

// call runs g and validates every result against slot.
func (s *Searcher) call(g Generator, c core.Class, env Env, slot Slot) ([]Result, error) {
	if g.Apply == nil {
		return nil, errors.Wrapf(core.ErrType, "generator %q has no Apply", g.Name)
	}
	results, err := protect(func() ([]Result, error) { return g.Apply(c, env) })
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if err := r.check(slot); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func protect[T any](f func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	return f()
}

func (s *Searcher) failed(l core.Label, slot, name string, err error) {
	s.failures = multierror.Append(s.failures, errors.Wrapf(err, "%s generator %q on label %d", slot, name, l))
	s.metrics.GeneratorFailures.WithLabelValues(slot).Inc()
	s.logger.Warn("generator failed",
		"slot", slot,
		"generator", name,
		"label", int(l),
		"error", err,
	)
}

// record stores one checked result for l. Children are fully discovered
// first so that known-empty children can be dropped.
func (s *Searcher) record(l core.Label, r Result) error {
	if r.kind == KindVerified {
		if err := s.classes.SetVerified(l, r.step); err != nil {
			return err
		}
		if err := s.classes.Set(l, classdb.StrategyVerified); err != nil {
			return err
		}

		return s.equiv.SetVerified(l)
	}

	ends := make([]core.Label, len(r.children))
	for i, child := range r.children {
		cl, err := s.discover(child)
		if err != nil {
			return err
		}
		ends[i] = cl
	}
	if err := s.settle(); err != nil {
		return err
	}

	switch r.kind {
	case KindEquivalent:
		if err := s.equiv.Union(l, ends[0], r.step); err != nil {
			return err
		}
		s.metrics.Equivalences.Inc()

		return nil

	case KindDecomposition:
		for _, e := range ends {
			if empty, _ := s.classes.Empty(e); empty {
				return s.markEmptyBy(l, r.step)
			}
		}

		return s.addRule(l, ends, r.step, core.Decomposition, r.backMaps)

	default: // KindInferred, KindUnion
		kept := make([]core.Label, 0, len(ends))
		var maps []ruledb.BackMap
		for i, e := range ends {
			if empty, _ := s.classes.Empty(e); empty {
				continue
			}
			kept = append(kept, e)
			if r.backMaps != nil {
				maps = append(maps, r.backMaps[i])
			}
		}
		if len(kept) == 0 {
			return s.markEmptyBy(l, r.step)
		}
		if r.kind == KindInferred {
			if err := s.classes.Set(l, classdb.InferralExpanded); err != nil {
				return err
			}
		}

		return s.addRule(l, kept, r.step, core.DisjointUnion, maps)
	}
}

func (s *Searcher) addRule(l core.Label, ends []core.Label, step string, c core.Constructor, maps []ruledb.BackMap) error {
	if err := s.rules.Add(l, ends, step, c, maps); err != nil {
		return err
	}
	s.metrics.Rules.Set(float64(s.rules.Len()))

	return nil
}

// expand runs the next pack layer on l.
func (s *Searcher) expand(l core.Label) error {
	pass := s.classes.Expansions(l)
	if pass >= len(s.layers) || s.equiv.IsVerified(l) {
		return nil
	}
	c := s.classes.MustClass(l)

	if s.classes.Has(l, classdb.ExpandingOtherSymmetry) && s.partnerAhead(l, pass) {
		// rules found on the partner already hold for l's class
		return s.finishPass(l, pass)
	}
	for _, p := range s.symPartners[l] {
		if err := s.classes.Set(p, classdb.ExpandingOtherSymmetry); err != nil {
			return err
		}
	}

	if pass > 0 {
		for _, slot := range []Slot{SlotVerification, SlotEquivalence} {
			if _, err := s.runSlot(l, c, pass, slot); err != nil {
				return err
			}
		}
	}
	expandable := false
	for _, slot := range []Slot{SlotBatch, SlotInferral, SlotDecomposition} {
		produced, err := s.runSlot(l, c, pass, slot)
		if err != nil {
			return err
		}
		expandable = expandable || produced
	}
	if expandable {
		if err := s.classes.Set(l, classdb.Expandable); err != nil {
			return err
		}
	}

	return s.finishPass(l, pass)
}

func (s *Searcher) partnerAhead(l core.Label, pass int) bool {
	for _, p := range s.symPartners[l] {
		if s.classes.Expansions(p) > pass {
			return true
		}
	}

	return false
}

func (s *Searcher) finishPass(l core.Label, pass int) error {
	if err := s.classes.IncrementExpansions(l); err != nil {
		return err
	}
	s.expansions++
	s.metrics.Expansions.Inc()
	if pass+1 < len(s.layers) && !s.equiv.IsVerified(l) {
		s.schedule(l)
	}

	return nil
}

// checkBudget is called once per class popped.
func (s *Searcher) checkBudget(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(ErrBudgetExceeded, err.Error())
	}
	if s.opts.MaxExpansions > 0 && s.expansions >= s.opts.MaxExpansions {
		return errors.Wrapf(ErrBudgetExceeded, "%d expansions", s.expansions)
	}
	if s.opts.TimeLimit > 0 && time.Since(s.started) > s.opts.TimeLimit {
		return errors.Wrapf(ErrBudgetExceeded, "time limit %s", s.opts.TimeLimit)
	}

	return nil
}

func (s *Searcher) logStatus() {
	s.status.Do(func() {
		r := s.Report()
		s.metrics.publish(r)
		phases := make([]any, 0, 2*len(r.Phases))
		for p := range numPhases {
			phases = append(phases, p.String(), r.Phases[p].String())
		}
		layers := make([]any, 0, 2*len(r.Layers))
		for _, pack := range s.layers {
			layers = append(layers, pack.Name, r.Layers[pack.Name].String())
		}
		s.logger.Info("search status",
			"levels", r.Levels,
			"expansions", r.Expansions,
			"classes", r.Classes,
			"rules", r.Rules,
			"verified", r.Verified,
			"strategy_verified", r.StrategyVerified,
			"empty", r.Empty,
			"expandable", r.Expandable,
			"equivalence_sets", r.EquivalenceSets,
			slog.Group("queue", "working", r.Queue.Working, "current", r.Queue.Current, "next", r.Queue.Next),
			slog.Group("phases", phases...),
			slog.Group("layers", layers...),
			"elapsed", r.Elapsed.String(),
		)
	})
}
