package searcher

import (
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

// DoLevel performs one unit of breadth: every class of the current level
// (BreadthFirst) or one deeper walk from the root (DepthFirst). exhausted
// reports that no class is left to expand. Budget expiry is returned as
// ErrBudgetExceeded.
//
// Complexity: one expansion per class of the level, each costing its
// generator calls plus discovery of the children they return. A DepthFirst
// level also re-walks the rules reachable within the depth, O(N + R·k).
//
// Error Conditions:
//   - ErrBudgetExceeded if the context, MaxExpansions, TimeLimit or MaxDepth
//     runs out. Classes expanded before then stay expanded.
//   - Database errors from recording results. Generator failures are not
//     returned; see Failures.
func (s *Searcher) DoLevel(ctx context.Context) (exhausted bool, err error) {
	ctx, span := s.tracer.Start(ctx, "searcher.DoLevel")
	defer span.End()
	span.SetAttributes(
		attribute.Int("level", s.levels+1),
		attribute.String("traversal", s.opts.Traversal.String()),
	)

	if s.opts.Traversal == DepthFirst {
		exhausted, err = s.deepen(ctx)
	} else {
		exhausted, err = s.breadth(ctx)
	}
	if err != nil {
		span.RecordError(err)

		return false, err
	}
	span.SetAttributes(attribute.Bool("exhausted", exhausted))

	return exhausted, nil
}

func (s *Searcher) breadth(ctx context.Context) (bool, error) {
	if !s.advance() {
		return true, nil
	}
	for !s.queue.levelDone() {
		if err := s.checkBudget(ctx); err != nil {
			return false, err
		}
		l := s.pop()
		if err := s.expand(l); err != nil {
			return false, err
		}
		s.metrics.Queue.Set(float64(s.queue.Len()))
	}
	s.levels++
	s.metrics.Levels.Inc()
	s.logStatus()

	return s.queue.Len() == 0, nil
}

// ExpandClasses expands up to n queued classes, crossing level boundaries,
// and returns how many were expanded. Only BreadthFirst searches keep a queue.
func (s *Searcher) ExpandClasses(ctx context.Context, n int) (int, error) {
	if s.opts.Traversal != BreadthFirst {
		return 0, errors.Wrap(ErrOptionViolation, "ExpandClasses needs breadth-first traversal")
	}
	done := 0
	for done < n {
		if s.queue.levelDone() {
			if !s.advance() {
				break
			}
			s.levels++
			s.metrics.Levels.Inc()
		}
		if err := s.checkBudget(ctx); err != nil {
			return done, err
		}
		l := s.pop()
		if err := s.expand(l); err != nil {
			return done, err
		}
		done++
	}
	s.metrics.Queue.Set(float64(s.queue.Len()))
	s.logStatus()

	return done, nil
}

func (s *Searcher) advance() bool {
	defer s.timed(PhaseQueueing, -1)()

	return s.queue.advance()
}

// pop must only be called while the current level is not done.
func (s *Searcher) pop() core.Label {
	defer s.timed(PhaseQueueing, -1)()
	l, _ := s.queue.pop()

	return l
}

type depthItem struct {
	label core.Label
	depth int
}

// deepen walks rules from the root down to depth levels+1, expanding every
// class it reaches that still has pack layers left.
//
// Steps:
//  1. Stop with ErrBudgetExceeded once MaxDepth would be passed.
//  2. DFS over equivalence roots; a root is revisited only at a shallower depth.
//  3. Expand the members of each reached class, then follow their rules.
//  4. Exhausted when nothing was expanded and no branch was cut by the depth.
func (s *Searcher) deepen(ctx context.Context) (bool, error) {
	depth := s.levels + 1
	if s.opts.MaxDepth > 0 && depth > s.opts.MaxDepth {
		return false, errors.Wrapf(ErrBudgetExceeded, "max depth %d", s.opts.MaxDepth)
	}

	visited := make(map[core.Label]int)
	stack := []depthItem{{label: s.rootL}}
	progress, cut := false, false
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r, err := s.equiv.Find(it.label)
		if err != nil {
			return false, err
		}
		if s.equiv.IsVerified(r) {
			continue
		}
		if d, ok := visited[r]; ok && d <= it.depth {
			continue
		}
		visited[r] = it.depth
		if it.depth >= depth {
			cut = true

			continue
		}

		members, err := s.members(r)
		if err != nil {
			return false, err
		}
		for _, m := range members {
			if s.classes.Expansions(m) >= len(s.layers) {
				continue
			}
			if err := s.checkBudget(ctx); err != nil {
				return false, err
			}
			if err := s.expand(m); err != nil {
				return false, err
			}
			progress = true
		}

		// expansion may have merged more labels into the class
		if members, err = s.members(r); err != nil {
			return false, err
		}
		var children []core.Label
		for _, m := range members {
			for _, ends := range s.rules.Ends(m) {
				children = append(children, ends...)
			}
		}
		for _, c := range slices.Backward(children) {
			stack = append(stack, depthItem{label: c, depth: it.depth + 1})
		}
	}
	s.levels++
	s.metrics.Levels.Inc()
	s.logStatus()

	return !progress && !cut, nil
}

// members returns the interned labels equivalent to l.
func (s *Searcher) members(l core.Label) ([]core.Label, error) {
	set, err := s.equiv.EquivalentSet(l)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(set, func(m core.Label) bool { return int(m) >= s.classes.Len() }), nil
}

// HasSpecification reports whether the root currently has a specification.
// The check stops with spec.ErrBudgetExceeded when ctx ends or CheckSteps
// run out.
func (s *Searcher) HasSpecification(ctx context.Context) (bool, error) {
	s.metrics.SpecificationChecks.Inc()
	defer s.timed(PhaseTreeSearch, -1)()

	ok, err := spec.HasSpecification(s.Store(), s.rootL,
		spec.WithContext(ctx),
		spec.WithMaxSteps(s.opts.CheckSteps),
	)
	if err != nil {
		return false, errors.WithMessage(err, "specification check")
	}

	return ok, nil
}

// Specification extracts the root's specification.
func (s *Searcher) Specification(ctx context.Context) (*spec.Specification, error) {
	defer s.timed(PhaseTreeSearch, -1)()

	return spec.Extract(s.Store(), s.rootL,
		spec.WithContext(ctx),
		spec.WithMaxSteps(s.opts.ExtractSteps),
		spec.WithTracer(s.tracer),
	)
}

// Search alternates levels with specification checks until the root has a
// specification, nothing is left to expand, or a budget runs out. Only
// unexpected failures are returned as errors.
func (s *Searcher) Search(ctx context.Context) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "searcher.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("search_id", s.id.String()),
		attribute.String("root", s.root.Key()),
	)
	if s.opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TimeLimit)
		defer cancel()
	}
	began := time.Now()

	finish := func(st Status, sp *spec.Specification) (*Outcome, error) {
		out := &Outcome{
			ID:            s.id,
			Status:        st,
			Specification: sp,
			Levels:        s.levels,
			Expansions:    s.expansions,
			Classes:       s.classes.Len(),
			Rules:         s.rules.Len(),
			Elapsed:       time.Since(began),
		}
		span.SetAttributes(
			attribute.String("status", st.String()),
			attribute.Int("levels", out.Levels),
			attribute.Int("classes", out.Classes),
		)
		s.logger.Info("search finished",
			"status", st.String(),
			"levels", out.Levels,
			"expansions", out.Expansions,
			"classes", out.Classes,
			"rules", out.Rules,
			"elapsed", out.Elapsed.String(),
		)

		return out, nil
	}
	fail := func(err error) (*Outcome, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	exhausted := false
	for {
		found, err := s.HasSpecification(ctx)
		switch {
		case errors.Is(err, spec.ErrBudgetExceeded):
			return finish(StatusBudgetExceeded, nil)
		case err != nil:
			return fail(err)
		}
		if found {
			sp, err := s.Specification(ctx)
			switch {
			case err == nil:
				return finish(StatusFound, sp)
			case errors.Is(err, spec.ErrBudgetExceeded):
				return finish(StatusBudgetExceeded, nil)
			default:
				return fail(err)
			}
		}
		if exhausted {
			return finish(StatusExhausted, nil)
		}
		if s.opts.MaxLevels > 0 && s.levels >= s.opts.MaxLevels {
			return finish(StatusBudgetExceeded, nil)
		}

		exhausted, err = s.DoLevel(ctx)
		if err != nil {
			if errors.Is(err, ErrBudgetExceeded) {
				return finish(StatusBudgetExceeded, nil)
			}

			return fail(err)
		}
	}
}
