package searcher_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/katalvlaran/combspec/classdb"
	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/searcher"
	"github.com/katalvlaran/combspec/spec"
	"github.com/katalvlaran/combspec/words"
)

var ab = words.Words{Alphabet: "ab"}

// quiet discards logs so tests stay readable.
func quiet() searcher.Option {
	return searcher.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

// rulesFor builds a generator that answers from a fixed table of named classes.
func rulesFor(name string, table map[string]searcher.Result) searcher.Generator {
	return searcher.Generator{
		Name: name,
		Apply: func(c core.Class, _ searcher.Env) ([]searcher.Result, error) {
			if r, ok := table[c.Key()]; ok {
				return []searcher.Result{r}, nil
			}

			return nil, nil
		},
	}
}

func hasSpec(t *testing.T, s *searcher.Searcher) bool {
	t.Helper()
	ok, err := s.HasSpecification(context.Background())
	require.NoError(t, err)

	return ok
}

func verifies(names ...string) searcher.Generator {
	table := make(map[string]searcher.Result, len(names))
	for _, n := range names {
		table[n] = searcher.Verified(n + " is known")
	}

	return rulesFor("known", table)
}

func TestNew_VerifiedRootNeedsNoLevels(t *testing.T) {
	s, err := searcher.New(words.Epsilon{}, words.Pack(), quiet())
	require.NoError(t, err)
	assert.True(t, hasSpec(t, s))

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, searcher.StatusFound, out.Status)
	assert.Equal(t, 0, out.Levels)
	assert.Equal(t, 1, out.Specification.Size())
	assert.Equal(t, "the empty word", out.Specification.Root.FormalStep)
	assert.Equal(t, s.ID(), out.ID)
}

func TestNew_Rejects(t *testing.T) {
	_, err := searcher.New(nil, words.Pack())
	assert.ErrorIs(t, err, core.ErrType)

	_, err = searcher.New(ab, searcher.Pack{Name: "nothing"})
	assert.ErrorIs(t, err, searcher.ErrNoPack)

	_, err = searcher.New(ab, words.Pack(), searcher.WithMaxLevels(-1))
	assert.ErrorIs(t, err, searcher.ErrOptionViolation)

	_, err = searcher.New(ab, words.Pack(), searcher.WithTraversal(searcher.Traversal(7)))
	assert.ErrorIs(t, err, searcher.ErrOptionViolation)

	_, err = searcher.New(ab, words.Pack())
	assert.ErrorIs(t, err, searcher.ErrOptionViolation)
}

func TestSearch_Words(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet())
	require.NoError(t, err)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, searcher.StatusFound, out.Status)
	assert.Equal(t, 2, out.Levels)
	assert.Equal(t, 2, out.Expansions)
	assert.Equal(t, 4, out.Classes)
	assert.Equal(t, 2, out.Rules)

	sp := out.Specification
	require.NoError(t, sp.Validate())
	assert.Equal(t, 5, sp.Size())

	root := sp.Root
	assert.Equal(t, "empty or not", root.FormalStep)
	assert.Equal(t, core.DisjointUnion, root.Constructor)
	require.Len(t, root.Children, 2)
	assert.True(t, root.Children[0].Verified)

	ne := root.Children[1]
	assert.Equal(t, "first letter", ne.FormalStep)
	assert.Equal(t, core.Decomposition, ne.Constructor)
	require.Len(t, ne.Children, 2)
	// ends are stored in label order, so the recursive factor comes first
	assert.True(t, ne.Children[0].Recursive)
	assert.Same(t, root, ne.Children[0].Ancestor)
	assert.Equal(t, "2 single letters", ne.Children[1].FormalStep)

	assert.NoError(t, s.Failures())
}

func TestSearch_ThroughEquivalence(t *testing.T) {
	s, err := searcher.New(words.Reversed{Inner: ab}, words.Pack(), quiet())
	require.NoError(t, err)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, searcher.StatusFound, out.Status)

	root := out.Specification.Root
	assert.Equal(t, words.Reversed{Inner: ab}.Key(), root.InClass.Key())
	assert.Equal(t, ab.Key(), root.OutClass.Key())
	assert.Equal(t, []string{"reverse every word"}, root.Explanations)
	assert.NoError(t, out.Specification.Validate())
}

func TestSearch_Exhausted(t *testing.T) {
	pack := searcher.Pack{
		Name: "dead end",
		Batch: []searcher.Generator{rulesFor("split", map[string]searcher.Result{
			"R": searcher.Union("split", core.Named("A"), core.Named("B")),
		})},
	}
	s, err := searcher.New(core.Named("R"), pack, quiet())
	require.NoError(t, err)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, searcher.StatusExhausted, out.Status)
	assert.ErrorIs(t, out.Status.Err(), core.ErrExhausted)
	assert.Nil(t, out.Specification)
	assert.Equal(t, 2, out.Levels)
	assert.Equal(t, 3, out.Expansions)
}

func TestSearch_Budgets(t *testing.T) {
	cases := map[string][]searcher.Option{
		"levels":     {searcher.WithMaxLevels(1)},
		"expansions": {searcher.WithMaxExpansions(1)},
		"extraction": {searcher.WithExtractSteps(1)},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := searcher.New(ab, words.Pack(), append(opts, quiet())...)
			require.NoError(t, err)

			out, err := s.Search(context.Background())
			require.NoError(t, err)
			assert.Equal(t, searcher.StatusBudgetExceeded, out.Status)
			assert.ErrorIs(t, out.Status.Err(), searcher.ErrBudgetExceeded)
		})
	}
}

func TestSearch_CancelledContext(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Search(ctx)
	require.NoError(t, err)
	assert.Equal(t, searcher.StatusBudgetExceeded, out.Status)
	assert.Equal(t, 0, s.Expansions())
}

func TestSearch_DepthFirst(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet(), searcher.WithTraversal(searcher.DepthFirst))
	require.NoError(t, err)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, searcher.StatusFound, out.Status)
	assert.Equal(t, 2, out.Levels)
	assert.NoError(t, out.Specification.Validate())

	_, err = s.ExpandClasses(context.Background(), 1)
	assert.ErrorIs(t, err, searcher.ErrOptionViolation)
}

func TestSearch_DepthFirstMaxDepth(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet(),
		searcher.WithTraversal(searcher.DepthFirst),
		searcher.WithMaxDepth(1),
	)
	require.NoError(t, err)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, searcher.StatusBudgetExceeded, out.Status)
	assert.Equal(t, 1, out.Levels)
}

func TestDoLevel_ReportsExhaustion(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet())
	require.NoError(t, err)
	ctx := context.Background()

	exhausted, err := s.DoLevel(ctx)
	require.NoError(t, err)
	assert.False(t, exhausted)
	assert.False(t, hasSpec(t, s))

	exhausted, err = s.DoLevel(ctx)
	require.NoError(t, err)
	assert.True(t, exhausted)
	assert.True(t, hasSpec(t, s))

	exhausted, err = s.DoLevel(ctx)
	require.NoError(t, err)
	assert.True(t, exhausted)
	assert.Equal(t, 2, s.Levels())
}

func TestExpandClasses(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := s.ExpandClasses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, hasSpec(t, s))

	n, err = s.ExpandClasses(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, hasSpec(t, s))

	sp, err := s.Specification(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, sp.Size())
}

func TestSearch_ContainsGeneratorFailures(t *testing.T) {
	pack := searcher.Pack{
		Name: "faulty",
		Verification: []searcher.Generator{
			{Name: "panics", Apply: func(core.Class, searcher.Env) ([]searcher.Result, error) {
				panic("boom")
			}},
			verifies("A"),
		},
		Batch: []searcher.Generator{
			{Name: "errors", Apply: func(core.Class, searcher.Env) ([]searcher.Result, error) {
				return nil, errors.New("cannot split")
			}},
			{Name: "no apply"},
			rulesFor("split", map[string]searcher.Result{
				"R": searcher.Union("split", core.Named("A"), core.Named("R")),
			}),
		},
		Decomposition: []searcher.Generator{
			rulesFor("wrong shape", map[string]searcher.Result{
				"R": searcher.Union("not a product", core.Named("A"), core.Named("A")),
			}),
			rulesFor("too few", map[string]searcher.Result{
				"R": searcher.Decompose("one factor", core.Named("A")),
			}),
		},
	}
	s, err := searcher.New(core.Named("R"), pack, quiet())
	require.NoError(t, err)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, searcher.StatusFound, out.Status)
	assert.Equal(t, "split", out.Specification.Root.FormalStep)

	m := s.Metrics()
	// the panicking verifier fails once per discovered class: R and A
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeneratorFailures.WithLabelValues("verification")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeneratorFailures.WithLabelValues("batch")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeneratorFailures.WithLabelValues("decomposition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeneratorResults.WithLabelValues("batch")))

	failures := s.Failures()
	require.Error(t, failures)
	assert.Contains(t, failures.Error(), "boom")
	assert.Contains(t, failures.Error(), "cannot split")
	assert.Contains(t, failures.Error(), "no Apply")
	assert.True(t, errors.Is(failures, core.ErrType))
}

func TestSearch_DropsEmptyChildren(t *testing.T) {
	// S and P are left undecided so their rules can settle them.
	isEmpty := func(c core.Class) (bool, error) {
		switch c {
		case core.Named("S"), core.Named("P"):
			return false, errors.New("undecided")
		default:
			return c == core.Named("E") || c == core.Named("F"), nil
		}
	}
	pack := searcher.Pack{
		Name:         "with empties",
		Verification: []searcher.Generator{verifies("A")},
		Batch: []searcher.Generator{rulesFor("split", map[string]searcher.Result{
			"R": searcher.Union("split", core.Named("A"), core.Named("E")),
			"S": searcher.Union("all empty", core.Named("E"), core.Named("F")),
		})},
		Decomposition: []searcher.Generator{rulesFor("product", map[string]searcher.Result{
			"P": searcher.Decompose("times nothing", core.Named("A"), core.Named("E")),
		})},
		IsEmpty: isEmpty,
	}
	ctx := context.Background()

	t.Run("some empty", func(t *testing.T) {
		s, err := searcher.New(core.Named("R"), pack, quiet())
		require.NoError(t, err)
		out, err := s.Search(ctx)
		require.NoError(t, err)
		require.Equal(t, searcher.StatusFound, out.Status)

		store := s.Store()
		a, err := store.Classes.Label(core.Named("A"))
		require.NoError(t, err)
		assert.Equal(t, [][]core.Label{{a}}, store.Rules.Ends(s.RootLabel()))
		require.Len(t, out.Specification.Root.Children, 1)
	})

	for _, root := range []string{"S", "P"} {
		t.Run("empty "+root, func(t *testing.T) {
			s, err := searcher.New(core.Named(root), pack, quiet())
			require.NoError(t, err)
			out, err := s.Search(ctx)
			require.NoError(t, err)
			require.Equal(t, searcher.StatusFound, out.Status)

			assert.True(t, out.Specification.Root.Verified)
			assert.Equal(t, "contains no objects", out.Specification.Root.FormalStep)
			empty, known := s.Store().Classes.Empty(s.RootLabel())
			assert.True(t, known)
			assert.True(t, empty)
		})
	}

	t.Run("known non-empty", func(t *testing.T) {
		decided := pack
		decided.IsEmpty = func(c core.Class) (bool, error) {
			return c == core.Named("E"), nil
		}
		s, err := searcher.New(core.Named("P"), decided, quiet())
		require.NoError(t, err)
		out, err := s.Search(ctx)
		require.NoError(t, err)
		assert.Equal(t, searcher.StatusExhausted, out.Status)

		empty, known := s.Store().Classes.Empty(s.RootLabel())
		assert.True(t, known)
		assert.False(t, empty)
		assert.False(t, s.Store().Classes.IsVerified(s.RootLabel()))
		assert.ErrorIs(t, s.Failures(), core.ErrUnsoundRule)
		assert.Contains(t, s.Failures().Error(), "times nothing")
	})
}

func TestSearch_SymmetryPartnerIsNotReexpanded(t *testing.T) {
	calls := map[string]int{}
	pack := searcher.Pack{
		Name:         "symmetric",
		Verification: []searcher.Generator{verifies("A")},
		Symmetries: []searcher.Symmetry{{
			Name: "mirror",
			Apply: func(c core.Class) (core.Class, error) {
				if c == core.Named("R") {
					return core.Named("R'"), nil
				}

				return nil, nil
			},
		}},
		Batch: []searcher.Generator{{
			Name: "split",
			Apply: func(c core.Class, _ searcher.Env) ([]searcher.Result, error) {
				calls[c.Key()]++
				if c == core.Named("R") {
					return []searcher.Result{searcher.Union("split", core.Named("A"), core.Named("R"))}, nil
				}

				return nil, nil
			},
		}},
	}
	s, err := searcher.New(core.Named("R"), pack, quiet())
	require.NoError(t, err)

	store := s.Store()
	mirror, err := store.Classes.Label(core.Named("R'"))
	require.NoError(t, err)
	ok, err := store.Equivalences.IsEquivalent(s.RootLabel(), mirror)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.DoLevel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls["R"])
	assert.Equal(t, 0, calls["R'"])
	assert.True(t, store.Classes.Has(mirror, classdb.ExpandingOtherSymmetry))
	assert.True(t, hasSpec(t, s))

	step, ok := store.Equivalences.Explanation(s.RootLabel(), mirror)
	require.True(t, ok)
	assert.Equal(t, "a symmetry", step.Explanation)
}

func TestExtend_ReexpandsFinishedClasses(t *testing.T) {
	base := words.Pack()
	first := searcher.Pack{Name: "batch only", Batch: base.Batch, Verification: base.Verification}
	second := searcher.Pack{Name: "products", Decomposition: base.Decomposition}

	s, err := searcher.New(ab, first, quiet())
	require.NoError(t, err)
	ctx := context.Background()

	out, err := s.Search(ctx)
	require.NoError(t, err)
	require.Equal(t, searcher.StatusExhausted, out.Status)

	s.Extend(second)
	out, err = s.Search(ctx)
	require.NoError(t, err)
	require.Equal(t, searcher.StatusFound, out.Status)
	assert.Equal(t, 3, out.Levels)
	assert.Equal(t, "first letter", out.Specification.Root.Children[1].FormalStep)
}

func TestGenerators_SeeEnv(t *testing.T) {
	var seen []searcher.Env
	pack := searcher.Pack{
		Name: "env",
		Batch: []searcher.Generator{{
			Name: "record",
			Apply: func(_ core.Class, env searcher.Env) ([]searcher.Result, error) {
				seen = append(seen, env)

				return nil, nil
			},
		}},
	}
	params := map[string]any{"basis": []string{"12"}}
	s, err := searcher.New(core.Named("R"), pack, quiet(), searcher.WithParams(params))
	require.NoError(t, err)
	_, err = s.DoLevel(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, core.Named("R"), seen[0].Root)
	assert.Equal(t, params, seen[0].Params)
	assert.Equal(t, 0, seen[0].Pass)
}

func TestSearch_Metrics(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet())
	require.NoError(t, err)
	_, err = s.Search(context.Background())
	require.NoError(t, err)

	m := s.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Expansions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Levels))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Classes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rules))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Queue))

	n, err := testutil.GatherAndCount(s.Gatherer(), "combspec_searcher_expansions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := searcher.New(ab, words.Pack(), quiet(), searcher.WithRegisterer(reg))
	require.NoError(t, err)
	assert.Nil(t, s.Gatherer())

	_, err = s.Search(context.Background())
	require.NoError(t, err)
	n, err := testutil.GatherAndCount(reg, "combspec_searcher_levels_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSearch_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	s, err := searcher.New(ab, words.Pack(), quiet(), searcher.WithTracerProvider(tp))
	require.NoError(t, err)
	_, err = s.Search(context.Background())
	require.NoError(t, err)

	names := map[string]int{}
	for _, span := range sr.Ended() {
		names[span.Name()]++
	}
	assert.Equal(t, 1, names["searcher.Search"])
	assert.Equal(t, 2, names["searcher.DoLevel"])
	assert.Equal(t, 1, names["spec.Extract"])
}

func TestSearch_LogsWithSearchID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := searcher.New(ab, words.Pack(), searcher.WithLogger(logger))
	require.NoError(t, err)
	_, err = s.Search(context.Background())
	require.NoError(t, err)

	var finished map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		assert.Equal(t, s.ID().String(), line["search_id"])
		if line["msg"] == "search finished" {
			finished = line
		}
	}
	require.NotNil(t, finished)
	assert.Equal(t, "found", finished["status"])
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "found", searcher.StatusFound.String())
	assert.Equal(t, "exhausted", searcher.StatusExhausted.String())
	assert.Equal(t, "budget_exceeded", searcher.StatusBudgetExceeded.String())
	assert.NoError(t, searcher.StatusFound.Err())
}

func TestSpecification_BeforeFound(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet())
	require.NoError(t, err)

	_, err = s.Specification(context.Background())
	assert.ErrorIs(t, err, spec.ErrNoSpecification)
}

func TestSearch_CheckStepsBoundTheSpecificationCheck(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet(), searcher.WithCheckSteps(1))
	require.NoError(t, err)

	_, err = s.HasSpecification(context.Background())
	assert.ErrorIs(t, err, spec.ErrBudgetExceeded)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, searcher.StatusBudgetExceeded, out.Status)
	assert.Equal(t, 0, s.Expansions())

	_, err = searcher.New(ab, words.Pack(), searcher.WithCheckSteps(-1))
	assert.ErrorIs(t, err, searcher.ErrOptionViolation)
}

func TestHasSpecification_HonoursContext(t *testing.T) {
	s, err := searcher.New(ab, words.Pack(), quiet())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := s.HasSpecification(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, spec.ErrBudgetExceeded)
}

func TestReport_CountsClassStates(t *testing.T) {
	pack := searcher.Pack{
		Name:         "with empties",
		Verification: []searcher.Generator{verifies("A")},
		Batch: []searcher.Generator{rulesFor("split", map[string]searcher.Result{
			"R": searcher.Union("split", core.Named("A"), core.Named("E")),
		})},
		IsEmpty: func(c core.Class) (bool, error) { return c == core.Named("E"), nil },
	}
	s, err := searcher.New(core.Named("R"), pack, quiet())
	require.NoError(t, err)
	out, err := s.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, searcher.StatusFound, out.Status)

	r := s.Report()
	assert.Equal(t, 1, r.Levels)
	assert.Equal(t, 3, r.Classes)
	assert.Equal(t, 1, r.Rules)
	assert.Equal(t, 2, r.Verified)
	assert.Equal(t, 1, r.StrategyVerified)
	assert.Equal(t, 1, r.Empty)
	assert.Equal(t, 1, r.Expandable)
	assert.Equal(t, 3, r.EquivalenceSets)
	assert.Equal(t, searcher.QueueSizes{}, r.Queue)
	assert.Len(t, r.Phases, 7)
	assert.Contains(t, r.Layers, "with empties")

	var spent time.Duration
	for _, d := range r.Phases {
		spent += d
	}
	assert.LessOrEqual(t, spent, r.Elapsed)

	// the status line after the level published the same counts
	m := s.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verified))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StrategyVerified))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Empty))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Expandable))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EquivalenceSets))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueParts.WithLabelValues("next")))
	assert.Equal(t, 7, testutil.CollectAndCount(m.PhaseSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LayerSeconds))
}

func TestSearch_StatusLogCarriesPhases(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s, err := searcher.New(ab, words.Pack(), searcher.WithLogger(logger))
	require.NoError(t, err)
	_, err = s.Search(context.Background())
	require.NoError(t, err)

	var status map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		if line["msg"] == "search status" {
			status = line
		}
	}
	require.NotNil(t, status)
	for _, key := range []string{"verified", "strategy_verified", "empty", "expandable", "equivalence_sets", "queue", "phases", "layers"} {
		assert.Contains(t, status, key)
	}
	phases, ok := status["phases"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, phases, "tree_search")
	assert.Contains(t, phases, "expansion")
}
