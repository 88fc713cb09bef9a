package searcher

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

// Sentinel errors for searches.
var (
	// ErrBudgetExceeded indicates a level, expansion, time or context budget ran out.
	ErrBudgetExceeded = errors.New("searcher: budget exceeded")

	// ErrOptionViolation indicates an invalid Option.
	ErrOptionViolation = errors.New("searcher: invalid option supplied")

	// ErrNoPack indicates a Searcher built without a strategy pack.
	ErrNoPack = errors.New("searcher: no strategy pack")
)

// Traversal selects the expansion order.
type Traversal int

const (
	// BreadthFirst expands one level of newly found classes per DoLevel.
	BreadthFirst Traversal = iota
	// DepthFirst walks rules from the root one depth further per DoLevel.
	DepthFirst
)

// String returns the config name of t.
func (t Traversal) String() string {
	switch t {
	case BreadthFirst:
		return "breadth_first"
	case DepthFirst:
		return "depth_first"
	default:
		return fmt.Sprintf("traversal(%d)", int(t))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Traversal) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "breadth_first", "bfs":
		*t = BreadthFirst
	case "depth_first", "dfs":
		*t = DepthFirst
	default:
		return errors.Wrapf(ErrOptionViolation, "unknown traversal %q", string(b))
	}

	return nil
}

// Option configures a Searcher.
type Option func(*Options)

// Options holds Searcher parameters. Zero limits mean unlimited.
type Options struct {
	Traversal Traversal

	// MaxLevels bounds the number of DoLevel calls made by Search.
	MaxLevels int
	// MaxExpansions bounds the number of classes expanded.
	MaxExpansions int
	// MaxDepth bounds DepthFirst traversal.
	MaxDepth int
	// TimeLimit bounds the wall-clock time of Search.
	TimeLimit time.Duration
	// ExtractSteps bounds specification extraction.
	ExtractSteps int
	// CheckSteps bounds each specification check made between levels.
	CheckSteps int
	// StatusInterval throttles periodic status log lines.
	StatusInterval time.Duration

	// Params are passed to every generator through Env.
	Params map[string]any

	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	Registerer     prometheus.Registerer

	err error
}

// DefaultOptions returns breadth-first search without limits, logging to
// slog.Default, the global tracer provider and a private metrics registry.
func DefaultOptions() Options {
	return Options{
		Traversal:      BreadthFirst,
		StatusInterval: 10 * time.Second,
		Logger:         slog.Default(),
		TracerProvider: otel.GetTracerProvider(),
	}
}

func (o *Options) violate(format string, args ...any) {
	o.err = errors.Wrapf(ErrOptionViolation, format, args...)
}

// WithTraversal selects BreadthFirst or DepthFirst.
func WithTraversal(t Traversal) Option {
	return func(o *Options) {
		if t != BreadthFirst && t != DepthFirst {
			o.violate("unknown traversal %d", int(t))

			return
		}
		o.Traversal = t
	}
}

// WithMaxLevels bounds Search to n levels; n must be >= 0.
func WithMaxLevels(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("MaxLevels must be >= 0, got %d", n)

			return
		}
		o.MaxLevels = n
	}
}

// WithMaxExpansions bounds the number of classes expanded; n must be >= 0.
func WithMaxExpansions(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("MaxExpansions must be >= 0, got %d", n)

			return
		}
		o.MaxExpansions = n
	}
}

// WithMaxDepth bounds DepthFirst traversal; n must be >= 0.
func WithMaxDepth(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("MaxDepth must be >= 0, got %d", n)

			return
		}
		o.MaxDepth = n
	}
}

// WithTimeLimit bounds the wall-clock time of Search.
func WithTimeLimit(d time.Duration) Option {
	return func(o *Options) {
		if d < 0 {
			o.violate("TimeLimit must be >= 0, got %s", d)

			return
		}
		o.TimeLimit = d
	}
}

// WithExtractSteps bounds specification extraction.
func WithExtractSteps(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("ExtractSteps must be >= 0, got %d", n)

			return
		}
		o.ExtractSteps = n
	}
}

// WithCheckSteps bounds each specification check; n must be >= 0.
func WithCheckSteps(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.violate("CheckSteps must be >= 0, got %d", n)

			return
		}
		o.CheckSteps = n
	}
}

// WithStatusInterval sets the minimum gap between status log lines.
func WithStatusInterval(d time.Duration) Option {
	return func(o *Options) {
		if d <= 0 {
			o.violate("StatusInterval must be > 0, got %s", d)

			return
		}
		o.StatusInterval = d
	}
}

// WithParams sets the parameters handed to generators.
func WithParams(params map[string]any) Option {
	return func(o *Options) { o.Params = params }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider. A nil provider is ignored.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		if tp != nil {
			o.TracerProvider = tp
		}
	}
}

// WithRegisterer registers the searcher metrics on r instead of a private registry.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *Options) {
		if r != nil {
			o.Registerer = r
		}
	}
}

// Status is the terminal state of Search.
type Status int

const (
	// StatusFound means a specification was extracted.
	StatusFound Status = iota
	// StatusExhausted means no class was left to expand.
	StatusExhausted
	// StatusBudgetExceeded means a caller bound stopped the search.
	StatusBudgetExceeded
)

// String returns a log-friendly name.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	case StatusBudgetExceeded:
		return "budget_exceeded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Err maps a status to core.ErrExhausted or ErrBudgetExceeded; StatusFound maps to nil.
func (s Status) Err() error {
	switch s {
	case StatusExhausted:
		return core.ErrExhausted
	case StatusBudgetExceeded:
		return ErrBudgetExceeded
	default:
		return nil
	}
}

// Outcome reports how a Search ended.
type Outcome struct {
	ID            uuid.UUID
	Status        Status
	Specification *spec.Specification
	Levels        int
	Expansions    int
	Classes       int
	Rules         int
	Elapsed       time.Duration
}
