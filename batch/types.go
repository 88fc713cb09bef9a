package batch

import (
	"log/slog"
	"runtime"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/searcher"
)

// ErrOptionViolation indicates an invalid Option.
var ErrOptionViolation = errors.New("batch: invalid option supplied")

// Job is one search to run.
type Job struct {
	Name    string
	Root    core.Class
	Pack    searcher.Pack
	Options []searcher.Option
}

// Result is the outcome of one Job, at the job's index in the input.
type Result struct {
	Name    string
	Outcome *searcher.Outcome
	Err     error
}

// Option configures Run.
type Option func(*Options)

// Options holds Run parameters.
type Options struct {
	// Parallelism bounds the searches running at once.
	Parallelism int
	// FailFast cancels the remaining jobs after the first failure.
	FailFast bool
	Logger   *slog.Logger

	err error
}

// DefaultOptions runs one search per CPU and never fails fast.
func DefaultOptions() Options {
	return Options{
		Parallelism: runtime.GOMAXPROCS(0),
		Logger:      slog.Default(),
	}
}

// WithParallelism bounds concurrent searches; n must be >= 1.
func WithParallelism(n int) Option {
	return func(o *Options) {
		if n < 1 {
			o.err = errors.Wrapf(ErrOptionViolation, "Parallelism must be >= 1, got %d", n)

			return
		}
		o.Parallelism = n
	}
}

// WithFailFast stops launching jobs and cancels running ones after a failure.
func WithFailFast(on bool) Option {
	return func(o *Options) { o.FailFast = on }
}

// WithLogger sets the logger; each search logs under it with a job key.
// A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
