package genf

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
)

// Sentinel errors for derivation and solving.
var (
	// ErrNoSolution indicates the algebra returned no candidate solution.
	ErrNoSolution = errors.New("genf: no solution")

	// ErrParse indicates a closed form that cannot be parsed.
	ErrParse = errors.New("genf: cannot parse closed form")

	// ErrDivision indicates a series division by a series with zero constant term.
	ErrDivision = errors.New("genf: series is not invertible")

	// ErrNotInteger indicates a series with a fractional coefficient.
	ErrNotInteger = errors.New("genf: coefficient is not an integer")

	// ErrUnboundSymbol indicates an expression refers to an unknown without a value.
	ErrUnboundSymbol = errors.New("genf: unbound symbol")

	// ErrSystem indicates a malformed equation system.
	ErrSystem = errors.New("genf: malformed system")

	// ErrOptionViolation indicates an invalid Option.
	ErrOptionViolation = errors.New("genf: invalid option supplied")
)

// Solution maps unknowns to candidate expressions.
type Solution map[Symbol]Expr

// Algebra is the symbolic solver the Deriver delegates to.
type Algebra interface {
	// Solve returns candidate solutions of eqs for unknowns. No candidate
	// is not an error.
	Solve(eqs []Equation, unknowns []Symbol) ([]Solution, error)
	// SeriesCoefficients expands e to its first order coefficients.
	SeriesCoefficients(e Expr, order int) ([]*big.Int, error)
}

// Enumerator lists the objects of a class by size.
type Enumerator interface {
	ObjectsOfSize(c core.Class, n int) ([]core.Object, error)
}

// ClosedForms returns the closed form of a verified class, if one is known,
// in the syntax of ParseClosedForm.
type ClosedForms func(c core.Class) (string, bool)

// DefaultOrder is the number of terms checked against enumeration.
const DefaultOrder = 10

// Option configures a Deriver.
type Option func(*Options)

// Options holds Deriver parameters.
type Options struct {
	// Order is the number of coefficients compared with enumeration.
	Order int
	// Algebra solves the derived system; nil means SeriesAlgebra{Order}.
	Algebra Algebra
	// ClosedForms supplies closed forms of verified classes. Optional.
	ClosedForms ClosedForms
	Logger      *slog.Logger

	err error
}

// DefaultOptions returns order 10, the series algebra and slog.Default.
func DefaultOptions() Options {
	return Options{Order: DefaultOrder, Logger: slog.Default()}
}

// WithOrder sets the number of coefficients compared; n must be > 0.
func WithOrder(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			o.err = errors.Wrapf(ErrOptionViolation, "Order must be > 0, got %d", n)

			return
		}
		o.Order = n
	}
}

// WithAlgebra replaces the series algebra. A nil algebra is ignored.
func WithAlgebra(a Algebra) Option {
	return func(o *Options) {
		if a != nil {
			o.Algebra = a
		}
	}
}

// WithClosedForms registers closed forms for verified classes.
func WithClosedForms(f ClosedForms) Option {
	return func(o *Options) { o.ClosedForms = f }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// checkCtx is called between candidates and between enumerated sizes.
func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "genf")
	}

	return nil
}
