// Package opt provides the optimization engine behind fold curve fitting: a
// strategy facade over a population-based global search and a constrained
// quasi-Newton local search.
package opt

import (
	"errors"
	"fmt"
)

// Objective maps a candidate parameter vector to a scalar penalty. Errors
// (e.g. parameter validation failures) abort the surrounding optimization run
// and propagate unmodified to the caller.
type Objective func(theta []float64) (float64, error)

// Strategy selects an optimization backend.
type Strategy int

const (
	// GlobalStochastic is differential-evolution-style global search over
	// axis-aligned bounds.
	GlobalStochastic Strategy = iota
	// LocalConstrained is quasi-Newton local descent under nonlinear
	// constraint bounds.
	LocalConstrained
	// LocalUnconstrained is reserved and not implemented.
	LocalUnconstrained
	// Swarm is reserved and not implemented.
	Swarm
)

func (s Strategy) String() string {
	switch s {
	case GlobalStochastic:
		return "global_stochastic"
	case LocalConstrained:
		return "local_constrained"
	case LocalUnconstrained:
		return "local_unconstrained"
	case Swarm:
		return "swarm"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ErrNotImplemented is returned when looking up a reserved strategy.
var ErrNotImplemented = errors.New("solver strategy not implemented")

// Result is the uniform optimization result record shared by all backends.
// Non-convergence is reported through Converged, never as an error.
type Result struct {
	// X is the best parameter vector found.
	X []float64
	// F is the objective value at X.
	F float64
	// Converged reports whether the backend's convergence criterion was met
	// before its iteration budget ran out.
	Converged bool
	// Iterations is the number of generations (global) or major iterations
	// (local) performed.
	Iterations int
	// Evaluations is the number of objective evaluations performed.
	Evaluations int
	// ConstraintsSatisfied reports whether all nonlinear constraints hold at
	// X. Always true for unconstrained runs.
	ConstraintsSatisfied bool
	// Message describes how the run terminated.
	Message string
}

// Operation is one solver backend bound to its configuration.
type Operation func(objective Objective) (*Result, error)

// Solver is the construction-time choice of strategy plus the backend
// configurations. Each backend also remains callable directly through
// GlobalSearch and LocalConstrainedSearch.
type Solver struct {
	strategy Strategy
	global   GlobalConfig
	local    LocalConfig
}

// Option configures a Solver.
type Option func(*Solver)

// WithGlobalConfig sets the global search configuration.
func WithGlobalConfig(cfg GlobalConfig) Option {
	return func(s *Solver) { s.global = cfg }
}

// WithLocalConfig sets the local constrained search configuration.
func WithLocalConfig(cfg LocalConfig) Option {
	return func(s *Solver) { s.local = cfg }
}

// NewSolver stores the strategy and options. No validation happens here;
// configuration errors surface when the operation runs.
func NewSolver(strategy Strategy, opts ...Option) *Solver {
	s := &Solver{strategy: strategy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the strategy the solver was constructed with.
func (s *Solver) Strategy() Strategy {
	return s.strategy
}

// Lookup returns the operation for a strategy. Reserved strategies yield an
// explicit ErrNotImplemented rather than a nil operation.
func (s *Solver) Lookup(strategy Strategy) (Operation, error) {
	switch strategy {
	case GlobalStochastic:
		return func(objective Objective) (*Result, error) {
			return GlobalSearch(objective, s.global)
		}, nil
	case LocalConstrained:
		return func(objective Objective) (*Result, error) {
			return LocalConstrainedSearch(objective, s.local)
		}, nil
	case LocalUnconstrained, Swarm:
		return nil, fmt.Errorf("%s: %w", strategy, ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%s: unknown solver strategy", strategy)
	}
}

// Run executes the constructed strategy on the given objective.
func (s *Solver) Run(objective Objective) (*Result, error) {
	op, err := s.Lookup(s.strategy)
	if err != nil {
		return nil, err
	}
	return op(objective)
}
