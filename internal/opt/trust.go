package opt

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Constraint bounds the value of a scalar function during constrained local
// search: Lower <= Func(theta) <= Upper must hold at the solution.
type Constraint struct {
	Name  string
	Func  Objective
	Lower float64
	Upper float64
}

// LocalConfig configures the constrained quasi-Newton backend.
type LocalConfig struct {
	// X0 is the initial guess. Required.
	X0 []float64
	// Constraints are the nonlinear bounds enforced at the solution.
	// Optional; empty means unconstrained descent.
	Constraints []Constraint
	// MaxIterations bounds each inner descent. Default 1000.
	MaxIterations int
	// FeasibilityTol is the violation below which a constraint counts as
	// satisfied. Default 1e-6.
	FeasibilityTol float64
	// PenaltyWeight is the initial exterior penalty coefficient. Default 10.
	PenaltyWeight float64
	// PenaltyRounds is the number of outer penalty escalations. Default 6.
	PenaltyRounds int
}

func (cfg LocalConfig) withDefaults() LocalConfig {
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 1000
	}
	if cfg.FeasibilityTol == 0 {
		cfg.FeasibilityTol = 1e-6
	}
	if cfg.PenaltyWeight == 0 {
		cfg.PenaltyWeight = 10
	}
	if cfg.PenaltyRounds == 0 {
		cfg.PenaltyRounds = 6
	}
	return cfg
}

// LocalConstrainedSearch minimizes the objective from cfg.X0 with BFGS
// quasi-Newton descent and forward (2-point) finite-difference gradients.
// Nonlinear constraint bounds are enforced by exterior quadratic penalties
// escalated over outer rounds. Budget exhaustion yields a non-converged
// result, not an error; objective errors propagate unmodified.
func LocalConstrainedSearch(objective Objective, cfg LocalConfig) (*Result, error) {
	cfg = cfg.withDefaults()
	if len(cfg.X0) == 0 {
		return nil, errors.New("local constrained search: initial guess x0 is required")
	}

	x := append([]float64(nil), cfg.X0...)
	rho := cfg.PenaltyWeight

	res := &Result{Message: "penalty rounds exhausted"}
	var descentOK bool

	for round := 0; round < cfg.PenaltyRounds; round++ {
		var objErr error
		penalized := func(p []float64) float64 {
			v, err := objective(p)
			if err != nil {
				objErr = err
				return math.Inf(1)
			}
			for _, c := range cfg.Constraints {
				cv, err := c.Func(p)
				if err != nil {
					objErr = err
					return math.Inf(1)
				}
				if viol := constraintViolation(c, cv); viol > 0 {
					v += rho * viol * viol
				}
			}
			return v
		}

		problem := optimize.Problem{
			Func: penalized,
			Grad: func(grad, p []float64) {
				fd.Gradient(grad, penalized, p, &fd.Settings{Formula: fd.Forward})
			},
		}
		// Forward-difference gradients carry ~sqrt(eps) noise, so the
		// default 1e-12 gradient threshold is unreachable.
		settings := &optimize.Settings{
			MajorIterations:   cfg.MaxIterations,
			GradientThreshold: 1e-6,
		}

		local, err := optimize.Minimize(problem, x, settings, &optimize.BFGS{})
		if objErr != nil {
			return nil, objErr
		}
		if err != nil && local == nil {
			return nil, err
		}

		x = append(x[:0], local.X...)
		descentOK = err == nil &&
			local.Status != optimize.IterationLimit &&
			local.Status != optimize.FunctionEvaluationLimit
		res.Iterations += local.Stats.MajorIterations
		res.Evaluations += local.Stats.FuncEvaluations

		satisfied, err := constraintsSatisfied(cfg, x)
		if err != nil {
			return nil, err
		}
		if satisfied {
			res.ConstraintsSatisfied = true
			break
		}
		rho *= 10
	}

	f, err := objective(x)
	if err != nil {
		return nil, err
	}

	res.X = x
	res.F = f
	res.Converged = descentOK && res.ConstraintsSatisfied
	if res.Converged {
		res.Message = "descent converged"
	}
	return res, nil
}

// constraintViolation returns how far a constraint value falls outside its
// bounds; zero when the value is admissible.
func constraintViolation(c Constraint, v float64) float64 {
	switch {
	case v < c.Lower:
		return c.Lower - v
	case v > c.Upper:
		return v - c.Upper
	default:
		return 0
	}
}

// constraintsSatisfied checks all constraints at x within the feasibility
// tolerance.
func constraintsSatisfied(cfg LocalConfig, x []float64) (bool, error) {
	for _, c := range cfg.Constraints {
		v, err := c.Func(x)
		if err != nil {
			return false, err
		}
		if constraintViolation(c, v) > cfg.FeasibilityTol {
			return false, nil
		}
	}
	return true, nil
}
