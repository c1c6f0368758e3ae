package fit

import (
	"log/slog"
	"time"

	"github.com/foldfit/foldfit/internal/fold"
	"github.com/foldfit/foldfit/internal/knowledge"
	"github.com/foldfit/foldfit/internal/opt"
)

// Result holds the outcome of one fitting session.
type Result struct {
	// Theta is the best Fourier parameter vector found.
	Theta []float64 `json:"theta"`
	// Objective is the combined residual + knowledge penalty at Theta.
	Objective float64 `json:"objective"`
	// InitialObjective is the penalty at the initial guess (local strategy)
	// or the first generation's best (global strategy).
	InitialObjective float64 `json:"initialObjective"`
	// Converged reports the solver's convergence flag.
	Converged bool `json:"converged"`
	// ConstraintsSatisfied reports restricted-mode constraint status.
	ConstraintsSatisfied bool `json:"constraintsSatisfied"`
	// Iterations and Evaluations are the solver's run counts.
	Iterations  int `json:"iterations"`
	Evaluations int `json:"evaluations"`
	// Tightness, Asymmetry and AxialTraces describe the fitted fold.
	Tightness   float64   `json:"tightness"`
	Asymmetry   float64   `json:"asymmetry"`
	AxialTraces []float64 `json:"axialTraces,omitempty"`
	// Elapsed is the wall-clock duration of the solver run.
	Elapsed time.Duration `json:"elapsed"`
	// Message describes how the solver terminated.
	Message string `json:"message,omitempty"`
}

// Session binds a validated problem to its knowledge aggregator and combined
// objective. A session is safe for concurrent objective evaluations; Run is
// meant to be called once.
type Session struct {
	problem  Problem
	know     *knowledge.Knowledge
	sigma    float64
	progress func(generation int, best float64) bool
}

// NewSession validates the problem and prepares the combined objective.
func NewSession(p Problem) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	constraints := p.Constraints
	if constraints == nil {
		constraints = knowledge.NewConstraintSet()
	}

	sigma := p.Solver.ResidualSigma
	if sigma == 0 {
		sigma = defaultResidualSigma
	}

	return &Session{
		problem: p,
		know:    knowledge.New(p.FrameCoordinates(), constraints),
		sigma:   sigma,
	}, nil
}

// OnProgress registers a per-generation callback for the global strategy.
// Returning true from the callback stops the search.
func (s *Session) OnProgress(fn func(generation int, best float64) bool) {
	s.progress = fn
}

// Knowledge exposes the session's constraint aggregator.
func (s *Session) Knowledge() *knowledge.Knowledge {
	return s.know
}

// Objective is the combined fitting objective: the negative log-likelihood of
// the rotation angle residuals under N(0, residualSigma), plus the knowledge
// penalty.
func (s *Session) Objective(theta []float64) (float64, error) {
	kv, err := s.know.TotalObjective(theta)
	if err != nil {
		return 0, err
	}

	var residuals float64
	for _, sample := range s.problem.Samples {
		r := fold.CurveAt(sample.X, theta) - sample.Angle
		residuals += -knowledge.GaussianLogLikelihood(r, 0, s.sigma)
	}
	return residuals + kv, nil
}

// Run executes the configured solver on the combined objective.
func (s *Session) Run() (*Result, error) {
	strategy := opt.GlobalStochastic
	if s.problem.Solver.Strategy == StrategyLocal {
		strategy = opt.LocalConstrained
	}

	var initial float64
	solver, err := s.buildSolver(strategy, &initial)
	if err != nil {
		return nil, err
	}

	slog.Info("starting fit",
		"strategy", strategy.String(),
		"samples", len(s.problem.Samples),
		"constraints", s.know.Constraints().Len(),
	)

	start := time.Now()
	res, err := solver.Run(s.Objective)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	out := &Result{
		Theta:                res.X,
		Objective:            res.F,
		InitialObjective:     initial,
		Converged:            res.Converged,
		ConstraintsSatisfied: res.ConstraintsSatisfied,
		Iterations:           res.Iterations,
		Evaluations:          res.Evaluations,
		Tightness:            fold.Tightness(res.X),
		Asymmetry:            fold.Asymmetry(res.X),
		AxialTraces:          fold.Intercepts(s.problem.FrameCoordinates(), res.X),
		Elapsed:              elapsed,
		Message:              res.Message,
	}

	slog.Info("fit complete",
		"objective", out.Objective,
		"converged", out.Converged,
		"iterations", out.Iterations,
		"elapsed", elapsed,
	)
	return out, nil
}

// buildSolver assembles the opt.Solver for the chosen strategy. The initial
// objective reference value is written through the given pointer: eagerly for
// the local strategy, at the first generation for the global one.
func (s *Session) buildSolver(strategy opt.Strategy, initial *float64) (*opt.Solver, error) {
	if strategy == opt.LocalConstrained {
		cfg := opt.LocalConfig{X0: s.problem.Solver.X0}

		if s.problem.Solver.Restricted {
			nlcs, err := s.know.RestrictedConstraints()
			if err != nil {
				return nil, err
			}
			for _, c := range nlcs {
				cfg.Constraints = append(cfg.Constraints, opt.Constraint{
					Name:  c.Name,
					Func:  c.Func,
					Lower: c.Lower,
					Upper: c.Upper,
				})
			}
		}

		v, err := s.Objective(cfg.X0)
		if err != nil {
			return nil, err
		}
		*initial = v
		return opt.NewSolver(strategy, opt.WithLocalConfig(cfg)), nil
	}

	cfg := opt.GlobalConfig{
		Bounds:         s.problem.Solver.Bounds,
		MaxGenerations: s.problem.Solver.MaxGenerations,
		Seed:           s.problem.Solver.Seed,
		Polish:         s.problem.Solver.Polish,
		Workers:        s.problem.Solver.Workers,
		Callback: func(gen int, best float64) bool {
			if gen == 1 {
				*initial = best
			}
			if s.progress != nil {
				return s.progress(gen, best)
			}
			return false
		},
	}
	return opt.NewSolver(strategy, opt.WithGlobalConfig(cfg)), nil
}
