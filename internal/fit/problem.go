// Package fit orchestrates one fold fitting session: it combines the data
// residual likelihood with the geological knowledge penalty and drives the
// configured solver over the Fourier parameter space.
package fit

import (
	"errors"
	"fmt"

	"github.com/foldfit/foldfit/internal/knowledge"
)

// Solver strategy names accepted in problem files.
const (
	StrategyGlobal = "global"
	StrategyLocal  = "local"
)

// defaultResidualSigma is the assumed standard deviation (degrees) of the
// rotation angle measurement noise when the problem does not set one.
const defaultResidualSigma = 10.0

// Sample pairs a fold frame coordinate with the observed fold rotation angle
// at that position, in degrees.
type Sample struct {
	X     float64 `json:"x"`
	Angle float64 `json:"angle"`
}

// SolverOptions selects and configures the optimization backend for a
// problem.
type SolverOptions struct {
	// Strategy is "global" (default) or "local".
	Strategy string `json:"strategy,omitempty"`
	// Bounds holds one (min, max) pair per Fourier parameter; required for
	// the global strategy.
	Bounds [][2]float64 `json:"bounds,omitempty"`
	// X0 is the initial guess; required for the local strategy.
	X0 []float64 `json:"x0,omitempty"`
	// Restricted builds nonlinear constraints from the bounded knowledge
	// priors and hands them to the local backend.
	Restricted bool `json:"restricted,omitempty"`
	// MaxGenerations bounds the global search (0 = backend default).
	MaxGenerations int `json:"maxGenerations,omitempty"`
	// Seed drives the global search RNG (0 = backend default).
	Seed int64 `json:"seed,omitempty"`
	// Polish runs local refinement after the global search.
	Polish bool `json:"polish,omitempty"`
	// Workers > 1 evaluates trial populations concurrently.
	Workers int `json:"workers,omitempty"`
	// ResidualSigma is the data noise standard deviation in degrees.
	ResidualSigma float64 `json:"residualSigma,omitempty"`
}

// Problem is the complete, serializable definition of one fitting session.
type Problem struct {
	Samples     []Sample                 `json:"samples"`
	Constraints *knowledge.ConstraintSet `json:"constraints,omitempty"`
	Solver      SolverOptions            `json:"solver"`
}

// Validate checks that the problem is runnable.
func (p *Problem) Validate() error {
	if len(p.Samples) < 2 {
		return errors.New("problem: at least 2 samples are required")
	}
	switch p.Solver.Strategy {
	case "", StrategyGlobal:
		if len(p.Solver.Bounds) < 4 {
			return fmt.Errorf("problem: global strategy needs bounds for at least 4 parameters, got %d", len(p.Solver.Bounds))
		}
	case StrategyLocal:
		if len(p.Solver.X0) < 4 {
			return fmt.Errorf("problem: local strategy needs an initial guess of at least 4 parameters, got %d", len(p.Solver.X0))
		}
	default:
		return fmt.Errorf("problem: unknown solver strategy %q", p.Solver.Strategy)
	}
	if p.Solver.ResidualSigma < 0 {
		return fmt.Errorf("problem: residualSigma must be >= 0, got %v", p.Solver.ResidualSigma)
	}
	return nil
}

// FrameCoordinates returns the fold frame coordinates of the samples.
func (p *Problem) FrameCoordinates() []float64 {
	x := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		x[i] = s.X
	}
	return x
}
