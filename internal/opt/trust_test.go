package opt

import (
	"errors"
	"math"
	"testing"
)

func TestLocalConstrainedUnconstrainedQuadratic(t *testing.T) {
	res, err := LocalConstrainedSearch(shiftedQuadratic, LocalConfig{X0: []float64{8, 8}})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.X[0]-3) > 1e-3 || math.Abs(res.X[1]+2) > 1e-3 {
		t.Errorf("minimum at %v, want near (3, -2)", res.X)
	}
	if !res.ConstraintsSatisfied {
		t.Error("unconstrained run must report constraints satisfied")
	}
}

func TestLocalConstrainedRespectsObjectiveBand(t *testing.T) {
	// Minimize p0^2 from 5 while the objective value itself is constrained
	// to the band [1, 4]: the solver must stop short of the unconstrained
	// minimum at 0.
	objective := func(p []float64) (float64, error) { return p[0] * p[0], nil }

	res, err := LocalConstrainedSearch(objective, LocalConfig{
		X0: []float64{5},
		Constraints: []Constraint{
			{Name: "band", Func: objective, Lower: 1, Upper: 4},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.F < 1-1e-3 || res.F > 4+1e-3 {
		t.Errorf("final objective %v outside the constrained band [1, 4]", res.F)
	}
	if !res.ConstraintsSatisfied {
		t.Error("expected constraints satisfied")
	}
}

func TestLocalConstrainedRequiresInitialGuess(t *testing.T) {
	if _, err := LocalConstrainedSearch(sphere, LocalConfig{}); err == nil {
		t.Error("expected error for missing x0")
	}
}

func TestLocalConstrainedObjectiveErrorPropagates(t *testing.T) {
	sentinel := errors.New("bad theta")
	objective := func(p []float64) (float64, error) { return 0, sentinel }

	_, err := LocalConstrainedSearch(objective, LocalConfig{X0: []float64{1}})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected objective error to propagate, got %v", err)
	}
}

func TestLocalConstrainedExhaustedBudgetIsNotAnError(t *testing.T) {
	// An unsatisfiable constraint leaves the run non-converged but must not
	// raise.
	objective := func(p []float64) (float64, error) { return p[0] * p[0], nil }
	impossible := func(p []float64) (float64, error) { return -1, nil }

	res, err := LocalConstrainedSearch(objective, LocalConfig{
		X0: []float64{5},
		Constraints: []Constraint{
			{Name: "impossible", Func: impossible, Lower: 1, Upper: 2},
		},
		PenaltyRounds: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Converged {
		t.Error("unsatisfiable constraint must not report convergence")
	}
	if res.ConstraintsSatisfied {
		t.Error("unsatisfiable constraint must not report satisfaction")
	}
}
