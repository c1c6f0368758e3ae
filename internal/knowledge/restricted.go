package knowledge

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// likelihoodRangeSamples is the number of evenly spaced points between a
// constraint's feature bounds used to derive its numeric objective range.
const likelihoodRangeSamples = 100

// DerivativeApprox names a first-derivative approximation scheme for the
// local optimizer.
type DerivativeApprox string

// CurvatureApprox names a curvature (Hessian) approximation scheme for the
// local optimizer.
type CurvatureApprox string

const (
	// TwoPointForward is a forward finite-difference first derivative.
	TwoPointForward DerivativeApprox = "2-point"
	// QuasiNewtonBFGS is a BFGS quasi-Newton curvature update.
	QuasiNewtonBFGS CurvatureApprox = "bfgs"
)

// NonlinearConstraint bounds a sub-objective's value during restricted-mode
// local optimization. Lower and Upper are not the feature bounds themselves:
// they are the extremes of the negative log-likelihood over the feature
// interval [lb, ub], so the optimizer is confined to parameter vectors whose
// penalty stays within the range the prior admits.
type NonlinearConstraint struct {
	Name     string
	Func     func(theta []float64) (float64, error)
	Lower    float64
	Upper    float64
	Jacobian DerivativeApprox
	Hessian  CurvatureApprox
}

// termFor resolves the sub-objective bound by a constraint name. Axial trace
// names match by substring; the remaining names must be recognized.
func (k *Knowledge) termFor(name string) (termFunc, error) {
	if isAxialTraceName(name) {
		return k.AxialTraceObjective, nil
	}
	if fn, ok := k.terms[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("constraint %q: %w: no objective term for name", name, ErrMalformedConstraint)
}

// RestrictedConstraints builds one NonlinearConstraint per constraint in the
// set that carries feature bounds, in the set's insertion order. A constraint
// carrying only one of lb/ub is an error, and any error aborts the whole
// build: restricted-mode setup is all-or-nothing.
func (k *Knowledge) RestrictedConstraints() ([]NonlinearConstraint, error) {
	var out []NonlinearConstraint
	for _, name := range k.constraints.Names() {
		c, _ := k.constraints.Get(name)

		if c.LB == nil && c.UB == nil {
			continue
		}
		if !c.Bounded() {
			return nil, fmt.Errorf("constraint %q: %w: lb and ub must both be set", name, ErrMalformedConstraint)
		}

		fn, err := k.termFor(name)
		if err != nil {
			return nil, err
		}

		// Numeric bounds are the extremes of the negative log-likelihood
		// over the feature interval, not the interval itself.
		vals := make([]float64, likelihoodRangeSamples)
		floats.Span(vals, *c.LB, *c.UB)
		profile := gaussianLogLikelihoodProfile(vals, c.Mu, c.Sigma)

		out = append(out, NonlinearConstraint{
			Name:     name,
			Func:     fn,
			Lower:    -floats.Max(profile),
			Upper:    -floats.Min(profile),
			Jacobian: TwoPointForward,
			Hessian:  QuasiNewtonBFGS,
		})
	}
	return out, nil
}
