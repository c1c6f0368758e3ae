// Package knowledge implements the constraint-weighted objective function
// that scores a Fourier parameter vector against geological knowledge priors
// (expected tightness, asymmetry, wavelength, axial trace locations, hinge
// angle), and derives nonlinear constraint descriptors for restricted-mode
// optimization.
package knowledge

import (
	"errors"
	"fmt"
	"math"

	"github.com/foldfit/foldfit/internal/fold"
)

var (
	// ErrThetaNotNumeric reports a parameter vector that is nil or carries
	// non-finite entries.
	ErrThetaNotNumeric = errors.New("theta must be a finite numeric vector")

	// ErrThetaTooShort reports a parameter vector with fewer than the four
	// base Fourier parameters.
	ErrThetaTooShort = errors.New("theta must have at least 4 fourier parameters")

	// ErrMalformedConstraint reports a constraint record that is missing
	// required fields or carries out-of-range values.
	ErrMalformedConstraint = errors.New("malformed constraint")
)

// checkFourierParameters validates a candidate parameter vector. Every
// sub-objective and the total objective run this before any feature
// extraction.
func checkFourierParameters(theta []float64) error {
	if theta == nil {
		return ErrThetaNotNumeric
	}
	for i, v := range theta {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: theta[%d] = %v", ErrThetaNotNumeric, i, v)
		}
	}
	if len(theta) < fold.MinParams {
		return fmt.Errorf("%w: got %d", ErrThetaTooShort, len(theta))
	}
	return nil
}

// termFunc is one sub-objective: parameter vector in, weighted penalty out.
type termFunc func(theta []float64) (float64, error)

// Knowledge aggregates the active constraint set into a single scalar
// objective over Fourier parameter vectors. The fold frame coordinates x and
// the constraint set are fixed for the lifetime of the instance, so a
// Knowledge value is safe for concurrent objective evaluations with disjoint
// parameter vectors.
type Knowledge struct {
	x           []float64
	constraints *ConstraintSet
	terms       map[string]termFunc
}

// New builds a Knowledge aggregator over the given fold frame coordinates and
// constraint set. The name-to-term dispatch map is built once here.
func New(x []float64, constraints *ConstraintSet) *Knowledge {
	k := &Knowledge{x: x, constraints: constraints}
	k.terms = map[string]termFunc{
		NameAsymmetry:      k.AsymmetryObjective,
		NameTightness:      k.TightnessObjective,
		NameFoldWavelength: k.WavelengthObjective,
		NameAxisWavelength: k.AxisWavelengthObjective,
		NameAxialTraces:    k.AxialTraceObjective,
		NameHingeAngle:     k.HingeAngleObjective,
	}
	return k
}

// Constraints returns the constraint set the aggregator was built with.
func (k *Knowledge) Constraints() *ConstraintSet {
	return k.constraints
}

// TotalObjective sums the sub-objective penalties for every recognized
// constraint present in the set, in the fixed recognized-name order. Names in
// the set outside the recognized list contribute nothing; in particular,
// suffixed axial trace keys ("axial_trace_1", ...) feed the axial trace term
// only when the literal axial_traces key is also present. The result is
// exactly reproducible for a fixed theta and constraint set.
func (k *Knowledge) TotalObjective(theta []float64) (float64, error) {
	if err := checkFourierParameters(theta); err != nil {
		return 0, err
	}

	var total float64
	for _, name := range recognizedNames {
		if !k.constraints.Has(name) {
			continue
		}
		v, err := k.terms[name](theta)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}
