package knowledge

import (
	"fmt"
	"math"

	"github.com/foldfit/foldfit/internal/fold"
)

// NoInterceptPenalty is returned by the axial trace objective when the fitted
// curve has no zero crossings: a strong fixed deterrent, independent of the
// constraint weights, so the optimizer steers away from the degenerate region
// instead of failing.
const NoInterceptPenalty = 999

// score returns the weighted negative log-likelihood of a feature value
// against the named constraint's target distribution.
func (k *Knowledge) score(name string, feature float64) (float64, error) {
	c, ok := k.constraints.Get(name)
	if !ok {
		return 0, fmt.Errorf("constraint %q not present in set", name)
	}
	return -GaussianLogLikelihood(feature, c.Mu, c.Sigma) * c.W, nil
}

// AsymmetryObjective scores the asymmetry degree of the fitted curve.
func (k *Knowledge) AsymmetryObjective(theta []float64) (float64, error) {
	if err := checkFourierParameters(theta); err != nil {
		return 0, err
	}
	return k.score(NameAsymmetry, fold.Asymmetry(theta))
}

// TightnessObjective scores the tightness (interlimb angle) of the fitted curve.
func (k *Knowledge) TightnessObjective(theta []float64) (float64, error) {
	if err := checkFourierParameters(theta); err != nil {
		return 0, err
	}
	return k.score(NameTightness, fold.Tightness(theta))
}

// HingeAngleObjective scores the fold hinge angle. The feature is computed
// with the same tightness measure as TightnessObjective, scored against the
// hinge angle's own target distribution and weight.
func (k *Knowledge) HingeAngleObjective(theta []float64) (float64, error) {
	if err := checkFourierParameters(theta); err != nil {
		return 0, err
	}
	return k.score(NameHingeAngle, fold.Tightness(theta))
}

// WavelengthObjective scores the fold wavelength coefficient theta[3].
func (k *Knowledge) WavelengthObjective(theta []float64) (float64, error) {
	if err := checkFourierParameters(theta); err != nil {
		return 0, err
	}
	return k.score(NameFoldWavelength, theta[3])
}

// AxisWavelengthObjective scores theta[3] against the fold axis wavelength
// target distribution.
func (k *Knowledge) AxisWavelengthObjective(theta []float64) (float64, error) {
	if err := checkFourierParameters(theta); err != nil {
		return 0, err
	}
	return k.score(NameAxisWavelength, theta[3])
}

// AxialTraceObjective scores the axial trace positions of the fitted curve.
// Every constraint whose name contains the axial trace marker independently
// selects its nearest intercept and contributes its weighted negative
// log-likelihood to the sum. An empty intercept set short-circuits to
// NoInterceptPenalty, ignoring all axial trace targets for this call.
func (k *Knowledge) AxialTraceObjective(theta []float64) (float64, error) {
	if err := checkFourierParameters(theta); err != nil {
		return 0, err
	}

	intercepts := fold.Intercepts(k.x, theta)
	if len(intercepts) == 0 {
		return NoInterceptPenalty, nil
	}

	var likelihood float64
	for _, name := range k.constraints.Names() {
		if !isAxialTraceName(name) {
			continue
		}
		c, _ := k.constraints.Get(name)

		nearest := intercepts[0]
		for _, p := range intercepts[1:] {
			if math.Abs(c.Mu-p) < math.Abs(c.Mu-nearest) {
				nearest = p
			}
		}
		likelihood += -GaussianLogLikelihood(nearest, c.Mu, c.Sigma) * c.W
	}
	return likelihood, nil
}
