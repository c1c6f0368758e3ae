package knowledge

import "gonum.org/v1/gonum/stat/distuv"

// GaussianLogLikelihood returns the natural log of the normal probability
// density with mean mu and standard deviation sigma, evaluated at v.
//
// sigma must be positive; the primitive does not guard against non-positive
// values. All supported entry points satisfy this because ConstraintSet
// validates Sigma > 0 on insertion.
func GaussianLogLikelihood(v, mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma}.LogProb(v)
}

// gaussianLogLikelihoodProfile evaluates the log-likelihood elementwise over
// vs, used to derive the numeric range of a constraint over a feature interval.
func gaussianLogLikelihoodProfile(vs []float64, mu, sigma float64) []float64 {
	n := distuv.Normal{Mu: mu, Sigma: sigma}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = n.LogProb(v)
	}
	return out
}
