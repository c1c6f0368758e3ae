// Package fold computes the fitted fold rotation angle curve and the
// geometric descriptors derived from it (axial trace intercepts, tightness,
// asymmetry). The curve is a truncated Fourier series parameterized by
// theta = [c0, c1, c2, wavelength].
package fold

import "math"

// MinParams is the smallest valid Fourier parameter vector length.
const MinParams = 4

// CurveAt evaluates the rotation angle curve at a single fold frame coordinate.
func CurveAt(x float64, theta []float64) float64 {
	c0, c1, c2, wl := theta[0], theta[1], theta[2], theta[3]
	t := 2 * math.Pi * x / wl
	return c0 + c1*math.Cos(t) + c2*math.Sin(t)
}

// Curve evaluates the rotation angle curve over the given fold frame coordinates.
func Curve(x, theta []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = CurveAt(xi, theta)
	}
	return out
}

// Amplitude returns the harmonic amplitude sqrt(c1^2 + c2^2).
func Amplitude(theta []float64) float64 {
	return math.Hypot(theta[1], theta[2])
}

// Tightness returns the interlimb angle of the fitted fold in degrees.
// The rotation angle extremes of the series are c0 +/- amplitude, so the
// largest absolute limb rotation is |c0| + amplitude.
func Tightness(theta []float64) float64 {
	return 180 - 2*(math.Abs(theta[0])+Amplitude(theta))
}

// Asymmetry returns the asymmetry degree of the fitted fold: the normalized
// phase skew of the harmonic, in (-1, 1]. A symmetric fold (pure cosine limb
// rotation) has asymmetry 0.
func Asymmetry(theta []float64) float64 {
	return math.Atan2(theta[2], theta[1]) / math.Pi
}
