package fold

import (
	"math"
	"sort"
)

// bisection refinement budget per bracketed root
const bisectIters = 40

// Intercepts returns the axial trace positions: the zero crossings of the
// rotation angle curve over the span of the given fold frame coordinates.
// Crossings are bracketed between consecutive sample points and refined by
// bisection. The result is sorted ascending and may be empty when the curve
// never changes sign over the sampled span.
func Intercepts(x, theta []float64) []float64 {
	if len(x) < 2 {
		return nil
	}

	xs := append([]float64(nil), x...)
	sort.Float64s(xs)

	var roots []float64
	prev := CurveAt(xs[0], theta)
	for i := 1; i < len(xs); i++ {
		cur := CurveAt(xs[i], theta)
		switch {
		case prev == 0:
			roots = append(roots, xs[i-1])
		case cur != 0 && math.Signbit(prev) != math.Signbit(cur):
			roots = append(roots, bisect(xs[i-1], xs[i], theta))
		}
		prev = cur
	}
	if prev == 0 {
		roots = append(roots, xs[len(xs)-1])
	}
	return roots
}

// bisect narrows a sign-change bracket [a, b] down to a root position.
func bisect(a, b float64, theta []float64) float64 {
	fa := CurveAt(a, theta)
	for i := 0; i < bisectIters; i++ {
		m := (a + b) / 2
		fm := CurveAt(m, theta)
		if fm == 0 {
			return m
		}
		if math.Signbit(fa) == math.Signbit(fm) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	return (a + b) / 2
}
