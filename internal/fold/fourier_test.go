package fold

import (
	"math"
	"testing"
)

func TestCurveAt(t *testing.T) {
	// c0=0, c1=1, c2=0, wavelength=2: curve is cos(pi*x)
	theta := []float64{0, 1, 0, 2}

	tests := []struct {
		x    float64
		want float64
	}{
		{0, 1},
		{0.5, 0},
		{1, -1},
		{2, 1},
	}

	for _, tt := range tests {
		got := CurveAt(tt.x, theta)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("CurveAt(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestInterceptsOfCosine(t *testing.T) {
	// cos(pi*x) has zeros at 0.5, 1.5, 2.5 within [0, 3]
	theta := []float64{0, 1, 0, 2}
	x := make([]float64, 31)
	for i := range x {
		x[i] = float64(i) * 0.1
	}

	roots := Intercepts(x, theta)
	want := []float64{0.5, 1.5, 2.5}

	if len(roots) != len(want) {
		t.Fatalf("expected %d intercepts, got %d (%v)", len(want), len(roots), roots)
	}
	for i, w := range want {
		if math.Abs(roots[i]-w) > 1e-8 {
			t.Errorf("intercept %d = %v, want %v", i, roots[i], w)
		}
	}
}

func TestInterceptsEmptyForOffsetCurve(t *testing.T) {
	// Curve 10 + cos(pi*x) never crosses zero.
	theta := []float64{10, 1, 0, 2}
	x := []float64{0, 0.5, 1, 1.5, 2}

	if roots := Intercepts(x, theta); len(roots) != 0 {
		t.Errorf("expected no intercepts, got %v", roots)
	}
}

func TestTightness(t *testing.T) {
	// Amplitude 60, no offset: limbs rotate +/-60 deg, interlimb angle 60.
	theta := []float64{0, 60, 0, 10}
	if got := Tightness(theta); math.Abs(got-60) > 1e-12 {
		t.Errorf("Tightness = %v, want 60", got)
	}
}

func TestAsymmetrySymmetricFold(t *testing.T) {
	theta := []float64{0, 30, 0, 10}
	if got := Asymmetry(theta); got != 0 {
		t.Errorf("Asymmetry = %v, want 0", got)
	}

	// Pure sine limb rotation is a quarter-period skew.
	theta = []float64{0, 0, 30, 10}
	if got := Asymmetry(theta); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Asymmetry = %v, want 0.5", got)
	}
}
