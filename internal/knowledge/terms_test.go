package knowledge

import (
	"math"
	"testing"

	"github.com/foldfit/foldfit/internal/fold"
)

func TestAxialTraceObjectiveDegenerateCurve(t *testing.T) {
	// Curve 50 + 10*cos(...) never crosses zero.
	theta := []float64{50, 10, 0, 10}
	x := testFrame()

	tests := []struct {
		name string
		set  *ConstraintSet
	}{
		{
			name: "single target",
			set: mustSet(t,
				entry(NameAxialTraces, Constraint{Mu: 5, Sigma: 1, W: 1}),
			),
		},
		{
			name: "many targets",
			set: mustSet(t,
				entry("axial_trace_1", Constraint{Mu: 2, Sigma: 1, W: 1}),
				entry("axial_trace_2", Constraint{Mu: 7, Sigma: 1, W: 3}),
				entry("axial_trace_3", Constraint{Mu: 12, Sigma: 1, W: 10}),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := New(x, tt.set)
			got, err := k.AxialTraceObjective(theta)
			if err != nil {
				t.Fatal(err)
			}
			if got != NoInterceptPenalty {
				t.Errorf("expected fixed penalty %v, got %v", float64(NoInterceptPenalty), got)
			}
		})
	}
}

func TestAxialTraceObjectiveSubstringMatching(t *testing.T) {
	// cos(pi*x/5) crosses zero at 2.5, 7.5, 12.5, ...
	theta := []float64{0, 30, 0, 10}
	x := testFrame()

	set := mustSet(t,
		entry("axial_trace_1", Constraint{Mu: 2, Sigma: 1, W: 1}),
		entry("axial_trace_2", Constraint{Mu: 8, Sigma: 2, W: 0.5}),
		entry(NameTightness, Constraint{Mu: 60, Sigma: 10, W: 1}),
	)
	k := New(x, set)

	got, err := k.AxialTraceObjective(theta)
	if err != nil {
		t.Fatal(err)
	}

	// Nearest intercepts: 2.5 for mu=2, 7.5 for mu=8.
	want := -GaussianLogLikelihood(2.5, 2, 1)*1 + -GaussianLogLikelihood(7.5, 8, 2)*0.5
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("AxialTraceObjective = %v, want %v", got, want)
	}
}

func TestAxialTraceTargetsSelectIndependently(t *testing.T) {
	theta := []float64{0, 30, 0, 10}
	x := testFrame()
	intercepts := fold.Intercepts(x, theta)
	if len(intercepts) < 2 {
		t.Fatalf("test curve must have at least 2 intercepts, got %v", intercepts)
	}

	// Moving the second target's mu must not change which intercept the
	// first target selects.
	for _, mu2 := range []float64{6, 8, 13} {
		set := mustSet(t,
			entry("axial_trace_1", Constraint{Mu: 2, Sigma: 1, W: 1}),
			entry("axial_trace_2", Constraint{Mu: mu2, Sigma: 2, W: 1}),
		)
		k := New(x, set)

		got, err := k.AxialTraceObjective(theta)
		if err != nil {
			t.Fatal(err)
		}

		nearest2 := intercepts[0]
		for _, p := range intercepts[1:] {
			if math.Abs(mu2-p) < math.Abs(mu2-nearest2) {
				nearest2 = p
			}
		}
		want := -GaussianLogLikelihood(2.5, 2, 1) + -GaussianLogLikelihood(nearest2, mu2, 2)
		if math.Abs(got-want) > 1e-8 {
			t.Errorf("mu2=%v: AxialTraceObjective = %v, want %v", mu2, got, want)
		}
	}
}

func TestHingeAngleSharesTightnessFeature(t *testing.T) {
	mu, sigma := 70.0, 8.0
	set := mustSet(t,
		entry(NameTightness, Constraint{Mu: mu, Sigma: sigma, W: 1}),
		entry(NameHingeAngle, Constraint{Mu: mu, Sigma: sigma, W: 1}),
	)
	k := New(testFrame(), set)
	theta := []float64{5, 30, 20, 10}

	tight, err := k.TightnessObjective(theta)
	if err != nil {
		t.Fatal(err)
	}
	hinge, err := k.HingeAngleObjective(theta)
	if err != nil {
		t.Fatal(err)
	}

	if tight != hinge {
		t.Errorf("hinge angle feature must reuse tightness: %v vs %v", hinge, tight)
	}
}

func TestWavelengthObjectivesUseFourthParameter(t *testing.T) {
	set := mustSet(t,
		entry(NameFoldWavelength, Constraint{Mu: 10, Sigma: 2, W: 1}),
		entry(NameAxisWavelength, Constraint{Mu: 12, Sigma: 3, W: 2}),
	)
	k := New(testFrame(), set)
	theta := []float64{1, 2, 3, 11}

	wl, err := k.WavelengthObjective(theta)
	if err != nil {
		t.Fatal(err)
	}
	if want := -GaussianLogLikelihood(11, 10, 2); math.Abs(wl-want) > 1e-12 {
		t.Errorf("WavelengthObjective = %v, want %v", wl, want)
	}

	awl, err := k.AxisWavelengthObjective(theta)
	if err != nil {
		t.Fatal(err)
	}
	if want := -GaussianLogLikelihood(11, 12, 3) * 2; math.Abs(awl-want) > 1e-12 {
		t.Errorf("AxisWavelengthObjective = %v, want %v", awl, want)
	}
}
