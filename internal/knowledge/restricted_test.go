package knowledge

import (
	"errors"
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestRestrictedConstraintsEmitsOnePerBoundedEntry(t *testing.T) {
	set := mustSet(t,
		entry(NameTightness, Constraint{Mu: 60, Sigma: 10, W: 1, LB: ptr(30), UB: ptr(120)}),
		entry(NameAsymmetry, Constraint{Mu: 0, Sigma: 0.5, W: 1}), // unbounded, skipped
		entry("axial_trace_1", Constraint{Mu: 5, Sigma: 1, W: 1, LB: ptr(2), UB: ptr(8)}),
		entry(NameFoldWavelength, Constraint{Mu: 10, Sigma: 2, W: 1, LB: ptr(5), UB: ptr(20)}),
	)
	k := New(testFrame(), set)

	cons, err := k.RestrictedConstraints()
	if err != nil {
		t.Fatal(err)
	}

	if len(cons) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(cons))
	}

	// Insertion order of the set, not recognized-name order.
	wantOrder := []string{NameTightness, "axial_trace_1", NameFoldWavelength}
	for i, c := range cons {
		if c.Name != wantOrder[i] {
			t.Errorf("descriptor %d name = %q, want %q", i, c.Name, wantOrder[i])
		}
		if c.Lower > c.Upper {
			t.Errorf("descriptor %q: lower %v > upper %v", c.Name, c.Lower, c.Upper)
		}
		if c.Jacobian != TwoPointForward {
			t.Errorf("descriptor %q: jacobian = %q", c.Name, c.Jacobian)
		}
		if c.Hessian != QuasiNewtonBFGS {
			t.Errorf("descriptor %q: hessian = %q", c.Name, c.Hessian)
		}
		if c.Func == nil {
			t.Errorf("descriptor %q: nil bound function", c.Name)
		}
	}
}

func TestRestrictedConstraintsLikelihoodRange(t *testing.T) {
	// Bounds straddling the mean: the range minimum is the peak penalty and
	// the maximum sits at the farther bound.
	mu, sigma := 60.0, 10.0
	lb, ub := 30.0, 120.0
	set := mustSet(t,
		entry(NameTightness, Constraint{Mu: mu, Sigma: sigma, W: 1, LB: ptr(lb), UB: ptr(ub)}),
	)
	k := New(testFrame(), set)

	cons, err := k.RestrictedConstraints()
	if err != nil {
		t.Fatal(err)
	}
	c := cons[0]

	peak := -GaussianLogLikelihood(mu, mu, sigma)
	far := -GaussianLogLikelihood(ub, mu, sigma)

	// The 100-point grid need not hit the mean exactly, but must come close.
	if c.Lower < peak-1e-12 || c.Lower > peak+0.1 {
		t.Errorf("lower bound %v not near peak penalty %v", c.Lower, peak)
	}
	if math.Abs(c.Upper-far) > 1e-9 {
		t.Errorf("upper bound %v, want penalty at farther bound %v", c.Upper, far)
	}
}

func TestRestrictedConstraintsIncompleteBounds(t *testing.T) {
	set := mustSet(t,
		entry(NameTightness, Constraint{Mu: 60, Sigma: 10, W: 1, LB: ptr(30)}),
	)
	k := New(testFrame(), set)

	if _, err := k.RestrictedConstraints(); !errors.Is(err, ErrMalformedConstraint) {
		t.Errorf("expected ErrMalformedConstraint, got %v", err)
	}
}

func TestRestrictedConstraintsUnrecognizedBoundedName(t *testing.T) {
	set := mustSet(t,
		entry("plunge_direction", Constraint{Mu: 120, Sigma: 30, W: 1, LB: ptr(90), UB: ptr(150)}),
	)
	k := New(testFrame(), set)

	if _, err := k.RestrictedConstraints(); !errors.Is(err, ErrMalformedConstraint) {
		t.Errorf("expected ErrMalformedConstraint, got %v", err)
	}
}

func TestConstraintSetValidation(t *testing.T) {
	s := NewConstraintSet()

	if err := s.Add(NameTightness, Constraint{Mu: 60, Sigma: 0, W: 1}); !errors.Is(err, ErrMalformedConstraint) {
		t.Errorf("sigma=0: expected ErrMalformedConstraint, got %v", err)
	}
	if err := s.Add(NameTightness, Constraint{Mu: 60, Sigma: 5, W: -1}); !errors.Is(err, ErrMalformedConstraint) {
		t.Errorf("w<0: expected ErrMalformedConstraint, got %v", err)
	}
	if err := s.Add(NameTightness, Constraint{Mu: 60, Sigma: 5, W: 1, LB: ptr(10), UB: ptr(5)}); !errors.Is(err, ErrMalformedConstraint) {
		t.Errorf("lb>ub: expected ErrMalformedConstraint, got %v", err)
	}
	if err := s.Add("", Constraint{Mu: 0, Sigma: 1, W: 1}); !errors.Is(err, ErrMalformedConstraint) {
		t.Errorf("empty name: expected ErrMalformedConstraint, got %v", err)
	}
}

func TestConstraintSetJSONRoundTripPreservesOrder(t *testing.T) {
	in := []byte(`{"tightness":{"mu":60,"sigma":10,"w":1},"axial_trace_1":{"mu":5,"sigma":1,"w":1},"asymmetry":{"mu":0,"sigma":0.5,"w":2}}`)

	var s ConstraintSet
	if err := s.UnmarshalJSON(in); err != nil {
		t.Fatal(err)
	}

	wantNames := []string{"tightness", "axial_trace_1", "asymmetry"}
	names := s.Names()
	if len(names) != len(wantNames) {
		t.Fatalf("expected %d names, got %d", len(wantNames), len(names))
	}
	for i, w := range wantNames {
		if names[i] != w {
			t.Errorf("name %d = %q, want %q", i, names[i], w)
		}
	}

	out, err := s.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var again ConstraintSet
	if err := again.UnmarshalJSON(out); err != nil {
		t.Fatal(err)
	}
	for i, w := range wantNames {
		if again.Names()[i] != w {
			t.Errorf("round trip name %d = %q, want %q", i, again.Names()[i], w)
		}
	}
}
