package knowledge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Recognized constraint names, in the order the total objective evaluates them.
const (
	NameAsymmetry      = "asymmetry"
	NameTightness      = "tightness"
	NameFoldWavelength = "fold_wavelength"
	NameAxialTraces    = "axial_traces"
	NameHingeAngle     = "hinge_angle"
	NameAxisWavelength = "axis_wavelength"
)

// recognizedNames is the fixed evaluation order of the total objective.
var recognizedNames = []string{
	NameAsymmetry,
	NameTightness,
	NameFoldWavelength,
	NameAxialTraces,
	NameHingeAngle,
	NameAxisWavelength,
}

// axialTraceMarker matches any constraint name expressing an axial trace
// target, e.g. "axial_traces", "axial_trace_1". Matching is by substring so
// callers can express multiple independent trace targets with suffixed keys.
const axialTraceMarker = "axial_trace"

func isAxialTraceName(name string) bool {
	return strings.Contains(name, axialTraceMarker)
}

// Constraint is one geological knowledge prior: a target normal distribution
// (Mu, Sigma) for a curve feature, a weight W on its penalty, and optional
// feature bounds LB/UB used only when building restricted-mode constraints.
type Constraint struct {
	Mu    float64  `json:"mu"`
	Sigma float64  `json:"sigma"`
	W     float64  `json:"w"`
	LB    *float64 `json:"lb,omitempty"`
	UB    *float64 `json:"ub,omitempty"`
}

// Bounded reports whether the constraint carries both feature bounds.
func (c Constraint) Bounded() bool {
	return c.LB != nil && c.UB != nil
}

func (c Constraint) validate(name string) error {
	if c.Sigma <= 0 {
		return fmt.Errorf("constraint %q: %w: sigma must be > 0, got %v", name, ErrMalformedConstraint, c.Sigma)
	}
	if c.W < 0 {
		return fmt.Errorf("constraint %q: %w: weight must be >= 0, got %v", name, ErrMalformedConstraint, c.W)
	}
	if c.LB != nil && c.UB != nil && *c.LB > *c.UB {
		return fmt.Errorf("constraint %q: %w: lb %v exceeds ub %v", name, ErrMalformedConstraint, *c.LB, *c.UB)
	}
	return nil
}

// ConstraintSet is an insertion-ordered collection of named constraints.
// Restricted-mode constraint descriptors are emitted in insertion order, so
// the order is preserved through JSON round trips.
type ConstraintSet struct {
	names  []string
	byName map[string]Constraint
}

// NewConstraintSet returns an empty constraint set.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{byName: make(map[string]Constraint)}
}

// Add validates and inserts a constraint. Re-adding an existing name replaces
// the record in place without changing its position.
func (s *ConstraintSet) Add(name string, c Constraint) error {
	if name == "" {
		return fmt.Errorf("%w: constraint name cannot be empty", ErrMalformedConstraint)
	}
	if err := c.validate(name); err != nil {
		return err
	}
	if s.byName == nil {
		s.byName = make(map[string]Constraint)
	}
	if _, exists := s.byName[name]; !exists {
		s.names = append(s.names, name)
	}
	s.byName[name] = c
	return nil
}

// Get returns the named constraint.
func (s *ConstraintSet) Get(name string) (Constraint, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Has reports whether the named constraint is present.
func (s *ConstraintSet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Names returns the constraint names in insertion order.
func (s *ConstraintSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of constraints in the set.
func (s *ConstraintSet) Len() int {
	return len(s.names)
}

// UnmarshalJSON decodes a JSON object into the set, preserving key order.
func (s *ConstraintSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("constraint set: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: constraint set must be a JSON object", ErrMalformedConstraint)
	}

	s.names = nil
	s.byName = make(map[string]Constraint)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("constraint set: %w", err)
		}
		name := keyTok.(string)

		var c Constraint
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("constraint %q: %w: %v", name, ErrMalformedConstraint, err)
		}
		if err := s.Add(name, c); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the set as a JSON object in insertion order.
func (s *ConstraintSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
