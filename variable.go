package fuzzyctl

import (
	"fmt"
	"math"
	"sort"
)

// Discretisation steps of the irrigation universes. The step of a consequent
// universe sets the defuzzification resolution; antecedent steps only affect
// the sampled curves handed to plotting collaborators, since fuzzification is
// closed-form.
const (
	RainStep  = 1.0  // rain probability, percent over [0, 100]
	SoilStep  = 0.01 // soil moisture fraction over [0, 1]
	WaterStep = 0.1  // watering rate, liters/hour over [0, 10]
)

// Universe is the closed numeric domain [Lo, Hi] of a variable, sampled at a
// fixed Step.
type Universe struct {
	Lo   float64
	Hi   float64
	Step float64
}

// Validate checks that the universe is finite and non-empty, and that its
// step is positive and yields at most MaxSamples points.
func (u Universe) Validate() error {
	for _, v := range []float64{u.Lo, u.Hi, u.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound in [%g, %g] step %g", ErrInvalidUniverse, u.Lo, u.Hi, u.Step)
		}
	}
	if u.Lo >= u.Hi {
		return fmt.Errorf("%w: lo %g must be below hi %g", ErrInvalidUniverse, u.Lo, u.Hi)
	}
	if u.Step <= 0 || u.Step > u.Hi-u.Lo {
		return fmt.Errorf("%w: step %g does not fit [%g, %g]", ErrInvalidUniverse, u.Step, u.Lo, u.Hi)
	}
	if n := (u.Hi-u.Lo)/u.Step + 1; !(n <= MaxSamples) {
		return fmt.Errorf("%w: step %g over [%g, %g] gives %g samples, limit is %d", ErrInvalidUniverse, u.Step, u.Lo, u.Hi, n, MaxSamples)
	}
	return nil
}

// MaxSamples bounds the discretisation of a single universe. Every rule
// caches one curve of this length per consequent.
const MaxSamples = 1_000_000

// Contains reports whether x lies in the closed interval [Lo, Hi].
func (u Universe) Contains(x float64) bool {
	return x >= u.Lo && x <= u.Hi
}

// Len returns the number of samples in the universe. A span that is not a
// whole multiple of Step is truncated to the last full step.
func (u Universe) Len() int {
	return int(math.Floor((u.Hi-u.Lo)/u.Step+stepTolerance)) + 1
}

// stepTolerance absorbs binary rounding in spans such as 1/0.01.
const stepTolerance = 1e-9

// Samples returns Lo, Lo+Step, Lo+2*Step, ... up to Hi. Points are computed
// from their index so rounding error does not accumulate. When the span is a
// whole number of steps, sample i is Lo + span*i/(n-1), which keeps decimal
// grids such as 0.1 on the nearest representable value, and the last sample
// is exactly Hi.
func (u Universe) Samples() []float64 {
	n := u.Len()
	span := u.Hi - u.Lo
	whole := math.Abs(float64(n-1)*u.Step-span) <= u.Step*1e-6

	xs := make([]float64, n)
	for i := 0; i < n; i++ {
		if whole {
			xs[i] = u.Lo + span*float64(i)/float64(n-1)
		} else {
			xs[i] = u.Lo + float64(i)*u.Step
		}
	}
	if whole {
		xs[n-1] = u.Hi
	}
	return xs
}

// Role distinguishes input variables from output variables.
type Role int

const (
	Antecedent Role = iota
	Consequent
)

func (r Role) String() string {
	switch r {
	case Antecedent:
		return "antecedent"
	case Consequent:
		return "consequent"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Point is one sample of a membership curve.
type Point struct {
	X      float64
	Degree float64
}

// Variable is a linguistic variable: a named universe partitioned into
// labelled membership functions.
//
// Labels are added during configuration. Once an Engine has been built over
// the variable it is frozen and AddLabel fails with ErrFrozen; from then on
// the variable is read-only and may be shared by concurrent evaluations.
type Variable struct {
	name     string
	role     Role
	universe Universe
	labels   map[string]MembershipFunction
	frozen   bool
}

// NewAntecedent creates an input variable.
func NewAntecedent(name string, u Universe) (*Variable, error) {
	return newVariable(name, Antecedent, u)
}

// NewConsequent creates an output variable.
func NewConsequent(name string, u Universe) (*Variable, error) {
	return newVariable(name, Consequent, u)
}

func newVariable(name string, role Role, u Universe) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: variable name is empty", ErrInvalidUniverse)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	return &Variable{
		name:     name,
		role:     role,
		universe: u,
		labels:   make(map[string]MembershipFunction),
	}, nil
}

func (v *Variable) Name() string { return v.name }

func (v *Variable) Role() Role { return v.role }

func (v *Variable) Universe() Universe { return v.universe }

func (v *Variable) String() string { return v.name }

// HasLabel reports whether label is defined on the variable.
func (v *Variable) HasLabel(label string) bool {
	_, ok := v.labels[label]
	return ok
}

// AddLabel registers a membership function under a unique label.
func (v *Variable) AddLabel(label string, mf MembershipFunction) error {
	if v.frozen {
		return fmt.Errorf("%w: %s", ErrFrozen, v.name)
	}
	if label == "" || mf == nil {
		return fmt.Errorf("%w: %s needs a label name and a membership function", ErrInvalidShape, v.name)
	}
	if _, ok := v.labels[label]; ok {
		return &DuplicateLabelError{Variable: v.name, Label: label}
	}
	v.labels[label] = mf
	return nil
}

// AddTriangle is shorthand for AddLabel with a validated Triangle.
func (v *Variable) AddTriangle(label string, a, b, c float64) error {
	t, err := NewTriangle(a, b, c)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", v.name, label, err)
	}
	return v.AddLabel(label, t)
}

// Membership returns the function registered under label.
func (v *Variable) Membership(label string) (MembershipFunction, error) {
	mf, ok := v.labels[label]
	if !ok {
		return nil, &UnknownLabelError{Variable: v.name, Label: label}
	}
	return mf, nil
}

// Labels returns the label names in sorted order.
func (v *Variable) Labels() []string {
	out := make([]string, 0, len(v.labels))
	for l := range v.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// DegreesFor fuzzifies x against every label of the variable.
func (v *Variable) DegreesFor(x float64) map[string]float64 {
	out := make(map[string]float64, len(v.labels))
	for l, mf := range v.labels {
		out[l] = mf.Degree(x)
	}
	return out
}

// SampleUniverse returns the discretised domain used for aggregation and
// defuzzification.
func (v *Variable) SampleUniverse() []float64 {
	return v.universe.Samples()
}

// Curve samples one label's membership function over the universe. It is a
// read-only export for plotting and does not depend on any inference run.
func (v *Variable) Curve(label string) ([]Point, error) {
	mf, err := v.Membership(label)
	if err != nil {
		return nil, err
	}
	xs := v.universe.Samples()
	pts := make([]Point, len(xs))
	for i, x := range xs {
		pts[i] = Point{X: x, Degree: mf.Degree(x)}
	}
	return pts, nil
}

func (v *Variable) freeze() { v.frozen = true }
