package fuzzyctl

import "fmt"

// Irrigation is the reference watering controller: rain probability and
// soil moisture in, watering rate in liters/hour out.
type Irrigation struct {
	Engine *Engine
	Rain   *Variable // percent, [0, 100]
	Soil   *Variable // moisture fraction, [0, 1]
	Water  *Variable // liters/hour, [0, 10]
}

type triangleDef struct {
	label   string
	a, b, c float64
}

// The breakpoints are part of the controller's contract; changing any of
// them changes every recommendation.
var (
	rainLabels = []triangleDef{
		{"low", 0, 0, 30},
		{"medium", 20, 50, 80},
		{"high", 60, 100, 100},
	}
	soilLabels = []triangleDef{
		{"dry", 0.0, 0.0, 0.3},
		{"normal", 0.2, 0.5, 0.8},
		{"wet", 0.6, 1.0, 1.0},
	}
	waterLabels = []triangleDef{
		{"none", 0, 0, 1},
		{"low", 1, 3, 5},
		{"medium", 4, 6, 8},
		{"high", 7, 10, 10},
	}
)

// BuildDefaultSystem constructs the three irrigation variables and the
// six-rule base:
//
//	R1  rain is high                  → water is none
//	R2  soil is wet                   → water is none
//	R3  rain is low    AND soil is dry    → water is high
//	R4  rain is low    AND soil is normal → water is medium
//	R5  rain is medium AND soil is dry    → water is medium
//	R6  rain is medium AND soil is normal → water is low
func BuildDefaultSystem(opts ...Option) (*Irrigation, error) {
	rain, err := newLabelled(NewAntecedent, "rain", Universe{Lo: 0, Hi: 100, Step: RainStep}, rainLabels)
	if err != nil {
		return nil, err
	}
	soil, err := newLabelled(NewAntecedent, "soil", Universe{Lo: 0, Hi: 1, Step: SoilStep}, soilLabels)
	if err != nil {
		return nil, err
	}
	water, err := newLabelled(NewConsequent, "water", Universe{Lo: 0, Hi: 10, Step: WaterStep}, waterLabels)
	if err != nil {
		return nil, err
	}

	table := []struct {
		name  string
		when  *Expr
		label string
	}{
		{"R1", Is(rain, "high"), "none"},
		{"R2", Is(soil, "wet"), "none"},
		{"R3", And(Is(rain, "low"), Is(soil, "dry")), "high"},
		{"R4", And(Is(rain, "low"), Is(soil, "normal")), "medium"},
		{"R5", And(Is(rain, "medium"), Is(soil, "dry")), "medium"},
		{"R6", And(Is(rain, "medium"), Is(soil, "normal")), "low"},
	}
	rules := make([]*Rule, 0, len(table))
	for _, s := range table {
		r, err := NewRule(s.name, s.when, water, s.label)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	rb, err := NewRuleBase(rules...)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(rb, opts...)
	if err != nil {
		return nil, err
	}
	return &Irrigation{Engine: engine, Rain: rain, Soil: soil, Water: water}, nil
}

func newLabelled(ctor func(string, Universe) (*Variable, error), name string, u Universe, defs []triangleDef) (*Variable, error) {
	v, err := ctor(name, u)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if err := v.AddTriangle(d.label, d.a, d.b, d.c); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Evaluate returns the recommended watering rate in liters/hour. Inputs
// outside rain∈[0,100] or soil∈[0,1] fail with a *ValidationError; the
// check is part of the engine entry point and cannot be skipped.
func (s *Irrigation) Evaluate(rain, soil float64) (float64, error) {
	out, err := s.Engine.Evaluate(Inputs{"rain": rain, "soil": soil})
	if err != nil {
		return 0, err
	}
	water, ok := out["water"]
	if !ok {
		return 0, fmt.Errorf("%w: engine produced no water output", ErrInvalidRule)
	}
	return water, nil
}

// MembershipCurve samples one label of a variable for plotting.
func MembershipCurve(v *Variable, label string) ([]Point, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil variable", ErrUnknownLabel)
	}
	return v.Curve(label)
}
