package fuzzyctl

import (
	"errors"
	"math"
	"testing"
)

// TestUniverse_Samples verifies sample counts and endpoints.
func TestUniverse_Samples(t *testing.T) {
	tests := []struct {
		name      string
		u         Universe
		wantLen   int
		wantFirst float64
		wantLast  float64
	}{
		{"Rain", Universe{0, 100, RainStep}, 101, 0, 100},
		{"Soil", Universe{0, 1, SoilStep}, 101, 0, 1},
		{"Water", Universe{0, 10, WaterStep}, 101, 0, 10},
		{"Offset", Universe{-1, 1, 0.5}, 5, -1, 1},
		{"Uneven span truncates", Universe{0, 1, 0.3}, 4, 0, 0.8999999999999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xs := tt.u.Samples()
			if len(xs) != tt.wantLen {
				t.Fatalf("len(Samples()) = %d, want %d", len(xs), tt.wantLen)
			}
			if xs[0] != tt.wantFirst {
				t.Errorf("first sample = %v, want %v", xs[0], tt.wantFirst)
			}
			if math.Abs(xs[len(xs)-1]-tt.wantLast) > 1e-12 {
				t.Errorf("last sample = %v, want %v", xs[len(xs)-1], tt.wantLast)
			}
			for i := 1; i < len(xs); i++ {
				if d := xs[i] - xs[i-1]; math.Abs(d-tt.u.Step) > 1e-9 {
					t.Fatalf("step between samples %d and %d = %v, want %v", i-1, i, d, tt.u.Step)
				}
			}
		})
	}
}

// TestUniverse_Validate verifies malformed and oversized universes are rejected.
func TestUniverse_Validate(t *testing.T) {
	bad := []Universe{
		{0, 0, 1},
		{1, 0, 0.1},
		{0, 1, 0},
		{0, 1, -0.1},
		{0, 1, 2},
		{math.NaN(), 1, 0.1},
		{0, math.Inf(1), 0.1},
		{0, 100, 1e-300},
		{0, 100, 1e-9},
		{-1e308, 1e308, 1},
	}
	for _, u := range bad {
		if err := u.Validate(); !errors.Is(err, ErrInvalidUniverse) {
			t.Errorf("%+v.Validate() = %v, want ErrInvalidUniverse", u, err)
		}
	}
	if err := (Universe{0, 10, 0.1}).Validate(); err != nil {
		t.Errorf("valid universe rejected: %v", err)
	}
	if err := (Universe{0, MaxSamples - 1, 1}).Validate(); err != nil {
		t.Errorf("universe of exactly MaxSamples points rejected: %v", err)
	}
	if err := (Universe{0, MaxSamples, 1}).Validate(); !errors.Is(err, ErrInvalidUniverse) {
		t.Errorf("universe above MaxSamples = %v, want ErrInvalidUniverse", err)
	}
}

// TestVariable_AddLabel verifies duplicate and invalid labels are rejected.
func TestVariable_AddLabel(t *testing.T) {
	v, err := NewAntecedent("rain", Universe{0, 100, 1})
	if err != nil {
		t.Fatalf("NewAntecedent failed: %v", err)
	}
	if err := v.AddTriangle("low", 0, 0, 30); err != nil {
		t.Fatalf("AddTriangle failed: %v", err)
	}

	err = v.AddTriangle("low", 0, 10, 40)
	var dup *DuplicateLabelError
	if !errors.As(err, &dup) {
		t.Fatalf("duplicate label error = %v, want *DuplicateLabelError", err)
	}
	if dup.Variable != "rain" || dup.Label != "low" {
		t.Errorf("DuplicateLabelError = %+v", dup)
	}
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("error does not unwrap to ErrDuplicateLabel: %v", err)
	}

	if err := v.AddTriangle("bad", 5, 1, 3); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("invalid triangle error = %v, want ErrInvalidShape", err)
	}
	if err := v.AddLabel("nil", nil); err == nil {
		t.Error("AddLabel accepted a nil membership function")
	}
}

// TestVariable_DegreesFor verifies fuzzification against every label.
func TestVariable_DegreesFor(t *testing.T) {
	soil, err := newLabelled(NewAntecedent, "soil", Universe{0, 1, SoilStep}, soilLabels)
	if err != nil {
		t.Fatalf("build soil: %v", err)
	}

	got := soil.DegreesFor(0.25)
	want := map[string]float64{
		"dry":    (0.3 - 0.25) / 0.3,
		"normal": (0.25 - 0.2) / 0.3,
		"wet":    0,
	}
	if len(got) != len(want) {
		t.Fatalf("DegreesFor returned %d labels, want %d", len(got), len(want))
	}
	for label, w := range want {
		if math.Abs(got[label]-w) > 1e-12 {
			t.Errorf("degree[%s] = %v, want %v", label, got[label], w)
		}
	}

	if labels := soil.Labels(); len(labels) != 3 || labels[0] != "dry" || labels[1] != "normal" || labels[2] != "wet" {
		t.Errorf("Labels() = %v, want sorted [dry normal wet]", labels)
	}
}

// TestVariable_Curve verifies a label sampled over the universe.
func TestVariable_Curve(t *testing.T) {
	water, err := newLabelled(NewConsequent, "water", Universe{0, 10, WaterStep}, waterLabels)
	if err != nil {
		t.Fatalf("build water: %v", err)
	}

	pts, err := water.Curve("medium")
	if err != nil {
		t.Fatalf("Curve failed: %v", err)
	}
	if len(pts) != 101 {
		t.Fatalf("len(Curve) = %d, want 101", len(pts))
	}
	if pts[60].Degree != 1 || pts[60].X != 6 {
		t.Errorf("Curve peak = %+v, want {X:6 Degree:1}", pts[60])
	}
	if pts[0].Degree != 0 || pts[100].Degree != 0 {
		t.Errorf("Curve endpoints = %v, %v, want 0", pts[0].Degree, pts[100].Degree)
	}

	_, err = water.Curve("flood")
	var unknown *UnknownLabelError
	if !errors.As(err, &unknown) || unknown.Label != "flood" {
		t.Errorf("Curve(flood) error = %v, want *UnknownLabelError", err)
	}
}

// TestVariable_FrozenAfterEngine verifies variables cannot change once an engine uses them.
func TestVariable_FrozenAfterEngine(t *testing.T) {
	sys, err := BuildDefaultSystem()
	if err != nil {
		t.Fatalf("BuildDefaultSystem failed: %v", err)
	}
	if err := sys.Rain.AddTriangle("extreme", 90, 100, 100); !errors.Is(err, ErrFrozen) {
		t.Errorf("AddTriangle after NewEngine = %v, want ErrFrozen", err)
	}
	if err := sys.Water.AddTriangle("flood", 9, 10, 10); !errors.Is(err, ErrFrozen) {
		t.Errorf("AddTriangle on consequent after NewEngine = %v, want ErrFrozen", err)
	}
}
