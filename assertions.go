package fuzzyctl

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

// AssertionConfig contains tolerances for controller properties.
type AssertionConfig struct {
	// Repeated evaluations per input for determinism checks
	Runs int

	// Slack allowed before a sweep counts as increasing
	Epsilon float64
}

// DefaultAssertionConfig returns strict tolerances.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		Runs:    16,
		Epsilon: 1e-9,
	}
}

// AssertDeterministic verifies that repeated evaluations of in give
// bit-identical outputs.
func AssertDeterministic(t testing.TB, e *Engine, in Inputs, cfg AssertionConfig) {
	t.Helper()

	first, err := e.Evaluate(in)
	if err != nil {
		t.Fatalf("Evaluate(%v) failed: %v", in, err)
	}
	for i := 1; i < cfg.Runs; i++ {
		got, err := e.Evaluate(in)
		if err != nil {
			t.Fatalf("Evaluate(%v) run %d failed: %v", in, i, err)
		}
		for name, want := range first {
			if math.Float64bits(got[name]) != math.Float64bits(want) {
				t.Errorf("Non-deterministic output %s for %v: run 0 = %v, run %d = %v",
					name, in, want, i, got[name])
			}
		}
	}
}

// Sweep describes a one-dimensional scan: input Vary runs over Values while
// every other input is held at Fixed.
type Sweep struct {
	Vary   string
	Values []float64
	Fixed  Inputs
	Output string
}

// AssertNonIncreasing verifies the sweep output never rises by more than
// cfg.Epsilon between consecutive points.
func AssertNonIncreasing(t testing.TB, e *Engine, s Sweep, cfg AssertionConfig) {
	t.Helper()

	var failures []string
	prev := math.Inf(1)
	for _, x := range s.Values {
		in := make(Inputs, len(s.Fixed)+1)
		for k, v := range s.Fixed {
			in[k] = v
		}
		in[s.Vary] = x

		out, err := e.Evaluate(in)
		if err != nil {
			t.Fatalf("Evaluate(%v) failed: %v", in, err)
		}
		y := out[s.Output]
		if y > prev+cfg.Epsilon {
			failures = append(failures, fmt.Sprintf("  %s=%g: %s %.6f > previous %.6f", s.Vary, x, s.Output, y, prev))
		}
		prev = y
	}

	if len(failures) > 0 {
		t.Errorf("%s increases along %s:\n%v", s.Output, s.Vary, failures)
	}
}

// AssertNoRuleFired verifies that in falls outside every rule and the engine
// reports it as ErrNoRuleFired instead of a number.
func AssertNoRuleFired(t testing.TB, e *Engine, in Inputs) {
	t.Helper()

	out, err := e.Evaluate(in)
	if err == nil {
		t.Fatalf("Evaluate(%v) = %v, want ErrNoRuleFired", in, out)
	}
	var nf *NoRuleFiredError
	if !errors.As(err, &nf) || !errors.Is(err, ErrNoRuleFired) {
		t.Fatalf("Evaluate(%v) error = %v, want *NoRuleFiredError", in, err)
	}
}
