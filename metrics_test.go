package fuzzyctl

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetrics_Evaluations verifies counters and histograms after evaluations.
func TestMetrics_Evaluations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	sys, err := BuildDefaultSystem(WithMetrics(m))
	if err != nil {
		t.Fatalf("BuildDefaultSystem failed: %v", err)
	}

	for _, in := range [][2]float64{{0, 0}, {50, 0.5}, {100, 0}} {
		if _, err := sys.Evaluate(in[0], in[1]); err != nil {
			t.Fatalf("Evaluate(%v, %v) failed: %v", in[0], in[1], err)
		}
	}
	_, _ = sys.Evaluate(-5, 0.5)
	_, _ = sys.Evaluate(50, 2)
	_, _ = sys.Engine.Evaluate(Inputs{"rain": 50})

	if got := testutil.ToFloat64(m.evaluations); got != 6 {
		t.Errorf("%s = %v, want 6", EvaluationsN, got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("validation")); got != 2 {
		t.Errorf("validation errors = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("unbound_variable")); got != 1 {
		t.Errorf("unbound errors = %v, want 1", got)
	}

	if n := testutil.CollectAndCount(m.output, OutputN); n != 1 {
		t.Errorf("%s series = %d, want 1", OutputN, n)
	}
	if n := testutil.CollectAndCount(m.firing, RuleFiringN); n != 6 {
		t.Errorf("%s series = %d, want 6", RuleFiringN, n)
	}

	expected := `
# HELP fuzzyctl_evaluations_total The total number of fuzzy evaluations attempted
# TYPE fuzzyctl_evaluations_total counter
fuzzyctl_evaluations_total 6
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), EvaluationsN); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

// TestMetrics_NoRuleFired verifies empty outputs are counted by kind.
func TestMetrics_NoRuleFired(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	rain, soil, water := testVars(t)
	r3, err := NewRule("R3", And(Is(rain, "low"), Is(soil, "dry")), water, "high")
	if err != nil {
		t.Fatalf("NewRule failed: %v", err)
	}
	rb, err := NewRuleBase(r3)
	if err != nil {
		t.Fatalf("NewRuleBase failed: %v", err)
	}
	e, err := NewEngine(rb, WithMetrics(m))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	AssertNoRuleFired(t, e, Inputs{"rain": 50, "soil": 0.5})
	if got := testutil.ToFloat64(m.errors.WithLabelValues("no_rule_fired")); got != 1 {
		t.Errorf("no_rule_fired errors = %v, want 1", got)
	}
}

// TestMetrics_NilIsNoop verifies a nil Metrics records nothing.
func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observe(&Result{Outputs: Outputs{"water": 1}}, nil)
	m.observe(nil, ErrValidation)
}
