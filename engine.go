package fuzzyctl

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
)

// Inputs maps antecedent variable names to crisp values for one evaluation.
type Inputs map[string]float64

// Outputs maps consequent variable names to defuzzified crisp values.
type Outputs map[string]float64

// fuzzified is the per-run fuzzification table: variable -> label -> degree.
type fuzzified map[string]map[string]float64

// Engine runs Mamdani inference over an immutable rule base.
//
// Each evaluation is a pure function of the configuration and its inputs.
// The pipeline is strictly linear:
//
//	Validate → Fuzzify → Fire → Implicate → Aggregate → Defuzzify
//
// Every call allocates its own fuzzification table and aggregated curves, so
// an Engine is safe for concurrent use without locking.
type Engine struct {
	rules   *RuleBase
	plans   []rulePlan
	outputs []*outputPlan
	logger  *slog.Logger
	metrics *Metrics
}

// rulePlan caches a rule's consequent curve sampled over the output universe.
// It is derived from configuration only and never written after NewEngine.
type rulePlan struct {
	rule   *Rule
	output int       // index into Engine.outputs
	curve  []float64 // consequent degree at each universe sample
}

type outputPlan struct {
	variable *Variable
	xs       []float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-evaluation debug records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine prepares an engine over rb and freezes every variable it
// references.
func NewEngine(rb *RuleBase, opts ...Option) (*Engine, error) {
	if rb == nil || rb.Len() == 0 {
		return nil, fmt.Errorf("%w: engine needs a non-empty rule base", ErrInvalidRule)
	}
	e := &Engine{
		rules:  rb,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	index := make(map[string]int)
	for _, v := range rb.Consequents() {
		index[v.Name()] = len(e.outputs)
		e.outputs = append(e.outputs, &outputPlan{variable: v, xs: v.SampleUniverse()})
	}
	for _, r := range rb.rules {
		out := e.outputs[index[r.consequent.Variable.Name()]]
		curve := make([]float64, len(out.xs))
		for i, y := range out.xs {
			curve[i] = r.mf.Degree(y)
		}
		e.plans = append(e.plans, rulePlan{rule: r, output: index[r.consequent.Variable.Name()], curve: curve})
	}

	for _, v := range rb.antecedents {
		v.freeze()
	}
	for _, v := range rb.consequents {
		v.freeze()
	}
	return e, nil
}

// RuleBase returns the configuration the engine evaluates.
func (e *Engine) RuleBase() *RuleBase { return e.rules }

// RuleFiring records one rule's contribution to an evaluation.
type RuleFiring struct {
	Rule       string
	Consequent string // "variable.label"
	Strength   float64
}

// Result is a traced evaluation.
type Result struct {
	Inputs     Inputs
	Firing     []RuleFiring       // rule-base order
	Aggregated map[string][]Point // per consequent
	Outputs    Outputs
}

// Evaluate runs inference and returns the crisp outputs.
func (e *Engine) Evaluate(in Inputs) (Outputs, error) {
	res, err := e.run(in, false)
	if err != nil {
		return nil, err
	}
	return res.Outputs, nil
}

// Run is Evaluate with a trace of firing strengths and aggregated curves.
func (e *Engine) Run(in Inputs) (*Result, error) {
	return e.run(in, true)
}

func (e *Engine) run(in Inputs, trace bool) (*Result, error) {
	res, err := e.pipeline(in, trace)
	e.metrics.observe(res, err)
	if err != nil {
		e.logger.Debug("fuzzy evaluation failed", "inputs", map[string]float64(in), "kind", errorKind(err), "err", err)
		return nil, err
	}
	e.logger.Debug("fuzzy evaluation", "inputs", map[string]float64(in), "outputs", map[string]float64(res.Outputs))
	return res, nil
}

func (e *Engine) pipeline(in Inputs, trace bool) (*Result, error) {
	if err := e.validate(in); err != nil {
		return nil, err
	}
	fz := e.fuzzify(in)

	strengths, err := e.fire(fz)
	if err != nil {
		return nil, err
	}

	agg := e.aggregate(strengths)

	res := &Result{Outputs: make(Outputs, len(e.outputs))}
	for i, out := range e.outputs {
		y, ok := centroid(out.xs, agg[i])
		if !ok {
			return nil, &NoRuleFiredError{Variable: out.variable.Name()}
		}
		res.Outputs[out.variable.Name()] = y
	}
	res.Firing = make([]RuleFiring, len(e.plans))
	for i, p := range e.plans {
		res.Firing[i] = RuleFiring{
			Rule:       p.rule.name,
			Consequent: p.rule.consequent.Variable.Name() + "." + p.rule.consequent.Label,
			Strength:   strengths[i],
		}
	}

	if trace {
		res.Inputs = make(Inputs, len(in))
		for k, v := range in {
			res.Inputs[k] = v
		}
		res.Aggregated = make(map[string][]Point, len(e.outputs))
		for i, out := range e.outputs {
			pts := make([]Point, len(out.xs))
			for j, y := range out.xs {
				pts[j] = Point{X: y, Degree: agg[i][j]}
			}
			res.Aggregated[out.variable.Name()] = pts
		}
	}
	return res, nil
}

// validate rejects unknown variables and values outside the declared
// universe. Names are checked in sorted order so the reported error is
// deterministic.
func (e *Engine) validate(in Inputs) error {
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		x := in[name]
		v, ok := e.rules.antecedents[name]
		if !ok {
			msg := "unknown input variable"
			if _, isOutput := e.rules.consequents[name]; isOutput {
				msg = "is an output variable"
			}
			return &ValidationError{Variable: name, Value: x, Msg: msg}
		}
		u := v.Universe()
		if math.IsNaN(x) || !u.Contains(x) {
			return &ValidationError{Variable: name, Value: x, Lo: u.Lo, Hi: u.Hi}
		}
	}
	return nil
}

// fuzzify computes the degree table once per assigned input; rules sharing a
// variable read the same entry.
func (e *Engine) fuzzify(in Inputs) fuzzified {
	fz := make(fuzzified, len(in))
	for name, x := range in {
		fz[name] = e.rules.antecedents[name].DegreesFor(x)
	}
	return fz
}

// fire evaluates every rule. Rules with zero strength are kept; nothing is
// pruned.
func (e *Engine) fire(fz fuzzified) ([]float64, error) {
	strengths := make([]float64, len(e.plans))
	for i, p := range e.plans {
		s, err := p.rule.strength(fz)
		if err != nil {
			return nil, err
		}
		strengths[i] = s
	}
	return strengths, nil
}

// aggregate clips each rule's consequent curve at its firing strength
// (implication) and combines the clipped curves of each output with a
// pointwise maximum.
func (e *Engine) aggregate(strengths []float64) [][]float64 {
	agg := make([][]float64, len(e.outputs))
	for i, out := range e.outputs {
		agg[i] = make([]float64, len(out.xs))
	}
	for i, p := range e.plans {
		curve := agg[p.output]
		for j, mu := range p.curve {
			curve[j] = max(curve[j], min(strengths[i], mu))
		}
	}
	return agg
}

// Defuzzify returns the centroid Σ(x·μ)/Σμ of a sampled fuzzy set. It fails
// with ErrNoRuleFired when the set is empty.
func Defuzzify(xs, mu []float64) (float64, error) {
	if len(xs) != len(mu) {
		return 0, fmt.Errorf("%w: %d samples but %d degrees", ErrInvalidShape, len(xs), len(mu))
	}
	y, ok := centroid(xs, mu)
	if !ok {
		return 0, ErrNoRuleFired
	}
	return y, nil
}

func centroid(xs, mu []float64) (float64, bool) {
	var num, den float64
	for i, x := range xs {
		num += x * mu[i]
		den += mu[i]
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}
