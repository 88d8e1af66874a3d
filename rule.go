package fuzzyctl

import (
	"errors"
	"fmt"
	"sort"
)

// ExprKind tags the node type of an antecedent expression.
type ExprKind int

const (
	ExprLeaf ExprKind = iota // Variable is Label
	ExprAnd                  // min(Left, Right)
	ExprOr                   // max(Left, Right)
)

// Expr is an antecedent expression tree:
//
//	Leaf(variable, label) | And(left, right) | Or(left, right)
//
// Evaluation is a recursive fold over the tree. Fuzzy AND and OR always
// evaluate both operands; a partially applying antecedent contributes its
// degree instead of collapsing to a boolean.
type Expr struct {
	Kind     ExprKind
	Variable *Variable
	Label    string
	Left     *Expr
	Right    *Expr
}

// Is builds the leaf "v is label".
func Is(v *Variable, label string) *Expr {
	return &Expr{Kind: ExprLeaf, Variable: v, Label: label}
}

// And combines two expressions with the minimum t-norm.
func And(left, right *Expr) *Expr {
	return &Expr{Kind: ExprAnd, Left: left, Right: right}
}

// Or combines two expressions with the maximum s-norm.
func Or(left, right *Expr) *Expr {
	return &Expr{Kind: ExprOr, Left: left, Right: right}
}

func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ExprLeaf:
		return fmt.Sprintf("%s is %s", e.Variable, e.Label)
	case ExprAnd:
		return fmt.Sprintf("(%s AND %s)", e.Left, e.Right)
	case ExprOr:
		return fmt.Sprintf("(%s OR %s)", e.Left, e.Right)
	default:
		return fmt.Sprintf("Expr(%d)", int(e.Kind))
	}
}

// resolve checks that every leaf references an existing label of an
// antecedent variable.
func (e *Expr) resolve() error {
	if e == nil {
		return fmt.Errorf("%w: missing antecedent operand", ErrInvalidRule)
	}
	switch e.Kind {
	case ExprLeaf:
		if e.Variable == nil {
			return fmt.Errorf("%w: leaf %q has no variable", ErrInvalidRule, e.Label)
		}
		if e.Variable.Role() != Antecedent {
			return fmt.Errorf("%w: %s is a %s and cannot appear in an antecedent", ErrRoleMismatch, e.Variable, e.Variable.Role())
		}
		if !e.Variable.HasLabel(e.Label) {
			return &UnknownLabelError{Variable: e.Variable.Name(), Label: e.Label}
		}
		return nil
	case ExprAnd, ExprOr:
		if err := e.Left.resolve(); err != nil {
			return err
		}
		return e.Right.resolve()
	default:
		return fmt.Errorf("%w: unknown expression kind %d", ErrInvalidRule, int(e.Kind))
	}
}

// clone returns a deep copy of the tree. Variables are shared; they are
// frozen once an engine is built over them.
func (e *Expr) clone() *Expr {
	if e == nil {
		return nil
	}
	c := *e
	c.Left = e.Left.clone()
	c.Right = e.Right.clone()
	return &c
}

// variables calls fn for every leaf variable, left to right.
func (e *Expr) variables(fn func(*Variable)) {
	switch e.Kind {
	case ExprLeaf:
		fn(e.Variable)
	case ExprAnd, ExprOr:
		e.Left.variables(fn)
		e.Right.variables(fn)
	}
}

// eval folds the tree against the per-run fuzzification table.
func (e *Expr) eval(fz fuzzified) (float64, error) {
	switch e.Kind {
	case ExprLeaf:
		degrees, ok := fz[e.Variable.Name()]
		if !ok {
			return 0, &UnboundVariableError{Variable: e.Variable.Name()}
		}
		d, ok := degrees[e.Label]
		if !ok {
			return 0, &UnknownLabelError{Variable: e.Variable.Name(), Label: e.Label}
		}
		return d, nil
	case ExprAnd, ExprOr:
		l, err := e.Left.eval(fz)
		if err != nil {
			return 0, err
		}
		r, err := e.Right.eval(fz)
		if err != nil {
			return 0, err
		}
		if e.Kind == ExprAnd {
			return min(l, r), nil
		}
		return max(l, r), nil
	default:
		return 0, fmt.Errorf("%w: unknown expression kind %d", ErrInvalidRule, int(e.Kind))
	}
}

// Term is one (variable, label) reference.
type Term struct {
	Variable *Variable
	Label    string
}

func (t Term) String() string {
	return fmt.Sprintf("%s is %s", t.Variable, t.Label)
}

// Rule pairs an antecedent expression with a consequent label.
//
// Rules are immutable once built; NewRule copies the antecedent tree and
// resolves every referenced label so evaluation never meets an undefined one.
type Rule struct {
	name       string
	antecedent *Expr
	consequent Term
	weight     float64 // scales the firing strength, in (0, 1]

	mf MembershipFunction // consequent curve, resolved at construction
}

// RuleOption customises a rule at construction.
type RuleOption func(*Rule)

// WithWeight sets the implication weight. NewRule rejects weights outside (0, 1].
func WithWeight(w float64) RuleOption {
	return func(r *Rule) { r.weight = w }
}

// NewRule builds "IF antecedent THEN consequent is label".
func NewRule(name string, antecedent *Expr, consequent *Variable, label string, opts ...RuleOption) (*Rule, error) {
	r := &Rule{
		name:       name,
		antecedent: antecedent.clone(),
		consequent: Term{Variable: consequent, Label: label},
		weight:     1,
	}
	for _, opt := range opts {
		opt(r)
	}

	if antecedent == nil {
		return nil, fmt.Errorf("rule %s: %w: nil antecedent", name, ErrInvalidRule)
	}
	if err := r.antecedent.resolve(); err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	if consequent == nil {
		return nil, fmt.Errorf("rule %s: %w: nil consequent", name, ErrInvalidRule)
	}
	if consequent.Role() != Consequent {
		return nil, fmt.Errorf("rule %s: %w: %s is a %s and cannot be a consequent", name, ErrRoleMismatch, consequent, consequent.Role())
	}
	mf, err := consequent.Membership(label)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	r.mf = mf
	if !(r.weight > 0 && r.weight <= 1) {
		return nil, fmt.Errorf("rule %s: %w: weight %g not in (0, 1]", name, ErrInvalidRule, r.weight)
	}
	return r, nil
}

func (r *Rule) Name() string { return r.name }

// Antecedent returns a copy of the rule's condition.
func (r *Rule) Antecedent() *Expr { return r.antecedent.clone() }

func (r *Rule) Consequent() Term { return r.consequent }

func (r *Rule) Weight() float64 { return r.weight }

// strength evaluates the antecedent and applies the rule weight, clamped to [0, 1].
func (r *Rule) strength(fz fuzzified) (float64, error) {
	s, err := r.antecedent.eval(fz)
	if err != nil {
		var ub *UnboundVariableError
		if errors.As(err, &ub) {
			ub.Rule = r.name
		}
		return 0, err
	}
	return clamp01(s * r.weight), nil
}

func (r *Rule) String() string {
	s := fmt.Sprintf("IF %s THEN %s", r.antecedent, r.consequent)
	if r.weight != 1 {
		s += fmt.Sprintf(" WITH %g", r.weight)
	}
	return s
}

// RuleBase is an ordered collection of rules sharing their variables.
//
// Order does not change the aggregated result (max is commutative) but is
// preserved in traces.
type RuleBase struct {
	rules       []*Rule
	antecedents map[string]*Variable
	consequents map[string]*Variable
}

// NewRuleBase collects the rules and the variables they reference. Two
// distinct variables sharing a name are rejected.
func NewRuleBase(rules ...*Rule) (*RuleBase, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: rule base is empty", ErrInvalidRule)
	}
	rb := &RuleBase{
		rules:       make([]*Rule, 0, len(rules)),
		antecedents: make(map[string]*Variable),
		consequents: make(map[string]*Variable),
	}

	var conflict error
	seen := make(map[string]*Variable)
	track := func(v *Variable) {
		if prev, ok := seen[v.Name()]; ok && prev != v && conflict == nil {
			conflict = fmt.Errorf("%w: two variables named %s", ErrConflictingVariable, v.Name())
		}
		seen[v.Name()] = v
	}

	for i, r := range rules {
		if r == nil || r.mf == nil {
			return nil, fmt.Errorf("%w: rule %d was not built with NewRule", ErrInvalidRule, i)
		}
		r.antecedent.variables(func(v *Variable) {
			track(v)
			rb.antecedents[v.Name()] = v
		})
		track(r.consequent.Variable)
		rb.consequents[r.consequent.Variable.Name()] = r.consequent.Variable
		if conflict != nil {
			return nil, conflict
		}
		rb.rules = append(rb.rules, r)
	}
	return rb, nil
}

// Rules returns the rules in their original order. Rules expose no setters,
// so handing out the pointers cannot change what an engine evaluates.
func (rb *RuleBase) Rules() []*Rule {
	out := make([]*Rule, len(rb.rules))
	copy(out, rb.rules)
	return out
}

func (rb *RuleBase) Len() int { return len(rb.rules) }

// Antecedents returns the input variables sorted by name.
func (rb *RuleBase) Antecedents() []*Variable { return sortedVars(rb.antecedents) }

// Consequents returns the output variables sorted by name.
func (rb *RuleBase) Consequents() []*Variable { return sortedVars(rb.consequents) }

// Variable looks up an antecedent or consequent by name.
func (rb *RuleBase) Variable(name string) (*Variable, bool) {
	if v, ok := rb.antecedents[name]; ok {
		return v, true
	}
	v, ok := rb.consequents[name]
	return v, ok
}

func sortedVars(m map[string]*Variable) []*Variable {
	out := make([]*Variable, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
