package fuzzyctl

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
)

// DefaultSystemTOML is the irrigation controller in configuration form.
// LoadSystem on it yields a rule base equivalent to BuildDefaultSystem.
const DefaultSystemTOML = `
[[variable]]
name = "rain"
role = "antecedent"
lo = 0.0
hi = 100.0
step = 1.0

  [[variable.label]]
  name = "low"
  triangle = [0.0, 0.0, 30.0]

  [[variable.label]]
  name = "medium"
  triangle = [20.0, 50.0, 80.0]

  [[variable.label]]
  name = "high"
  triangle = [60.0, 100.0, 100.0]

[[variable]]
name = "soil"
role = "antecedent"
lo = 0.0
hi = 1.0
step = 0.01

  [[variable.label]]
  name = "dry"
  triangle = [0.0, 0.0, 0.3]

  [[variable.label]]
  name = "normal"
  triangle = [0.2, 0.5, 0.8]

  [[variable.label]]
  name = "wet"
  triangle = [0.6, 1.0, 1.0]

[[variable]]
name = "water"
role = "consequent"
lo = 0.0
hi = 10.0
step = 0.1

  [[variable.label]]
  name = "none"
  triangle = [0.0, 0.0, 1.0]

  [[variable.label]]
  name = "low"
  triangle = [1.0, 3.0, 5.0]

  [[variable.label]]
  name = "medium"
  triangle = [4.0, 6.0, 8.0]

  [[variable.label]]
  name = "high"
  triangle = [7.0, 10.0, 10.0]

[[rule]]
name = "R1"
if = "rain.high"
then = "water.none"

[[rule]]
name = "R2"
if = "soil.wet"
then = "water.none"

[[rule]]
name = "R3"
if = "rain.low & soil.dry"
then = "water.high"

[[rule]]
name = "R4"
if = "rain.low & soil.normal"
then = "water.medium"

[[rule]]
name = "R5"
if = "rain.medium & soil.dry"
then = "water.medium"

[[rule]]
name = "R6"
if = "rain.medium & soil.normal"
then = "water.low"
`

type systemConfig struct {
	Variables []variableConfig `toml:"variable"`
	Rules     []ruleConfig     `toml:"rule"`
}

type variableConfig struct {
	Name   string        `toml:"name"`
	Role   string        `toml:"role"`
	Lo     float64       `toml:"lo"`
	Hi     float64       `toml:"hi"`
	Step   float64       `toml:"step"`
	Labels []labelConfig `toml:"label"`
}

type labelConfig struct {
	Name     string    `toml:"name"`
	Triangle []float64 `toml:"triangle"`
}

type ruleConfig struct {
	Name   string   `toml:"name"`
	If     string   `toml:"if"`
	Then   string   `toml:"then"`
	Weight *float64 `toml:"weight,omitempty"`
}

// LoadSystem decodes a TOML system definition and builds its rule base.
// Unknown keys are rejected.
func LoadSystem(r io.Reader) (*RuleBase, error) {
	var cfg systemConfig
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode system definition: %w", err)
	}
	return cfg.build()
}

// LoadSystemFile reads and decodes a TOML system definition from disk.
func LoadSystemFile(path string) (*RuleBase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load system definition: %w", err)
	}
	return LoadSystem(bytes.NewReader(raw))
}

func (cfg systemConfig) build() (*RuleBase, error) {
	vars := make(map[string]*Variable, len(cfg.Variables))
	for _, vc := range cfg.Variables {
		if _, dup := vars[vc.Name]; dup {
			return nil, fmt.Errorf("%w: variable %s defined twice", ErrConflictingVariable, vc.Name)
		}
		u := Universe{Lo: vc.Lo, Hi: vc.Hi, Step: vc.Step}
		var (
			v   *Variable
			err error
		)
		switch strings.ToLower(vc.Role) {
		case "antecedent", "input":
			v, err = NewAntecedent(vc.Name, u)
		case "consequent", "output":
			v, err = NewConsequent(vc.Name, u)
		default:
			return nil, fmt.Errorf("%w: variable %s has unknown role %q", ErrRoleMismatch, vc.Name, vc.Role)
		}
		if err != nil {
			return nil, err
		}
		for _, lc := range vc.Labels {
			if len(lc.Triangle) != 3 {
				return nil, fmt.Errorf("%s.%s: %w: triangle needs 3 breakpoints, got %d", vc.Name, lc.Name, ErrInvalidShape, len(lc.Triangle))
			}
			if err := v.AddTriangle(lc.Name, lc.Triangle[0], lc.Triangle[1], lc.Triangle[2]); err != nil {
				return nil, err
			}
		}
		vars[vc.Name] = v
	}

	rules := make([]*Rule, 0, len(cfg.Rules))
	for i, rc := range cfg.Rules {
		name := rc.Name
		if name == "" {
			name = fmt.Sprintf("rule%d", i+1)
		}
		antecedent, err := ParseExpr(rc.If, vars)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		v, label, err := parseRef(rc.Then, vars)
		if err != nil {
			return nil, fmt.Errorf("rule %s: then: %w", name, err)
		}
		var opts []RuleOption
		if rc.Weight != nil {
			opts = append(opts, WithWeight(*rc.Weight))
		}
		r, err := NewRule(name, antecedent, v, label, opts...)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return NewRuleBase(rules...)
}

// ParseExpr parses an antecedent written with the operator syntax
//
//	rain.low & (soil.dry | soil.normal)
//
// where "&" is fuzzy AND, "|" is fuzzy OR, and "&" binds tighter than "|".
func ParseExpr(src string, vars map[string]*Variable) (*Expr, error) {
	p := &exprParser{toks: lexExpr(src), vars: vars, src: src}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return e, nil
}

func parseRef(src string, vars map[string]*Variable) (*Variable, string, error) {
	name, label, ok := strings.Cut(strings.TrimSpace(src), ".")
	if !ok || name == "" || label == "" {
		return nil, "", fmt.Errorf("%w: %q is not of the form variable.label", ErrInvalidRule, src)
	}
	v, ok := vars[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown variable %q", ErrInvalidRule, name)
	}
	return v, label, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokRef
	tokAnd
	tokOr
	tokLParen
	tokRParen
	tokBad
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func lexExpr(src string) []token {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '&':
			toks = append(toks, token{tokAnd, "&", i})
			i++
		case r == '|':
			toks = append(toks, token{tokOr, "|", i})
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case isRefRune(r):
			start := i
			for i < len(rs) && (isRefRune(rs[i]) || rs[i] == '.') {
				i++
			}
			toks = append(toks, token{tokRef, string(rs[start:i]), start})
		default:
			toks = append(toks, token{tokBad, string(r), i})
			i++
		}
	}
	return append(toks, token{tokEOF, "", len(rs)})
}

func isRefRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type exprParser struct {
	toks []token
	pos  int
	vars map[string]*Variable
	src  string
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d in %q", ErrInvalidRule, fmt.Sprintf(format, args...), t.pos, p.src)
}

func (p *exprParser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func (p *exprParser) parseAnd() (*Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = And(left, right)
	}
	return left, nil
}

func (p *exprParser) parseFactor() (*Expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "expected \")\"")
		}
		return e, nil
	case tokRef:
		v, label, err := parseRef(t.text, p.vars)
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d", err, t.pos)
		}
		return Is(v, label), nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	default:
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
}
