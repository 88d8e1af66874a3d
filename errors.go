package fuzzyctl

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("input out of range")
	ErrUnboundVariable     = errors.New("unbound variable")
	ErrDuplicateLabel      = errors.New("duplicate label")
	ErrUnknownLabel        = errors.New("unknown label")
	ErrNoRuleFired         = errors.New("no rule fired")
	ErrInvalidShape        = errors.New("invalid membership function")
	ErrInvalidUniverse     = errors.New("invalid universe")
	ErrInvalidRule         = errors.New("invalid rule")
	ErrRoleMismatch        = errors.New("variable role mismatch")
	ErrConflictingVariable = errors.New("conflicting variable definitions")
	ErrFrozen              = errors.New("variable is frozen")
	ErrNoEngine            = errors.New("no engine loaded")
)

// ValidationError reports a crisp input the engine refuses to evaluate.
type ValidationError struct {
	Variable string
	Value    float64
	Lo, Hi   float64
	Msg      string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Variable, e.Msg)
	}
	return fmt.Sprintf("%s: %s=%g not in [%g, %g]", ErrValidation, e.Variable, e.Value, e.Lo, e.Hi)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnboundVariableError is returned when a rule reads an input that was never assigned.
type UnboundVariableError struct {
	Variable string
	Rule     string
}

func (e *UnboundVariableError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("%s: %s", ErrUnboundVariable, e.Variable)
	}
	return fmt.Sprintf("%s: %s (referenced by rule %s)", ErrUnboundVariable, e.Variable, e.Rule)
}

func (e *UnboundVariableError) Unwrap() error { return ErrUnboundVariable }

type DuplicateLabelError struct {
	Variable string
	Label    string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("%s: %s.%s", ErrDuplicateLabel, e.Variable, e.Label)
}

func (e *DuplicateLabelError) Unwrap() error { return ErrDuplicateLabel }

type UnknownLabelError struct {
	Variable string
	Label    string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("%s: %s.%s", ErrUnknownLabel, e.Variable, e.Label)
}

func (e *UnknownLabelError) Unwrap() error { return ErrUnknownLabel }

// NoRuleFiredError means the aggregated curve of a consequent is zero
// everywhere, so there is no centroid to report.
type NoRuleFiredError struct {
	Variable string
}

func (e *NoRuleFiredError) Error() string {
	return fmt.Sprintf("%s: output %s has an empty aggregated set", ErrNoRuleFired, e.Variable)
}

func (e *NoRuleFiredError) Unwrap() error { return ErrNoRuleFired }

// errorKind maps an error to a short label for logs and metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnboundVariable):
		return "unbound_variable"
	case errors.Is(err, ErrNoRuleFired):
		return "no_rule_fired"
	default:
		return "other"
	}
}
