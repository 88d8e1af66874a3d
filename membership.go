package fuzzyctl

import (
	"fmt"
	"math"
)

// MembershipFunction evaluates the degree to which a scalar belongs to one
// linguistic label. Implementations are immutable and safe for concurrent use.
type MembershipFunction interface {
	// Degree returns a value in [0,1]. It is total: any x, including NaN,
	// yields a degree.
	Degree(x float64) float64

	// Shape names the curve family, e.g. "triangular".
	Shape() string

	// Breakpoints returns the control points of the curve in ascending order.
	Breakpoints() []float64
}

// Triangle is a triangular membership function with feet at A and C and its
// peak at B.
//
//	      1 ┤    /\
//	        │   /  \
//	      0 ┼──/────\──
//	          A  B   C
//
// Degenerate shapes (A == B or B == C) are valid and produce a flat-edged
// triangle whose degree is exactly 1 at the shared point:
//
//	rain.low  = (0, 0, 30)      // 1 at 0, falling to 0 at 30
//	rain.high = (60, 100, 100)  // rising from 60, 1 at 100
type Triangle struct {
	A, B, C float64
}

// NewTriangle validates a ≤ b ≤ c and returns the triangle.
func NewTriangle(a, b, c float64) (Triangle, error) {
	for _, v := range []float64{a, b, c} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Triangle{}, fmt.Errorf("%w: triangle (%g, %g, %g) has non-finite breakpoint", ErrInvalidShape, a, b, c)
		}
	}
	if a > b || b > c {
		return Triangle{}, fmt.Errorf("%w: triangle (%g, %g, %g) requires a ≤ b ≤ c", ErrInvalidShape, a, b, c)
	}
	return Triangle{A: a, B: b, C: c}, nil
}

// Degree is 0 outside (A, C), 1 at B, and linear on each ramp.
func (t Triangle) Degree(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x == t.B:
		return 1
	case x <= t.A || x >= t.C:
		return 0
	case x < t.B:
		return (x - t.A) / (t.B - t.A)
	default:
		return (t.C - x) / (t.C - t.B)
	}
}

func (t Triangle) Shape() string { return "triangular" }

func (t Triangle) Breakpoints() []float64 { return []float64{t.A, t.B, t.C} }

// Centroid returns the continuous centre of gravity of the triangle.
//
// The discretised centroid computed by the engine converges to this value as
// the universe step shrinks.
func (t Triangle) Centroid() float64 {
	return (t.A + t.B + t.C) / 3
}

func (t Triangle) String() string {
	return fmt.Sprintf("trimf(%g, %g, %g)", t.A, t.B, t.C)
}
