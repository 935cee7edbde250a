package model

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sense is the relation between a constraint row and its right-hand side.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// ParseSense accepts the usual spellings of a constraint relation.
func ParseSense(s string) (Sense, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "<=", "≤", "le", "l":
		return LessEqual, nil
	case ">=", "≥", "ge", "g":
		return GreaterEqual, nil
	case "=", "==", "eq", "e":
		return Equal, nil
	}
	return 0, fmt.Errorf("unknown constraint sense %q: %w", s, ErrMalformedProblem)
}

// Direction says whether the objective is minimized or maximized.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

// ParseDirection accepts "min"/"minimize" and "max"/"maximize".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "min", "minimize":
		return Minimize, nil
	case "max", "maximize":
		return Maximize, nil
	}
	return 0, fmt.Errorf("unknown objective direction %q: %w", s, ErrMalformedProblem)
}

// Bound restricts one variable to [Lower, Upper]. Upper may be +Inf.
type Bound struct {
	Lower float64
	Upper float64
}

// NonNegative is the implicit bound x ≥ 0.
var NonNegative = Bound{Lower: 0, Upper: math.Inf(1)}

func (b Bound) trivial() bool {
	return b.Lower == 0 && math.IsInf(b.Upper, 1)
}

// Problem is an immutable linear program
//
//	min/max cᵗx  s.t.  A x (≤|≥|=) b,  lower ≤ x ≤ upper.
//
// Accessors return copies; a Problem may be shared by several engines.
type Problem struct {
	dir    Direction
	c      []float64
	a      *mat.Dense
	b      []float64
	senses []Sense
	bounds []Bound
}

// Option configures NewProblem.
type Option func(*Problem)

// WithDirection sets the objective direction. The default is Minimize.
func WithDirection(d Direction) Option {
	return func(p *Problem) { p.dir = d }
}

// WithBounds attaches per-variable bounds. Without it every variable is
// bounded by NonNegative.
func WithBounds(bounds []Bound) Option {
	return func(p *Problem) { p.bounds = slices.Clone(bounds) }
}

// NewProblem validates and stores a linear program. rows holds the m
// constraint rows, each of length n = len(objective).
func NewProblem(objective []float64, rows [][]float64, senses []Sense, rhs []float64, opts ...Option) (*Problem, error) {
	n, m := len(objective), len(rows)
	if n == 0 {
		return nil, fmt.Errorf("objective is empty: %w", ErrMalformedProblem)
	}
	if m == 0 {
		return nil, fmt.Errorf("no constraint rows: %w", ErrMalformedProblem)
	}
	if len(senses) != m {
		return nil, fmt.Errorf("%d senses for %d rows: %w", len(senses), m, ErrMalformedProblem)
	}
	if len(rhs) != m {
		return nil, fmt.Errorf("%d right-hand sides for %d rows: %w", len(rhs), m, ErrMalformedProblem)
	}
	if !allFinite(objective) {
		return nil, fmt.Errorf("objective has NaN or Inf: %w", ErrMalformedProblem)
	}
	if !allFinite(rhs) {
		return nil, fmt.Errorf("right-hand side has NaN or Inf: %w", ErrMalformedProblem)
	}

	data := make([]float64, 0, m*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d coefficients, want %d: %w", i, len(row), n, ErrMalformedProblem)
		}
		if !allFinite(row) {
			return nil, fmt.Errorf("row %d has NaN or Inf: %w", i, ErrMalformedProblem)
		}
		data = append(data, row...)
	}
	for i, s := range senses {
		if s < LessEqual || s > Equal {
			return nil, fmt.Errorf("row %d: %v: %w", i, s, ErrMalformedProblem)
		}
	}

	p := &Problem{
		c:      slices.Clone(objective),
		a:      mat.NewDense(m, n, data),
		b:      slices.Clone(rhs),
		senses: slices.Clone(senses),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.dir != Minimize && p.dir != Maximize {
		return nil, fmt.Errorf("direction %d: %w", int(p.dir), ErrMalformedProblem)
	}
	if p.bounds != nil {
		if len(p.bounds) != n {
			return nil, fmt.Errorf("%d bounds for %d variables: %w", len(p.bounds), n, ErrMalformedProblem)
		}
		for j, bd := range p.bounds {
			switch {
			case math.IsNaN(bd.Lower) || math.IsInf(bd.Lower, 0) || bd.Lower < 0:
				return nil, fmt.Errorf("variable %d: lower bound %g must be finite and >= 0: %w", j, bd.Lower, ErrMalformedProblem)
			case math.IsNaN(bd.Upper) || math.IsInf(bd.Upper, -1):
				return nil, fmt.Errorf("variable %d: upper bound %g: %w", j, bd.Upper, ErrMalformedProblem)
			case bd.Upper < bd.Lower:
				return nil, fmt.Errorf("variable %d: upper %g below lower %g: %w", j, bd.Upper, bd.Lower, ErrMalformedProblem)
			}
		}
	}

	return p, nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// NumRows returns m.
func (p *Problem) NumRows() int { return len(p.b) }

// NumCols returns n.
func (p *Problem) NumCols() int { return len(p.c) }

func (p *Problem) Direction() Direction { return p.dir }

// Objective returns a copy of c.
func (p *Problem) Objective() []float64 { return slices.Clone(p.c) }

// A returns a copy of the constraint matrix.
func (p *Problem) A() *mat.Dense { return mat.DenseCopyOf(p.a) }

// Constraints returns a copy of the constraint rows.
func (p *Problem) Constraints() [][]float64 {
	rows := make([][]float64, p.NumRows())
	for i := range rows {
		rows[i] = p.Row(i)
	}
	return rows
}

// Row returns a copy of constraint row i.
func (p *Problem) Row(i int) []float64 {
	return slices.Clone(p.a.RawRowView(i))
}

// RHS returns a copy of b.
func (p *Problem) RHS() []float64 { return slices.Clone(p.b) }

// Senses returns a copy of the per-row senses.
func (p *Problem) Senses() []Sense { return slices.Clone(p.senses) }

// Bounds returns the bounds given at construction, or nil if none were.
func (p *Problem) Bounds() []Bound { return slices.Clone(p.bounds) }

// Bound returns the effective bound of variable j.
func (p *Problem) Bound(j int) Bound {
	if p.bounds == nil {
		return NonNegative
	}
	return p.bounds[j]
}

// IsStandardForm reports whether p is min cᵗx s.t. Ax = b, x ≥ 0.
func (p *Problem) IsStandardForm() bool {
	if p.dir != Minimize {
		return false
	}
	for _, s := range p.senses {
		if s != Equal {
			return false
		}
	}
	for _, bd := range p.bounds {
		if !bd.trivial() {
			return false
		}
	}
	return true
}

// Value evaluates cᵗx.
func (p *Problem) Value(x []float64) (float64, error) {
	if len(x) != len(p.c) {
		return 0, fmt.Errorf("%d values for %d variables: %w", len(x), len(p.c), ErrPointLength)
	}
	return floats.Dot(p.c, x), nil
}

func (p *Problem) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v c = %v\n", p.dir, p.c)
	fa := mat.Formatted(p.a, mat.Prefix("    "), mat.Squeeze())
	fmt.Fprintf(&sb, "A = %v\n", fa)
	fmt.Fprintf(&sb, "senses = %v\n", p.senses)
	fmt.Fprintf(&sb, "b = %v", p.b)
	return sb.String()
}
