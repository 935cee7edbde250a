package model

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Standard is the equality-form rewrite of a Problem:
//
//	min c'ᵗx  s.t.  A' x = b,  x ≥ 0
//
// where every ≤ row gains a slack column (+1), every ≥ row a surplus column
// (−1), finite upper bounds become extra ≤ rows and positive lower bounds
// extra ≥ rows. Maximization objectives are negated. Slack columns follow the
// original variables in row order.
type Standard struct {
	source  *Problem
	problem *Problem

	// slack[i] is the column of row i's slack, or -1 for equality rows.
	slack []int
	// coef[i] is the slack coefficient of row i (+1 or -1).
	coef []float64
	// rows holds the augmented rows restricted to the original variables.
	rows [][]float64
	rhs  []float64
}

// StandardForm normalizes p. It is deterministic and leaves p untouched.
func StandardForm(p *Problem) (*Standard, error) {
	n := p.NumCols()
	rows := p.Constraints()
	rhs := p.RHS()
	senses := p.Senses()

	b := NewBuilder(len(rows), n)
	flat := make([]float64, 0, len(rows)*n)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	if err := b.SetA(flat); err != nil {
		return nil, fmt.Errorf("standard form: %v: %w", err, ErrMalformedProblem)
	}
	if err := b.SetB(rhs); err != nil {
		return nil, fmt.Errorf("standard form: %v: %w", err, ErrMalformedProblem)
	}

	// Bounds become unit rows appended after the constraints.
	addBound := func(j int, value float64, sense Sense) error {
		row := make([]float64, n)
		row[j] = 1
		if err := b.AddRow(row, value); err != nil {
			return fmt.Errorf("standard form: bound on %d: %v: %w", j, err, ErrMalformedProblem)
		}
		rows = append(rows, row)
		rhs = append(rhs, value)
		senses = append(senses, sense)
		return nil
	}
	for j := range n {
		bd := p.Bound(j)
		if !math.IsInf(bd.Upper, 1) {
			if err := addBound(j, bd.Upper, LessEqual); err != nil {
				return nil, err
			}
		}
		if bd.Lower > 0 {
			if err := addBound(j, bd.Lower, GreaterEqual); err != nil {
				return nil, err
			}
		}
	}
	m := b.NumRows

	c := p.Objective()
	if p.Direction() == Maximize {
		floats.Scale(-1, c)
	}
	if err := b.SetC(c); err != nil {
		return nil, fmt.Errorf("standard form: %v: %w", err, ErrMalformedProblem)
	}

	s := &Standard{
		source: p,
		slack:  make([]int, m),
		coef:   make([]float64, m),
		rows:   rows,
		rhs:    rhs,
	}
	for r, sense := range senses {
		s.slack[r] = -1
		if sense == Equal {
			continue
		}
		col := make([]float64, m)
		col[r] = 1
		if sense == GreaterEqual {
			col[r] = -1
		}
		s.slack[r] = b.NumCols
		s.coef[r] = col[r]
		if err := b.AddCol(col, 0); err != nil {
			return nil, fmt.Errorf("standard form: %v: %w", err, ErrMalformedProblem)
		}
	}

	std, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("standard form: %w", err)
	}
	s.problem = std
	return s, nil
}

// Problem returns the equality-only problem.
func (s *Standard) Problem() *Problem { return s.problem }

// Source returns the problem that was normalized.
func (s *Standard) Source() *Problem { return s.source }

// NumOriginal returns the number of variables of the source problem.
func (s *Standard) NumOriginal() int { return s.source.NumCols() }

// SlackColumns lists, per augmented row, the slack column index or -1.
func (s *Standard) SlackColumns() []int { return slices.Clone(s.slack) }

// Lift maps x into the augmented space. A point over the original variables
// gets its slack values computed from the rows; a point that already has
// the augmented length is copied unchanged.
func (s *Standard) Lift(x []float64) ([]float64, error) {
	switch len(x) {
	case s.problem.NumCols():
		return slices.Clone(x), nil
	case s.NumOriginal():
	default:
		return nil, fmt.Errorf("lift %d values, want %d or %d: %w",
			len(x), s.NumOriginal(), s.problem.NumCols(), ErrPointLength)
	}

	out := make([]float64, s.problem.NumCols())
	copy(out, x)
	for r, col := range s.slack {
		if col < 0 {
			continue
		}
		// row·x + coef·s = rhs
		out[col] = (s.rhs[r] - floats.Dot(s.rows[r], x)) / s.coef[r]
	}
	return out, nil
}

// Restrict drops slack columns from an augmented point.
func (s *Standard) Restrict(x []float64) []float64 {
	n := min(len(x), s.NumOriginal())
	return slices.Clone(x[:n])
}

// Objective evaluates the source objective, in the source direction, at an
// augmented point.
func (s *Standard) Objective(x []float64) float64 {
	return floats.Dot(s.source.c, x[:s.NumOriginal()])
}
