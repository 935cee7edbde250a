package model

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Builder assembles an equality-constrained system A x = b column by column.
// It is the mutable counterpart of Problem; Build freezes it.
type Builder struct {
	//C objective function coefficients
	C *mat.Dense

	//A constraints matrix
	A *mat.Dense

	//B constraints rhs
	B *mat.Dense

	NumRows int
	NumCols int
}

func NewBuilder(numRows, numCols int) *Builder {
	return &Builder{
		C:       mat.NewDense(1, numCols, nil),
		A:       mat.NewDense(numRows, numCols, nil),
		B:       mat.NewDense(numRows, 1, nil),
		NumRows: numRows,
		NumCols: numCols,
	}
}

func (m *Builder) SetC(cVec []float64) error {
	if len(cVec) != m.NumCols {
		return errors.New("mismatch number of variables")
	}

	m.C = mat.NewDense(1, m.NumCols, slices.Clone(cVec))

	return nil
}

func (m *Builder) SetA(aVec []float64) error {
	if len(aVec) != m.NumCols*m.NumRows {
		return errors.New("mismatch number of variables and/or constraints")
	}

	m.A = mat.NewDense(m.NumRows, m.NumCols, slices.Clone(aVec))

	return nil
}

func (m *Builder) SetB(bVec []float64) error {
	if len(bVec) != m.NumRows {
		return errors.New("mismatch number of constraints")
	}

	m.B = mat.NewDense(m.NumRows, 1, slices.Clone(bVec))

	return nil
}

// AddCol appends column cVec with objective coefficient coef.
func (m *Builder) AddCol(cVec []float64, coef float64) error {
	if len(cVec) != m.NumRows {
		return errors.New("mismatch number of rows, i.e. wrong len of cVec")
	}

	m.A = mat.DenseCopyOf(m.A.Grow(0, 1))
	m.A.SetCol(m.NumCols, cVec)

	m.C = mat.DenseCopyOf(m.C.Grow(0, 1))
	m.C.Set(0, m.NumCols, coef)

	m.NumCols++
	return nil
}

// AddRow appends constraint row rVec with right-hand side rhs.
func (m *Builder) AddRow(rVec []float64, rhs float64) error {
	if len(rVec) != m.NumCols {
		return errors.New("mismatch number of columns, i.e. wrong len of rVec")
	}

	m.A = mat.DenseCopyOf(m.A.Grow(1, 0))
	m.A.SetRow(m.NumRows, rVec)

	m.B = mat.DenseCopyOf(m.B.Grow(1, 0))
	m.B.Set(m.NumRows, 0, rhs)

	m.NumRows++
	return nil
}

func (m *Builder) MultiplyConstraint(row int, mul float64) error {
	if row < 0 || row >= m.NumRows {
		return errors.New("row does not exists")
	}

	for col := range m.NumCols {
		m.A.Set(row, col, m.A.At(row, col)*mul)
	}
	m.B.Set(row, 0, m.B.At(row, 0)*mul)
	return nil
}

// Build freezes the builder into an equality-only minimization Problem.
func (m *Builder) Build() (*Problem, error) {
	rows := make([][]float64, m.NumRows)
	for r := range m.NumRows {
		rows[r] = mat.Row(nil, r, m.A)
	}
	senses := make([]Sense, m.NumRows)
	for r := range senses {
		senses[r] = Equal
	}
	return NewProblem(mat.Row(nil, 0, m.C), rows, senses, mat.Col(nil, 0, m.B))
}
