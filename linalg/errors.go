package linalg

import "errors"

var (
	// ErrDimensionMismatch is returned when operand shapes are incompatible,
	// e.g. Mul where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	// ErrEmpty is returned for zero-length operands.
	ErrEmpty = errors.New("linalg: zero-length operand")

	// ErrSingularMatrix is returned when a Gram matrix cannot be factorized or
	// its reciprocal condition number falls below the configured tolerance.
	ErrSingularMatrix = errors.New("linalg: singular matrix")
)
