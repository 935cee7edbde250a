// Package linalg holds the dense linear algebra used by the LP engines.
//
// Every helper is a thin, shape-checked layer over gonum's mat package:
// gonum panics on shape errors, the helpers here return ErrDimensionMismatch
// instead so that malformed input surfaces as an error value. Null-space
// projections go through Projector, which orthogonalizes the rows with a
// QR factorization and keeps the Cholesky factor of A·Aᵗ for the
// singularity test and for least-norm corrections. InverseGram is the
// explicit inverse for callers that need the matrix itself.
package linalg
