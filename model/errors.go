package model

import "errors"

var (
	// ErrMalformedProblem is returned when a problem violates its shape
	// invariants or carries non-finite data.
	ErrMalformedProblem = errors.New("model: malformed problem")

	// ErrNotStandardForm is returned when an equality-only minimization
	// problem with plain x ≥ 0 bounds was required.
	ErrNotStandardForm = errors.New("model: problem is not in standard form")

	// ErrPointLength is returned when a point matches neither the original
	// nor the augmented variable count.
	ErrPointLength = errors.New("model: point length mismatch")
)
