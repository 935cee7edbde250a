package interior

import (
	"gonum.org/v1/gonum/mat"

	"q.log/lpstep/convergence"
)

// Snapshot is the complete record of one Advance call. Nothing in it is
// shared with the engine or with other snapshots.
//
// Fields that the step did not reach are nil: P, PC and Direction on an
// Infeasible step, Next on Infeasible and Unbounded steps.
type Snapshot struct {
	Iteration int

	D         *mat.DiagDense // diag(x)
	ATilde    *mat.Dense     // A·D
	CTilde    *mat.VecDense  // D·c
	P         *mat.Dense     // I − Ãᵗ(ÃÃᵗ)⁻¹Ã
	PC        *mat.VecDense  // P·c̃
	Direction *mat.VecDense  // −P·c̃

	Alpha float64 // fraction of the ratio-test step
	Step  float64 // scaled-space step length actually used

	Point         []float64 // x
	Objective     float64   // cᵗx
	Next          []float64 // x′
	NextObjective float64   // cᵗx′

	Status convergence.Status
}
