package simplex

import (
	"gonum.org/v1/gonum/mat"

	"q.log/lpstep/convergence"
)

// Snapshot records one pricing/pivot step of the revised simplex.
// Entering and Leaving are column indices, -1 when no pivot was made.
type Snapshot struct {
	Iteration int

	Basis        []int         // basic column per row
	Inverse      *mat.Dense    // B⁻¹
	BasicValues  *mat.VecDense // x_B = B⁻¹ b
	Duals        *mat.VecDense // pᵗ = c_Bᵗ B⁻¹
	ReducedCosts []float64     // c_j − pᵗA_j, zero for basic columns
	Direction    *mat.VecDense // u = B⁻¹ A_j, nil when nothing enters

	Entering int
	Leaving  int
	Ratio    float64

	Point     []float64 // basic feasible solution over the structural columns
	Objective float64

	Status convergence.Status
}
