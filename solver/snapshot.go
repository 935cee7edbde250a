package solver

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"q.log/lpstep/convergence"
	"q.log/lpstep/interior"
	"q.log/lpstep/simplex"
)

// Snapshot is one step of either method. Exactly one of Interior and
// Simplex is set, matching Method.
type Snapshot struct {
	Method    Method
	Iteration int
	Status    convergence.Status

	// Point and Objective are in the caller's variables and direction,
	// taken at the point the step ended on.
	Point     []float64
	Objective float64

	Interior *interior.Snapshot
	Simplex  *simplex.Snapshot
}

// Table is a named matrix for display or storage. Vectors are single rows.
type Table struct {
	Name string
	Rows [][]float64
}

// Tables returns the matrices of the step in display order. Matrices the
// step did not reach are omitted.
func (s Snapshot) Tables() []Table {
	var out []Table
	add := func(name string, rows [][]float64) {
		if rows != nil {
			out = append(out, Table{Name: name, Rows: rows})
		}
	}

	switch {
	case s.Interior != nil:
		it := s.Interior
		add("D = diag(x)", diagRows(it.D))
		add("A~ = A D", denseRows(it.ATilde))
		add("c~ = D c", vectorRows(it.CTilde))
		add("P = I - A~^T (A~ A~^T)^-1 A~", denseRows(it.P))
		add("P c~", vectorRows(it.PC))
		add("x", sliceRows(it.Point))
		add("x'", sliceRows(it.Next))
	case s.Simplex != nil:
		sx := s.Simplex
		add("B^-1", denseRows(sx.Inverse))
		add("x_B", vectorRows(sx.BasicValues))
		add("p", vectorRows(sx.Duals))
		add("c - p A", sliceRows(sx.ReducedCosts))
		add("u = B^-1 A_j", vectorRows(sx.Direction))
		add("x", sliceRows(sx.Point))
	}
	return out
}

func denseRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}

func diagRows(d *mat.DiagDense) [][]float64 {
	if d == nil {
		return nil
	}
	return denseRows(mat.DenseCopyOf(d))
}

func vectorRows(v *mat.VecDense) [][]float64 {
	if v == nil {
		return nil
	}
	return [][]float64{mat.Col(nil, 0, v)}
}

func sliceRows(v []float64) [][]float64 {
	if v == nil {
		return nil
	}
	return [][]float64{slices.Clone(v)}
}
