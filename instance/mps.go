//go:build glpk

package instance

import (
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lukpank/go-glpk/glpk"

	"q.log/lpstep/model"
)

// ReadMPS reads a fixed-format MPS file through GLPK. Ranged rows become a
// ≥ row and a ≤ row; free rows are dropped. Variables must have a finite,
// non-negative lower bound.
func ReadMPS(path string) (*Instance, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	lp := glpk.New()
	defer lp.Delete()
	if err := lp.ReadMPS(glpk.MPS_FILE, nil, path); err != nil {
		return nil, fmt.Errorf("%s: read mps: %v: %w", path, err, ErrFormat)
	}

	n := lp.NumCols()
	c := make([]float64, n)
	for j := range n {
		c[j] = lp.ObjCoef(j + 1)
	}

	var (
		rows   [][]float64
		senses []model.Sense
		rhs    []float64
	)
	add := func(row []float64, s model.Sense, b float64) {
		rows = append(rows, row)
		senses = append(senses, s)
		rhs = append(rhs, b)
	}
	for r := 1; r <= lp.NumRows(); r++ {
		row := make([]float64, n)
		idxs, vals := lp.MatRow(r)
		for i, j := range idxs {
			if j == 0 {
				continue
			}
			row[j-1] = vals[i]
		}

		lb, ub := lp.RowLB(r), lp.RowUB(r)
		noLower, noUpper := lb == -math.MaxFloat64, ub == math.MaxFloat64
		switch {
		case noLower && noUpper:
			continue
		case noLower:
			add(row, model.LessEqual, ub)
		case noUpper:
			add(row, model.GreaterEqual, lb)
		case lb == ub:
			add(row, model.Equal, lb)
		default:
			add(row, model.GreaterEqual, lb)
			add(append([]float64(nil), row...), model.LessEqual, ub)
		}
	}

	bounds := make([]model.Bound, n)
	for j := range n {
		lb, ub := lp.ColLB(j+1), lp.ColUB(j+1)
		if lb == -math.MaxFloat64 || lb < 0 {
			return nil, fmt.Errorf("%s: column %d has negative lower bound: %w", path, j+1, ErrFormat)
		}
		bounds[j] = model.Bound{Lower: lb, Upper: ub}
		if ub == math.MaxFloat64 {
			bounds[j].Upper = math.Inf(1)
		}
	}

	dir := model.Minimize
	if lp.ObjDir() == glpk.MAX {
		dir = model.Maximize
	}

	p, err := model.NewProblem(c, rows, senses, rhs, model.WithDirection(dir), model.WithBounds(bounds))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Instance{Name: name, Problem: p}, nil
}
