// Package simplex implements a stepwise revised simplex method on a
// standard-form problem. The start basis is made of artificial columns
// priced at a big-M cost; pricing takes the first column with a negative
// reduced cost and the ratio test breaks ties on the lower basic index.
package simplex

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"q.log/lpstep/convergence"
	"q.log/lpstep/model"
)

const (
	epsilon1 = 1e-9
	epsilon2 = 1e-9

	// DefaultBigM is the objective coefficient of artificial columns.
	DefaultBigM = 1e5
)

// Engine holds the working tableau [A | I] and the current basis.
type Engine struct {
	V []*Variable

	a *mat.Dense
	b []float64
	c []float64

	numRows       int
	numCols       int // including artificials
	numStructural int

	basisIndexes []int
	iter         int
	status       convergence.Status

	limits convergence.Limits
	logger *slog.Logger
}

type options struct {
	bigM   float64
	limits convergence.Limits
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithBigM sets the artificial cost.
func WithBigM(m float64) Option { return func(o *options) { o.bigM = m } }

// WithLimits sets the iteration cap. Only MaxIterations is used.
func WithLimits(l convergence.Limits) Option { return func(o *options) { o.limits = l } }

// WithLogger sets the step logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New copies p into a working tableau, flips rows with a negative right-hand
// side and appends one artificial column per row as the start basis.
func New(p *model.Problem, opts ...Option) (*Engine, error) {
	if !p.IsStandardForm() {
		return nil, fmt.Errorf("simplex: %w", model.ErrNotStandardForm)
	}
	cfg := options{
		bigM:   DefaultBigM,
		limits: convergence.DefaultLimits(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !(cfg.bigM > 0) {
		return nil, fmt.Errorf("%g: %w", cfg.bigM, ErrBigM)
	}
	if err := cfg.limits.Validate(); err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}

	m := model.NewBuilder(p.NumRows(), p.NumCols())
	if err := m.SetA(p.A().RawMatrix().Data); err != nil {
		return nil, fmt.Errorf("simplex: %v: %w", err, model.ErrMalformedProblem)
	}
	if err := m.SetB(p.RHS()); err != nil {
		return nil, fmt.Errorf("simplex: %v: %w", err, model.ErrMalformedProblem)
	}
	if err := m.SetC(p.Objective()); err != nil {
		return nil, fmt.Errorf("simplex: %v: %w", err, model.ErrMalformedProblem)
	}
	for r := range m.NumRows {
		if m.B.At(r, 0) < 0 {
			if err := m.MultiplyConstraint(r, -1); err != nil {
				return nil, fmt.Errorf("simplex: flip row %d: %v: %w", r, err, model.ErrMalformedProblem)
			}
		}
	}

	e := &Engine{
		numRows:       m.NumRows,
		numStructural: m.NumCols,
		status:        convergence.Running,
		limits:        cfg.limits,
		logger:        cfg.logger,
	}
	for range m.NumCols {
		e.V = append(e.V, &Variable{})
	}
	for r := range m.NumRows {
		bRowVec := make([]float64, m.NumRows)
		bRowVec[r] = 1
		if err := m.AddCol(bRowVec, cfg.bigM); err != nil {
			return nil, fmt.Errorf("simplex: %v: %w", err, model.ErrMalformedProblem)
		}
		e.V = append(e.V, &Variable{IsBasic: true, IsArtificial: true})
		e.basisIndexes = append(e.basisIndexes, m.NumCols-1)
	}

	e.a = mat.DenseCopyOf(m.A)
	e.b = mat.Col(nil, 0, m.B)
	e.c = mat.Row(nil, 0, m.C)
	e.numCols = m.NumCols
	e.updateValues(e.b)
	return e, nil
}

// Status returns the current state.
func (e *Engine) Status() convergence.Status { return e.status }

// Iteration returns the number of pivots made.
func (e *Engine) Iteration() int { return e.iter }

// Basis returns the basic column of each row.
func (e *Engine) Basis() []int { return slices.Clone(e.basisIndexes) }

// Point returns the current basic solution over the structural columns.
func (e *Engine) Point() []float64 {
	x := make([]float64, e.numStructural)
	for j := range x {
		x[j] = e.V[j].Value
	}
	return x
}

// Objective returns cᵗx over the structural columns.
func (e *Engine) Objective() float64 {
	return floats.Dot(e.c[:e.numStructural], e.Point())
}

func (e *Engine) updateValues(xB []float64) {
	for _, v := range e.V {
		v.Value = 0
	}
	for i, col := range e.basisIndexes {
		v := xB[i]
		if math.Abs(v) < epsilon2 {
			v = 0
		}
		e.V[col].Value = v
	}
}

func (e *Engine) artificialInBasis() bool {
	for _, col := range e.basisIndexes {
		if e.V[col].IsArtificial && e.V[col].Value > epsilon2 {
			return true
		}
	}
	return false
}

// Advance prices the current basis and, unless it is optimal or unbounded,
// pivots one column into it.
func (e *Engine) Advance() (Snapshot, error) {
	if e.status.Terminal() {
		return Snapshot{}, fmt.Errorf("advance after %d pivots (%v): %w", e.iter, e.status, convergence.ErrTerminated)
	}

	snap := Snapshot{
		Iteration: e.iter,
		Basis:     e.Basis(),
		Entering:  -1,
		Leaving:   -1,
	}

	//compute B^-1
	currentBasis := mat.NewDense(e.numRows, e.numRows, nil)
	basisCoefsVec := make([]float64, e.numRows)
	for k, col := range e.basisIndexes {
		currentBasis.SetCol(k, mat.Col(nil, col, e.a))
		basisCoefsVec[k] = e.c[col]
	}
	inverseBases := mat.NewDense(e.numRows, e.numRows, nil)
	if err := inverseBases.Inverse(currentBasis); err != nil {
		e.status = convergence.Infeasible
		snap.Status = e.status
		e.logger.Info("simplex stopped", slog.Int("iteration", e.iter), slog.String("reason", err.Error()))
		return snap, nil
	}
	snap.Inverse = inverseBases

	//compute basic solution by solving Bx=b
	currentSolution := mat.NewVecDense(e.numRows, nil)
	currentSolution.MulVec(inverseBases, mat.NewVecDense(e.numRows, slices.Clone(e.b)))
	e.updateValues(currentSolution.RawVector().Data)
	snap.BasicValues = currentSolution
	snap.Point = e.Point()
	snap.Objective = e.Objective()

	//pT = cbT*B^-1
	dual := mat.NewVecDense(e.numRows, nil)
	dual.MulVec(inverseBases.T(), mat.NewVecDense(e.numRows, basisCoefsVec))
	snap.Duals = dual

	//calculate reduced costs (pricing)
	reducedCosts := make([]float64, e.numCols)
	chosedJ := -1
	for j := range e.numCols {
		if e.V[j].IsBasic {
			continue
		}
		//c'j = cj - pT*Aj
		reducedCosts[j] = e.c[j] - mat.Dot(dual, e.a.ColView(j))
		if chosedJ == -1 && reducedCosts[j] < -epsilon1 {
			chosedJ = j
		}
	}
	snap.ReducedCosts = reducedCosts

	//optimality condition
	if chosedJ == -1 {
		e.status = convergence.Optimal
		if e.artificialInBasis() {
			e.status = convergence.Infeasible
		}
		return e.finish(snap), nil
	}
	snap.Entering = chosedJ

	//compute u = Bˆ-1*A_j
	u := mat.NewVecDense(e.numRows, nil)
	u.MulVec(inverseBases, e.a.ColView(chosedJ))
	snap.Direction = u

	//minimal ratio test
	minimalRatio := math.MaxFloat64
	leaveBaseIndex := -1
	uVec := u.RawVector().Data
	xB := currentSolution.RawVector().Data
	for i := range e.numRows {
		if uVec[i] < epsilon2 {
			continue
		}
		xi := math.Max(xB[i], 0)
		iRatio := xi / uVec[i]
		if iRatio < minimalRatio-epsilon1 || (leaveBaseIndex != -1 && math.Abs(iRatio-minimalRatio) <= epsilon2 && e.basisIndexes[leaveBaseIndex] > e.basisIndexes[i]) {
			minimalRatio = iRatio
			leaveBaseIndex = i
		}
	}

	// problem is unbounded
	if leaveBaseIndex == -1 {
		e.status = convergence.Unbounded
		return e.finish(snap), nil
	}

	//form new basis by replacing leaveBaseIndex with chosedJ
	leaving := e.basisIndexes[leaveBaseIndex]
	snap.Leaving = leaving
	snap.Ratio = minimalRatio
	e.V[leaving].IsBasic = false
	e.V[leaving].Value = 0
	e.basisIndexes[leaveBaseIndex] = chosedJ
	e.V[chosedJ].IsBasic = true

	for i := range xB {
		xB[i] -= minimalRatio * uVec[i]
	}
	xB[leaveBaseIndex] = minimalRatio
	e.updateValues(xB)

	e.iter++
	if e.iter >= e.limits.MaxIterations {
		e.status = convergence.Stalled
	}
	return e.finish(snap), nil
}

func (e *Engine) finish(snap Snapshot) Snapshot {
	snap.Status = e.status
	e.logger.Debug("simplex step",
		slog.Int("iteration", snap.Iteration),
		slog.Int("entering", snap.Entering),
		slog.Int("leaving", snap.Leaving),
		slog.Float64("objective", snap.Objective),
		slog.String("status", e.status.String()))
	if e.status.Terminal() {
		e.logger.Info("simplex stopped",
			slog.Int("iteration", snap.Iteration),
			slog.String("status", e.status.String()),
			slog.Float64("objective", e.Objective()))
	}
	return snap
}
