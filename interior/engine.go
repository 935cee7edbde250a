package interior

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"q.log/lpstep/convergence"
	"q.log/lpstep/linalg"
	"q.log/lpstep/model"
)

// Engine runs affine scaling on one standard-form problem.
type Engine struct {
	a *mat.Dense
	b []float64
	c *mat.VecDense

	x      []float64
	iter   int
	slow   int
	status convergence.Status

	policy StepPolicy
	limits convergence.Limits
	logger *slog.Logger
}

// New validates the start point and returns a Running engine at iteration 0.
// p must be in standard form; x0 must be strictly positive and satisfy
// A x0 = b within Limits.FeasibilityTolerance relative to 1 + ‖b‖∞.
func New(p *model.Problem, x0 []float64, policy StepPolicy, opts ...Option) (*Engine, error) {
	if !p.IsStandardForm() {
		return nil, fmt.Errorf("interior: %w", model.ErrNotStandardForm)
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.limits.Validate(); err != nil {
		return nil, fmt.Errorf("interior: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	n := p.NumCols()
	if len(x0) != n {
		return nil, fmt.Errorf("%d values for %d variables: %w", len(x0), n, ErrInfeasibleStart)
	}
	for i, v := range x0 {
		if !(v > 0) || math.IsInf(v, 1) {
			return nil, fmt.Errorf("x[%d] = %g is not strictly positive: %w", i, v, ErrInfeasibleStart)
		}
	}

	a, b := p.A(), p.RHS()
	res, err := linalg.Residual(a, x0, b)
	if err != nil {
		return nil, fmt.Errorf("interior: %w", err)
	}
	if limit := cfg.limits.FeasibilityTolerance * (1 + floats.Norm(b, math.Inf(1))); res > limit {
		return nil, fmt.Errorf("‖Ax−b‖∞ = %g exceeds %g: %w", res, limit, ErrInfeasibleStart)
	}

	return &Engine{
		a:      a,
		b:      b,
		c:      mat.NewVecDense(n, p.Objective()),
		x:      slices.Clone(x0),
		status: convergence.Running,
		policy: policy,
		limits: cfg.limits,
		logger: cfg.logger,
	}, nil
}

// Status returns the current state.
func (e *Engine) Status() convergence.Status { return e.status }

// Iteration returns the number of committed steps.
func (e *Engine) Iteration() int { return e.iter }

// Point returns a copy of the current point.
func (e *Engine) Point() []float64 { return slices.Clone(e.x) }

// Objective returns cᵗx at the current point.
func (e *Engine) Objective() float64 {
	return floats.Dot(e.c.RawVector().Data, e.x)
}

// Policy returns the step policy.
func (e *Engine) Policy() StepPolicy { return e.policy }

// Advance performs one affine-scaling step and returns its snapshot, whose
// Status is the engine status after the step. Once the engine is terminal
// Advance returns convergence.ErrTerminated.
//
// A singular Gram matrix ends the run as Infeasible. Optimal and Stalled
// steps still commit x′; Unbounded and Infeasible steps leave x unchanged.
// A candidate that would raise cᵗx is never committed: the run ends
// Optimal at x and the snapshot reports x as its next point.
func (e *Engine) Advance() (Snapshot, error) {
	if e.status.Terminal() {
		return Snapshot{}, fmt.Errorf("advance after %d steps (%v): %w", e.iter, e.status, convergence.ErrTerminated)
	}

	k := e.iter
	x := slices.Clone(e.x)
	n := len(x)

	d, err := linalg.Diag(x)
	if err != nil {
		return Snapshot{}, fmt.Errorf("interior: step %d: %w", k, err)
	}
	aTilde, err := linalg.Mul(e.a, d)
	if err != nil {
		return Snapshot{}, fmt.Errorf("interior: step %d: %w", k, err)
	}
	cTilde, err := linalg.MulVec(d, e.c)
	if err != nil {
		return Snapshot{}, fmt.Errorf("interior: step %d: %w", k, err)
	}

	snap := Snapshot{
		Iteration: k,
		D:         d,
		ATilde:    aTilde,
		CTilde:    cTilde,
		Alpha:     e.policy.Alpha,
		Point:     x,
		Objective: e.Objective(),
	}

	proj, err := linalg.NewProjector(aTilde, e.limits.SingularTolerance)
	switch {
	case errors.Is(err, linalg.ErrSingularMatrix):
		e.status = convergence.Infeasible
		snap.Status = e.status
		e.logger.Info("affine scaling stopped",
			slog.Int("iteration", k),
			slog.String("status", e.status.String()),
			slog.String("reason", err.Error()))
		return snap, nil
	case err != nil:
		return Snapshot{}, fmt.Errorf("interior: step %d: %w", k, err)
	}

	pc, err := proj.Apply(cTilde)
	if err != nil {
		return Snapshot{}, fmt.Errorf("interior: step %d: %w", k, err)
	}
	dir := mat.NewVecDense(n, nil)
	dir.ScaleVec(-1, pc)
	dv := dir.RawVector().Data
	snap.P, snap.PC, snap.Direction = proj.Matrix(), pc, dir

	scale := floats.Norm(cTilde.RawVector().Data, math.Inf(1))
	var next []float64
	if convergence.HasDescent(dv, e.limits.DirectionTolerance*math.Max(scale, minScale)) {
		step, _ := e.policy.Step(dv)
		next = make([]float64, n)
		for i := range next {
			// x′ = x + t·D·d
			next[i] = x[i] + step*x[i]*dv[i]
		}
		e.restore(proj, x, next)
		snap.Step = step
		snap.NextObjective = floats.Dot(e.c.RawVector().Data, next)
	}

	dec := convergence.Decide(convergence.Observation{
		Previous:           x,
		Candidate:          next,
		Direction:          dv,
		Iteration:          k,
		Scale:              math.Max(scale, minScale),
		PreviousObjective:  snap.Objective,
		CandidateObjective: snap.NextObjective,
		SlowSteps:          e.slow,
	}, e.limits)
	e.slow = dec.SlowSteps
	e.status = dec.Verdict.Status()
	snap.Status = e.status

	switch e.status {
	case convergence.Running:
		e.x = next
		e.iter++
	case convergence.Optimal, convergence.Stalled:
		if next == nil || dec.Hold {
			next = slices.Clone(x)
			snap.Step = 0
			snap.NextObjective = snap.Objective
		}
		e.x = next
	}
	if next != nil {
		snap.Next = slices.Clone(next)
	}

	e.logger.Debug("affine scaling step",
		slog.Int("iteration", k),
		slog.String("status", e.status.String()),
		slog.Float64("objective", snap.Objective),
		slog.Float64("step", snap.Step))
	if e.status.Terminal() {
		e.logger.Info("affine scaling stopped",
			slog.Int("iteration", k),
			slog.String("status", e.status.String()),
			slog.Float64("objective", e.Objective()))
	}
	return snap, nil
}

// minScale keeps the direction tolerance positive when c̃ vanishes.
const minScale = 1e-300

// restore pulls next back onto A·x = b. The correction D·u, with u the
// least-norm solution of Ã·u = b − A·next, removes the rounding drift of
// the step; it is skipped if it would leave the positive orthant.
func (e *Engine) restore(proj *linalg.Projector, x, next []float64) {
	ax := mat.NewVecDense(len(e.b), nil)
	ax.MulVec(e.a, mat.NewVecDense(len(next), next))
	r := make([]float64, len(e.b))
	floats.SubTo(r, e.b, ax.RawVector().Data)
	if floats.Norm(r, math.Inf(1)) == 0 {
		return
	}

	u, err := proj.MinNorm(r)
	if err != nil {
		return
	}
	fixed := make([]float64, len(next))
	for i := range fixed {
		fixed[i] = next[i] + x[i]*u[i]
		if !(fixed[i] > 0) {
			return
		}
	}
	copy(next, fixed)
}
