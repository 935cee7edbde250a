package interior_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"q.log/lpstep/convergence"
	"q.log/lpstep/interior"
	"q.log/lpstep/linalg"
	"q.log/lpstep/model"
)

func equality(t *testing.T, c []float64, rows [][]float64, b []float64) *model.Problem {
	t.Helper()
	senses := make([]model.Sense, len(rows))
	for i := range senses {
		senses[i] = model.Equal
	}
	p, err := model.NewProblem(c, rows, senses, b)
	require.NoError(t, err)
	return p
}

// run advances e until it is terminal and returns every snapshot.
func run(t *testing.T, e *interior.Engine, budget int) []interior.Snapshot {
	t.Helper()
	var snaps []interior.Snapshot
	for range budget {
		s, err := e.Advance()
		require.NoError(t, err)
		snaps = append(snaps, s)
		if s.Status.Terminal() {
			return snaps
		}
	}
	t.Fatalf("engine still %v after %d steps", e.Status(), budget)
	return nil
}

type fixture struct {
	name    string
	problem func(t *testing.T) *model.Problem
	start   []float64
}

var fixtures = []fixture{
	{
		// max x1 + 2x2 s.t. x1 + x2 <= 4, optimum -8 at (0, 4, 0).
		name: "single row",
		problem: func(t *testing.T) *model.Problem {
			return equality(t, []float64{-1, -2, 0}, [][]float64{{1, 1, 1}}, []float64{4})
		},
		start: []float64{1, 1, 2},
	},
	{
		// min 2x1 + 3x2 s.t. x1 + x2 >= 2, x1 + 2x2 <= 6, optimum 4 at x1 = 2.
		name: "covering",
		problem: func(t *testing.T) *model.Problem {
			return equality(t,
				[]float64{2, 3, 0, 0},
				[][]float64{{1, 1, -1, 0}, {1, 2, 0, 1}},
				[]float64{2, 6})
		},
		start: []float64{1, 1.5, 0.5, 2},
	},
	{
		// max 3x1 + 5x2 s.t. x1 <= 4, 2x2 <= 12, 3x1 + 2x2 <= 18, optimum -36.
		name: "three rows",
		problem: func(t *testing.T) *model.Problem {
			return equality(t,
				[]float64{-3, -5, 0, 0, 0},
				[][]float64{{1, 0, 1, 0, 0}, {0, 2, 0, 1, 0}, {3, 2, 0, 0, 1}},
				[]float64{4, 12, 18})
		},
		start: []float64{1, 1, 3, 10, 13},
	},
}

type EngineSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// TestEqualObjectiveOnManifold: min x1 + x2 s.t. x1 + x2 = 4 from (2, 2).
func (s *EngineSuite) TestEqualObjectiveOnManifold() {
	p := equality(s.T(), []float64{1, 1}, [][]float64{{1, 1}}, []float64{4})
	e, err := interior.New(p, []float64{2, 2}, interior.FixedStep(0.5))
	s.Require().NoError(err)

	snaps := run(s.T(), e, 10)
	s.Equal(convergence.Optimal, e.Status())
	s.InDelta(4.0, e.Objective(), 1e-9)

	last := snaps[len(snaps)-1]
	s.InDelta(4.0, last.NextObjective, 1e-9)
	s.Require().NotNil(last.Next)
	s.InDelta(4.0, floats.Sum(last.Next), 1e-9)
}

// TestDependentRowsAreInfeasible: two identical rows make ÃÃᵗ singular.
func (s *EngineSuite) TestDependentRowsAreInfeasible() {
	p := equality(s.T(), []float64{1, 1}, [][]float64{{1, 1}, {1, 1}}, []float64{4, 4})
	e, err := interior.New(p, []float64{2, 2}, interior.FixedStep(0.5))
	s.Require().NoError(err)

	snap, err := e.Advance()
	s.Require().NoError(err)
	s.Equal(convergence.Infeasible, snap.Status)
	s.Equal(convergence.Infeasible, e.Status())
	s.Equal(0, snap.Iteration)

	// The matrices computed before the failure are still reported.
	s.Require().NotNil(snap.D)
	s.Require().NotNil(snap.ATilde)
	s.Require().NotNil(snap.CTilde)
	s.Nil(snap.P)
	s.Nil(snap.Next)
	s.Equal([]float64{2, 2}, e.Point())

	_, err = e.Advance()
	s.ErrorIs(err, convergence.ErrTerminated)
}

// TestUnboundedDirection: min −x1 s.t. x1 − x2 = 0.
func (s *EngineSuite) TestUnboundedDirection() {
	p := equality(s.T(), []float64{-1, 0}, [][]float64{{1, -1}}, []float64{0})
	e, err := interior.New(p, []float64{1, 1}, interior.FixedStep(0.5))
	s.Require().NoError(err)

	snap, err := e.Advance()
	s.Require().NoError(err)
	s.Equal(convergence.Unbounded, snap.Status)
	s.Require().NotNil(snap.Direction)
	s.InDelta(0.5, snap.Direction.AtVec(0), 1e-12)
	s.InDelta(0.5, snap.Direction.AtVec(1), 1e-12)
	s.Nil(snap.Next)

	_, err = e.Advance()
	s.ErrorIs(err, convergence.ErrTerminated)
}

// TestFirstStepMatrices checks one hand-computed step.
func (s *EngineSuite) TestFirstStepMatrices() {
	p := fixtures[0].problem(s.T())
	e, err := interior.New(p, fixtures[0].start, interior.FixedStep(0.5))
	s.Require().NoError(err)

	snap, err := e.Advance()
	s.Require().NoError(err)
	s.Equal(convergence.Running, snap.Status)

	s.True(mat.Equal(snap.D, mat.NewDiagDense(3, []float64{1, 1, 2})))
	s.True(mat.Equal(snap.ATilde, mat.NewDense(1, 3, []float64{1, 1, 2})))
	s.True(mat.Equal(snap.CTilde, mat.NewVecDense(3, []float64{-1, -2, 0})))
	s.True(mat.EqualApprox(snap.PC, mat.NewVecDense(3, []float64{-0.5, -1.5, 1}), 1e-12))
	s.True(mat.EqualApprox(snap.Direction, mat.NewVecDense(3, []float64{0.5, 1.5, -1}), 1e-12))
	s.InDelta(0.5, snap.Step, 1e-12)
	s.InDeltaSlice([]float64{1.25, 1.75, 1}, snap.Next, 1e-12)
	s.InDelta(-3.0, snap.Objective, 1e-12)
	s.InDelta(-4.75, snap.NextObjective, 1e-12)

	s.Equal(1, e.Iteration())
	s.InDeltaSlice([]float64{1.25, 1.75, 1}, e.Point(), 1e-12)
}

// TestSnapshotsAreIndependent: later steps never rewrite earlier snapshots.
func (s *EngineSuite) TestSnapshotsAreIndependent() {
	p := fixtures[0].problem(s.T())
	e, err := interior.New(p, fixtures[0].start, interior.FixedStep(0.5))
	s.Require().NoError(err)

	first, err := e.Advance()
	s.Require().NoError(err)
	d := mat.DenseCopyOf(first.D)
	next := append([]float64(nil), first.Next...)

	_, err = e.Advance()
	s.Require().NoError(err)
	s.True(mat.Equal(d, first.D))
	s.Equal(next, first.Next)
}

func (s *EngineSuite) TestStalledAtIterationCap() {
	lim := convergence.DefaultLimits()
	lim.MaxIterations = 3
	p := fixtures[0].problem(s.T())
	e, err := interior.New(p, fixtures[0].start, interior.FixedStep(0.5), interior.WithLimits(lim))
	s.Require().NoError(err)

	snaps := run(s.T(), e, 10)
	s.Len(snaps, 3)
	s.Equal(convergence.Stalled, e.Status())
	s.Equal(2, snaps[2].Iteration)
	s.Equal(snaps[2].Next, e.Point(), "a stalled step still commits x′")
}

func (s *EngineSuite) TestInfeasibleStart() {
	p := fixtures[0].problem(s.T())
	cases := map[string][]float64{
		"zero component":     {0, 2, 2},
		"negative component": {-1, 3, 2},
		"off manifold":       {1, 1, 1},
		"wrong length":       {2, 2},
		"nan":                {math.NaN(), 2, 2},
	}
	for name, x0 := range cases {
		_, err := interior.New(p, x0, interior.FixedStep(0.5))
		s.ErrorIs(err, interior.ErrInfeasibleStart, name)
	}
}

func (s *EngineSuite) TestRejectsNonStandardProblem() {
	p, err := model.NewProblem([]float64{1}, [][]float64{{1}}, []model.Sense{model.LessEqual}, []float64{1})
	s.Require().NoError(err)
	_, err = interior.New(p, []float64{0.5}, interior.FixedStep(0.5))
	s.ErrorIs(err, model.ErrNotStandardForm)
}

func (s *EngineSuite) TestBadPolicy() {
	p := fixtures[0].problem(s.T())
	for _, alpha := range []float64{0, 1, 1.5, -0.2, math.NaN()} {
		_, err := interior.New(p, fixtures[0].start, interior.FixedStep(alpha))
		s.ErrorIs(err, interior.ErrBadPolicy, "alpha %g", alpha)
	}
	e, err := interior.New(p, fixtures[0].start, interior.AdaptiveStep(0))
	s.Require().NoError(err)
	s.Equal(interior.DefaultSafety, e.Policy().Alpha)
}

// TestCommittedPointsStayFeasibleAndImprove follows the engine's own point,
// not the snapshots: every committed x must satisfy A x = b and no step may
// raise cᵗx.
func TestCommittedPointsStayFeasibleAndImprove(t *testing.T) {
	for _, fx := range fixtures {
		for _, pol := range []interior.StepPolicy{interior.AdaptiveStep(0), interior.FixedStep(0.5)} {
			t.Run(fx.name+"/"+pol.String(), func(t *testing.T) {
				p := fx.problem(t)
				a, b := p.A(), p.RHS()
				e, err := interior.New(p, fx.start, pol)
				require.NoError(t, err)

				prev := e.Objective()
				for !e.Status().Terminal() {
					_, err := e.Advance()
					require.NoError(t, err)

					res, err := linalg.Residual(a, e.Point(), b)
					require.NoError(t, err)
					require.Less(t, res, 1e-9, "A x = b after step %d", e.Iteration())
					require.LessOrEqual(t, e.Objective(), prev, "objective rose after step %d", e.Iteration())
					prev = e.Objective()
				}
				require.Equal(t, convergence.Optimal, e.Status())
				assert.InDelta(t, oracle(t, p), e.Objective(), 1e-6)
			})
		}
	}
}

// TestDirectionToleranceFollowsCostScale: multiplying c by 1e-10 must not
// change the path, only the objective values.
func TestDirectionToleranceFollowsCostScale(t *testing.T) {
	solve := func(c1 float64) (*interior.Engine, []interior.Snapshot) {
		p := equality(t, []float64{c1, 0}, [][]float64{{1, 1}}, []float64{2})
		e, err := interior.New(p, []float64{1, 1}, interior.FixedStep(0.5))
		require.NoError(t, err)
		return e, run(t, e, 200)
	}

	tiny, tinySnaps := solve(1e-10)
	unit, unitSnaps := solve(1)

	assert.Equal(t, convergence.Running, tinySnaps[0].Status)
	assert.Greater(t, len(tinySnaps), 1)
	for _, e := range []*interior.Engine{tiny, unit} {
		assert.Equal(t, convergence.Optimal, e.Status())
		assert.Less(t, e.Point()[0], 1e-6)
		assert.InDelta(t, 2.0, e.Point()[1], 1e-6)
	}
	assert.InDeltaSlice(t, unitSnaps[0].Next, tinySnaps[0].Next, 1e-12)
}

// TestProperties checks the per-step invariants on every fixture and policy.
func TestProperties(t *testing.T) {
	policies := []interior.StepPolicy{interior.FixedStep(0.5), interior.AdaptiveStep(0)}
	lim := convergence.DefaultLimits()

	for _, fx := range fixtures {
		for _, pol := range policies {
			t.Run(fx.name+"/"+pol.String(), func(t *testing.T) {
				p := fx.problem(t)
				e, err := interior.New(p, fx.start, pol, interior.WithLimits(lim))
				require.NoError(t, err)

				snaps := run(t, e, lim.MaxIterations)
				require.Equal(t, convergence.Optimal, e.Status())

				a, b := p.A(), p.RHS()
				for _, s := range snaps {
					require.NotNil(t, s.P)
					pp, err := linalg.Mul(s.P, s.P)
					require.NoError(t, err)
					assert.True(t, mat.EqualApprox(pp, s.P, 1e-8), "P·P ≈ P at step %d", s.Iteration)

					for i, v := range s.Point {
						assert.Equal(t, v, s.D.At(i, i))
					}
					if s.Next == nil {
						continue
					}
					res, err := linalg.Residual(a, s.Next, b)
					require.NoError(t, err)
					assert.Less(t, res, 1e-8, "A x′ ≈ b at step %d", s.Iteration)
					for _, v := range s.Next {
						assert.Greater(t, v, 0.0, "x′ stays interior at step %d", s.Iteration)
					}
					assert.LessOrEqual(t, s.NextObjective, s.Objective+1e-12, "objective decreases at step %d", s.Iteration)
				}

				want := oracle(t, p)
				assert.InDelta(t, want, e.Objective(), 1e-5)
			})
		}
	}
}

// oracle solves p with gonum's simplex.
func oracle(t *testing.T, p *model.Problem) float64 {
	t.Helper()
	opt, _, err := lp.Simplex(p.Objective(), p.A(), p.RHS(), 0, nil)
	if errors.Is(err, lp.ErrUnbounded) {
		return math.Inf(-1)
	}
	require.NoError(t, err)
	return opt
}
