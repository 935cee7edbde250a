package convergence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Limits are the thresholds of the termination policy.
type Limits struct {
	// Tolerance bounds the relative step ‖x′−x‖ / max(1, ‖x‖).
	Tolerance float64
	// DirectionTolerance is the magnitude, relative to the scaled cost
	// ‖c̃‖∞, below which a direction component is treated as zero.
	DirectionTolerance float64
	// ObjectiveTolerance bounds the improvement, relative to |cᵗx|, of a
	// step that counts as slow.
	ObjectiveTolerance float64
	// Patience is the number of consecutive slow steps accepted as
	// convergence.
	Patience int
	// MaxIterations caps the number of steps; reaching it means Stalled.
	MaxIterations int
	// FeasibilityTolerance bounds ‖A x − b‖∞ / (1 + ‖b‖∞) for a start point.
	FeasibilityTolerance float64
	// SingularTolerance is the smallest accepted reciprocal condition number
	// of a Gram matrix.
	SingularTolerance float64
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		Tolerance:            1e-8,
		DirectionTolerance:   1e-9,
		ObjectiveTolerance:   1e-10,
		Patience:             3,
		MaxIterations:        500,
		FeasibilityTolerance: 1e-7,
		SingularTolerance:    1e-12,
	}
}

// Validate rejects non-positive tolerances and counts.
func (l Limits) Validate() error {
	switch {
	case !(l.Tolerance > 0):
		return fmt.Errorf("tolerance %g: %w", l.Tolerance, ErrBadLimits)
	case !(l.DirectionTolerance > 0):
		return fmt.Errorf("direction tolerance %g: %w", l.DirectionTolerance, ErrBadLimits)
	case !(l.ObjectiveTolerance > 0):
		return fmt.Errorf("objective tolerance %g: %w", l.ObjectiveTolerance, ErrBadLimits)
	case l.Patience < 1:
		return fmt.Errorf("patience %d: %w", l.Patience, ErrBadLimits)
	case l.MaxIterations < 1:
		return fmt.Errorf("max iterations %d: %w", l.MaxIterations, ErrBadLimits)
	case !(l.FeasibilityTolerance > 0):
		return fmt.Errorf("feasibility tolerance %g: %w", l.FeasibilityTolerance, ErrBadLimits)
	case !(l.SingularTolerance > 0):
		return fmt.Errorf("singular tolerance %g: %w", l.SingularTolerance, ErrBadLimits)
	}
	return nil
}

// Observation is everything the controller looks at after one step.
type Observation struct {
	Previous  []float64 // x
	Candidate []float64 // x′, nil when no finite step exists
	Direction []float64 // d, the descent direction in scaled space
	Iteration int       // index of the step just computed, from 0

	// Scale is ‖c̃‖∞, the size the direction is measured against. Zero or
	// less means 1.
	Scale float64

	PreviousObjective  float64
	CandidateObjective float64
	// SlowSteps counts the consecutive slow steps before this one.
	SlowSteps int
}

// Decision is the controller output. SlowSteps is to be fed back into the
// next Observation.
type Decision struct {
	Verdict   Verdict
	SlowSteps int
	// Hold is set when the candidate must not be committed: the run ends
	// at the previous point.
	Hold bool
}

// Decide applies the termination policy. It has no side effects. Checks run
// in this order:
//
//  1. a zero direction means nothing can improve: Converged;
//  2. a direction with no negative component never hits a bound: Diverged;
//  3. a candidate whose objective is higher than the current one: Converged
//     with Hold, since the step is rounding noise;
//  4. a relative step below Tolerance: Converged;
//  5. Patience consecutive slow objective improvements: Converged;
//  6. Iteration+1 reaching MaxIterations: GaveUp;
//
// otherwise Continue. Direction components are compared with
// DirectionTolerance·Scale, so rescaling c leaves every verdict unchanged.
func Decide(obs Observation, lim Limits) Decision {
	scale := obs.Scale
	if !(scale > 0) {
		scale = 1
	}
	tol := lim.DirectionTolerance * scale

	if floats.Norm(obs.Direction, math.Inf(1)) <= tol {
		return Decision{Verdict: Converged}
	}
	if !HasDescent(obs.Direction, tol) || obs.Candidate == nil {
		return Decision{Verdict: Diverged}
	}
	if obs.CandidateObjective > obs.PreviousObjective {
		return Decision{Verdict: Converged, SlowSteps: obs.SlowSteps, Hold: true}
	}

	norm := math.Max(1, floats.Norm(obs.Previous, 2))
	if floats.Distance(obs.Candidate, obs.Previous, 2)/norm < lim.Tolerance {
		return Decision{Verdict: Converged}
	}

	slow := 0
	improvement := obs.PreviousObjective - obs.CandidateObjective
	if improvement <= lim.ObjectiveTolerance*math.Abs(obs.PreviousObjective) {
		slow = obs.SlowSteps + 1
	}
	if slow >= lim.Patience {
		return Decision{Verdict: Converged, SlowSteps: slow}
	}

	if obs.Iteration+1 >= lim.MaxIterations {
		return Decision{Verdict: GaveUp, SlowSteps: slow}
	}
	return Decision{Verdict: Continue, SlowSteps: slow}
}

// HasDescent reports whether d has a component below −tol, i.e. whether
// moving along d eventually reaches a bound.
func HasDescent(d []float64, tol float64) bool {
	for _, v := range d {
		if v < -tol {
			return true
		}
	}
	return false
}
