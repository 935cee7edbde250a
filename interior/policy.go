package interior

import "fmt"

// DefaultSafety is the fraction of the ratio-test step taken by Adaptive.
const DefaultSafety = 0.95

// PolicyKind selects how the step length is chosen.
type PolicyKind int

const (
	// Fixed moves a user-chosen fraction of the way to the nearest bound.
	Fixed PolicyKind = iota
	// Adaptive moves the full ratio-test distance scaled by a safety factor.
	Adaptive
)

// StepPolicy is the step-length rule. Alpha is the fraction of the ratio
// test step α_max = min{−1/dᵢ : dᵢ < 0} that is taken. Kind records where
// Alpha came from; Step computes the same Alpha·α_max for both kinds.
type StepPolicy struct {
	Kind  PolicyKind
	Alpha float64
}

// FixedStep returns a Fixed policy taking fraction alpha of α_max.
func FixedStep(alpha float64) StepPolicy {
	return StepPolicy{Kind: Fixed, Alpha: alpha}
}

// AdaptiveStep returns an Adaptive policy. A zero safety selects
// DefaultSafety.
func AdaptiveStep(safety float64) StepPolicy {
	if safety == 0 {
		safety = DefaultSafety
	}
	return StepPolicy{Kind: Adaptive, Alpha: safety}
}

// Validate requires Alpha in the open interval (0,1).
func (p StepPolicy) Validate() error {
	if p.Kind != Fixed && p.Kind != Adaptive {
		return fmt.Errorf("kind %d: %w", int(p.Kind), ErrBadPolicy)
	}
	if !(p.Alpha > 0 && p.Alpha < 1) {
		return fmt.Errorf("%v fraction %g not in (0,1): %w", p, p.Alpha, ErrBadPolicy)
	}
	return nil
}

// Step returns the scaled-space step length for direction d, and false if d
// has no negative component.
func (p StepPolicy) Step(d []float64) (float64, bool) {
	worst := 0.0
	for _, v := range d {
		if -v > worst {
			worst = -v
		}
	}
	if worst == 0 {
		return 0, false
	}
	return p.Alpha / worst, true
}

func (p StepPolicy) String() string {
	if p.Kind == Adaptive {
		return fmt.Sprintf("adaptive(%g)", p.Alpha)
	}
	return fmt.Sprintf("fixed(%g)", p.Alpha)
}
