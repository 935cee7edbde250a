package interior

import "errors"

var (
	// ErrInfeasibleStart is returned when the initial point is not strictly
	// positive or does not satisfy A x = b within tolerance.
	ErrInfeasibleStart = errors.New("interior: infeasible start point")

	// ErrBadPolicy is returned for step fractions outside (0,1).
	ErrBadPolicy = errors.New("interior: invalid step policy")
)
