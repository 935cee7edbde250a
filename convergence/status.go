// Package convergence holds the engine state set and the termination policy
// shared by every stepping method.
package convergence

import (
	"errors"
	"fmt"
)

// ErrTerminated is returned when a step is requested from an engine whose
// status is no longer Running.
var ErrTerminated = errors.New("convergence: engine has terminated")

// ErrBadLimits is returned by Limits.Validate.
var ErrBadLimits = errors.New("convergence: invalid limits")

// Status is the state of a stepping engine. Every status except Running is
// terminal.
type Status int

const (
	Running Status = iota
	Optimal
	Unbounded
	Infeasible
	Stalled
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Optimal:
		return "optimal"
	case Unbounded:
		return "unbounded"
	case Infeasible:
		return "infeasible"
	case Stalled:
		return "stalled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether no further steps may be taken.
func (s Status) Terminal() bool { return s != Running }

// Verdict is the controller's decision after one step.
type Verdict int

const (
	Continue Verdict = iota
	Converged
	Diverged
	GaveUp
)

func (v Verdict) String() string {
	return v.Status().String()
}

// Status maps a verdict to the engine status it produces.
func (v Verdict) Status() Status {
	switch v {
	case Converged:
		return Optimal
	case Diverged:
		return Unbounded
	case GaveUp:
		return Stalled
	default:
		return Running
	}
}
