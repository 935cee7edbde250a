// Package solver selects a stepping method for a Problem and drives it
// through one uniform surface.
//
// The caller builds a model.Problem, picks a Method (checking Supports to
// grey out methods the problem shape cannot use), calls New and then Step
// until the returned Snapshot has a terminal status. Problems that are not
// in standard form are normalized with model.StandardForm first; snapshots
// and solutions are mapped back to the caller's variables and objective
// direction. The package keeps no state of its own.
package solver
