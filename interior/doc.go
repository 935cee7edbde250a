// Package interior implements the affine-scaling interior-point method for
// standard-form linear programs
//
//	min cᵗx  s.t.  A x = b,  x ≥ 0,
//
// driven one step at a time. Each call to Engine.Advance rescales the
// problem around the current point x with D = diag(x), projects the scaled
// cost c̃ = D·c onto the null space of Ã = A·D and moves along
//
//	d = −P·c̃,   P = I − Ãᵗ(ÃÃᵗ)⁻¹Ã,
//
// which decreases the objective while keeping A x = b. The step in scaled
// space is t = α / max(−dᵢ), so that x′ = x + t·D·d stays strictly positive
// for any α in (0,1). Both step policies use this rule; they differ only in
// where α comes from: Fixed takes the caller's fraction, Adaptive the
// safety factor applied to the full ratio-test step α_max = 1 / max(−dᵢ).
// P itself is formed from an orthonormal basis of Ãᵗ, and each x′ is pulled
// back onto A x = b by a least-norm correction. Every intermediate matrix is returned in a Snapshot;
// the engine itself keeps only x, the step count and its status.
//
// An Engine is not safe for concurrent use. A Problem may be shared.
package interior
