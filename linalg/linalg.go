package linalg

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSingularTolerance is the smallest reciprocal condition number a Gram
// matrix may have before it is treated as singular.
const DefaultSingularTolerance = 1e-12

// Mul returns a·b.
func Mul(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("mul %dx%d by %dx%d: %w", ar, ac, br, bc, ErrDimensionMismatch)
	}
	out := mat.NewDense(ar, bc, nil)
	out.Mul(a, b)
	return out, nil
}

// MulVec returns a·x.
func MulVec(a mat.Matrix, x mat.Vector) (*mat.VecDense, error) {
	ar, ac := a.Dims()
	if ac != x.Len() {
		return nil, fmt.Errorf("mulvec %dx%d by %d: %w", ar, ac, x.Len(), ErrDimensionMismatch)
	}
	out := mat.NewVecDense(ar, nil)
	out.MulVec(a, x)
	return out, nil
}

// Transpose returns a freshly allocated aᵗ.
func Transpose(a mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(a.T())
}

// Diag builds diag(x). The result does not alias x.
func Diag(x []float64) (*mat.DiagDense, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("diag: %w", ErrEmpty)
	}
	return mat.NewDiagDense(len(x), slices.Clone(x)), nil
}

// Identity returns the n×n identity.
func Identity(n int) *mat.DiagDense {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return mat.NewDiagDense(n, ones)
}

// Gram returns a·aᵗ as a symmetric matrix.
func Gram(a mat.Matrix) *mat.SymDense {
	r, _ := a.Dims()
	g := mat.NewSymDense(r, nil)
	g.SymOuterK(1, a)
	return g
}

// InverseGram inverts the symmetric positive definite matrix g through a
// Cholesky factorization. A failed factorization or a reciprocal condition
// number below tol yields ErrSingularMatrix; nothing is zero-filled.
func InverseGram(g mat.Symmetric, tol float64) (*mat.SymDense, error) {
	chol, err := factorGram(g, tol)
	if err != nil {
		return nil, fmt.Errorf("inverse gram: %w", err)
	}
	n := g.SymmetricDim()
	inv := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, fmt.Errorf("inverse gram: %v: %w", err, ErrSingularMatrix)
	}
	return inv, nil
}

func factorGram(g mat.Symmetric, tol float64) (*mat.Cholesky, error) {
	n := g.SymmetricDim()
	if n == 0 {
		return nil, ErrEmpty
	}
	if tol <= 0 {
		tol = DefaultSingularTolerance
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(g); !ok {
		return nil, fmt.Errorf("factorize %dx%d: %w", n, n, ErrSingularMatrix)
	}
	cond := chol.Cond()
	if math.IsInf(cond, 1) || math.IsNaN(cond) || 1/cond < tol {
		return nil, fmt.Errorf("condition %g exceeds %g: %w", cond, 1/tol, ErrSingularMatrix)
	}
	return &chol, nil
}

// Projector projects onto the null space of an m×n matrix a of full row
// rank. It keeps an orthonormal basis Q of the row space of a, taken from
// a QR factorization of aᵗ, so that P = I − Q·Qᵗ is formed without an
// explicit inverse.
type Projector struct {
	a    mat.Matrix
	chol *mat.Cholesky // of a·aᵗ
	q    *mat.Dense    // n×m
}

// NewProjector factorizes a. Rank-deficient rows, judged by the
// reciprocal condition number of a·aᵗ against tol, yield
// ErrSingularMatrix; more rows than columns always do.
func NewProjector(a mat.Matrix, tol float64) (*Projector, error) {
	m, n := a.Dims()
	if m == 0 || n == 0 {
		return nil, fmt.Errorf("projector: %w", ErrEmpty)
	}
	if m > n {
		return nil, fmt.Errorf("projector: %d rows over %d columns: %w", m, n, ErrSingularMatrix)
	}
	chol, err := factorGram(Gram(a), tol)
	if err != nil {
		return nil, fmt.Errorf("projector: %w", err)
	}

	var qr mat.QR
	qr.Factorize(a.T())
	var full mat.Dense
	qr.QTo(&full)

	return &Projector{
		a:    a,
		chol: chol,
		q:    mat.DenseCopyOf(full.Slice(0, n, 0, m)),
	}, nil
}

// Matrix returns P = I − Q·Qᵗ.
func (p *Projector) Matrix() *mat.Dense {
	n, _ := p.q.Dims()
	qq := mat.NewDense(n, n, nil)
	qq.Mul(p.q, p.q.T())
	out := mat.NewDense(n, n, nil)
	out.Sub(Identity(n), qq)
	return out
}

// Apply returns P·v. The projection is applied twice so that the row-space
// component left by rounding is small relative to ‖P·v‖, not to ‖v‖.
func (p *Projector) Apply(v mat.Vector) (*mat.VecDense, error) {
	n, m := p.q.Dims()
	if v.Len() != n {
		return nil, fmt.Errorf("project %d values onto %d: %w", v.Len(), n, ErrDimensionMismatch)
	}
	out := mat.VecDenseCopyOf(v)
	coef := mat.NewVecDense(m, nil)
	back := mat.NewVecDense(n, nil)
	for range 2 {
		coef.MulVec(p.q.T(), out)
		back.MulVec(p.q, coef)
		out.SubVec(out, back)
	}
	return out, nil
}

// MinNorm returns the least-norm u with a·u = r, i.e. aᵗ(a·aᵗ)⁻¹r, solved
// through the Cholesky factor.
func (p *Projector) MinNorm(r []float64) ([]float64, error) {
	m, n := p.a.Dims()
	if len(r) != m {
		return nil, fmt.Errorf("min norm: rhs %d for %d rows: %w", len(r), m, ErrDimensionMismatch)
	}
	var w mat.VecDense
	if err := p.chol.SolveVecTo(&w, mat.NewVecDense(m, slices.Clone(r))); err != nil {
		return nil, fmt.Errorf("min norm: %v: %w", err, ErrSingularMatrix)
	}
	u := mat.NewVecDense(n, nil)
	u.MulVec(p.a.T(), &w)
	return u.RawVector().Data, nil
}

// Projection returns P = I − aᵗ(a·aᵗ)⁻¹a, the orthogonal projector onto the
// null space of a.
func Projection(a mat.Matrix, tol float64) (*mat.Dense, error) {
	p, err := NewProjector(a, tol)
	if err != nil {
		return nil, err
	}
	return p.Matrix(), nil
}

// Residual returns ‖a·x − b‖∞.
func Residual(a mat.Matrix, x, b []float64) (float64, error) {
	r, _ := a.Dims()
	if len(b) != r {
		return 0, fmt.Errorf("residual: rhs %d for %d rows: %w", len(b), r, ErrDimensionMismatch)
	}
	if len(x) == 0 {
		return 0, fmt.Errorf("residual: %w", ErrEmpty)
	}
	ax, err := MulVec(a, mat.NewVecDense(len(x), slices.Clone(x)))
	if err != nil {
		return 0, fmt.Errorf("residual: %w", err)
	}
	diff := make([]float64, r)
	floats.SubTo(diff, ax.RawVector().Data, b)
	return floats.Norm(diff, math.Inf(1)), nil
}
