package solver

import (
	"fmt"
	"strings"

	"q.log/lpstep/model"
)

// Method names a stepping algorithm.
type Method string

const (
	AffineScaling Method = "affine-scaling"
	Simplex       Method = "simplex"
)

// Methods lists every registered method in display order.
func Methods() []Method {
	return []Method{AffineScaling, Simplex}
}

// ParseMethod resolves a method name. "interior" and "affine" are accepted
// for AffineScaling.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(AffineScaling), "affine", "interior", "interior-point":
		return AffineScaling, nil
	case string(Simplex), "revised-simplex":
		return Simplex, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownMethod)
}

// Supports reports, as a nil error, whether m can run on p.
// Affine scaling needs a strictly interior point, which no problem with a
// fixed variable (Lower == Upper) has. Dependent or surplus rows are not
// rejected here; the engine reports them as Infeasible on its first step.
func Supports(m Method, p *model.Problem) error {
	if _, err := model.StandardForm(p); err != nil {
		return err
	}
	switch m {
	case AffineScaling:
		for j := range p.NumCols() {
			if bd := p.Bound(j); bd.Lower == bd.Upper {
				return fmt.Errorf("%s: variable %d fixed at %g has no interior: %w", m, j, bd.Lower, ErrUnsupported)
			}
		}
		return nil
	case Simplex:
		return nil
	}
	return fmt.Errorf("%q: %w", m, ErrUnknownMethod)
}
