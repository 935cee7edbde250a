//go:build !glpk

package instance

import "fmt"

// ReadMPS reports ErrMPSUnavailable; build with -tags glpk for MPS input.
func ReadMPS(path string) (*Instance, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrMPSUnavailable)
}
