// Package instance loads problems from files. YAML files are always
// supported; MPS files need the glpk build tag and libglpk.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"q.log/lpstep/model"
)

var (
	// ErrFormat is returned for unreadable or inconsistent problem files.
	ErrFormat = errors.New("instance: bad problem file")

	// ErrMPSUnavailable is returned when MPS support was not compiled in.
	ErrMPSUnavailable = errors.New("instance: MPS support requires the glpk build tag")
)

// Instance is a problem together with the optional start point stored next
// to it.
type Instance struct {
	Name    string
	Problem *model.Problem
	Initial []float64
}

// LoadFile reads a problem, choosing the reader by extension: .yaml and
// .yml use ReadYAML, .mps uses ReadMPS.
func LoadFile(path string) (*Instance, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open problem: %w", err)
		}
		defer f.Close()
		inst, err := ReadYAML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if inst.Name == "" {
			inst.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return inst, nil
	case ".mps":
		return ReadMPS(path)
	}
	return nil, fmt.Errorf("%s: unknown extension: %w", path, ErrFormat)
}
