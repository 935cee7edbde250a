package instance

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"q.log/lpstep/model"
)

// File is the YAML layout of a problem:
//
//	name: wyndor
//	sense: maximize
//	objective: [3, 5]
//	constraints:
//	  - {coefficients: [1, 0], sense: "<=", rhs: 4}
//	  - {coefficients: [3, 2], sense: "<=", rhs: 18}
//	bounds:
//	  - {lower: 0, upper: 3}
//	  - {lower: 0}
//	initial: [1, 1]
//
// A missing upper bound means +Inf.
type File struct {
	Name        string       `yaml:"name"`
	Sense       string       `yaml:"sense"`
	Objective   []float64    `yaml:"objective"`
	Constraints []Constraint `yaml:"constraints"`
	Bounds      []BoundSpec  `yaml:"bounds,omitempty"`
	Initial     []float64    `yaml:"initial,omitempty"`
}

// Constraint is one row of a File.
type Constraint struct {
	Coefficients []float64 `yaml:"coefficients"`
	Sense        string    `yaml:"sense"`
	RHS          float64   `yaml:"rhs"`
}

// BoundSpec is one variable bound of a File.
type BoundSpec struct {
	Lower float64  `yaml:"lower"`
	Upper *float64 `yaml:"upper,omitempty"`
}

// ReadYAML decodes one problem. Unknown keys are rejected.
func ReadYAML(r io.Reader) (*Instance, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", ErrFormat)
		}
		return nil, fmt.Errorf("decode yaml: %v: %w", err, ErrFormat)
	}
	return f.Instance()
}

// Instance validates f and builds the problem.
func (f File) Instance() (*Instance, error) {
	dir, err := model.ParseDirection(f.Sense)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(f.Constraints))
	senses := make([]model.Sense, len(f.Constraints))
	rhs := make([]float64, len(f.Constraints))
	for i, c := range f.Constraints {
		s, err := model.ParseSense(c.Sense)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		rows[i], senses[i], rhs[i] = c.Coefficients, s, c.RHS
	}

	opts := []model.Option{model.WithDirection(dir)}
	if len(f.Bounds) > 0 {
		bounds := make([]model.Bound, len(f.Bounds))
		for j, b := range f.Bounds {
			bounds[j] = model.Bound{Lower: b.Lower, Upper: math.Inf(1)}
			if b.Upper != nil {
				bounds[j].Upper = *b.Upper
			}
		}
		opts = append(opts, model.WithBounds(bounds))
	}

	p, err := model.NewProblem(f.Objective, rows, senses, rhs, opts...)
	if err != nil {
		return nil, err
	}
	return &Instance{Name: f.Name, Problem: p, Initial: f.Initial}, nil
}

// WriteYAML encodes inst in the File layout.
func WriteYAML(w io.Writer, inst *Instance) error {
	p := inst.Problem
	f := File{
		Name:      inst.Name,
		Sense:     p.Direction().String(),
		Objective: p.Objective(),
		Initial:   inst.Initial,
	}
	senses, rhs := p.Senses(), p.RHS()
	for i, row := range p.Constraints() {
		f.Constraints = append(f.Constraints, Constraint{Coefficients: row, Sense: senses[i].String(), RHS: rhs[i]})
	}
	for _, b := range p.Bounds() {
		spec := BoundSpec{Lower: b.Lower}
		if !math.IsInf(b.Upper, 1) {
			u := b.Upper
			spec.Upper = &u
		}
		f.Bounds = append(f.Bounds, spec)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
