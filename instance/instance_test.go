package instance_test

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"q.log/lpstep/instance"
	"q.log/lpstep/model"
)

func TestLoadFileYAML(t *testing.T) {
	inst, err := instance.LoadFile(filepath.Join("testdata", "wyndor.yaml"))
	require.NoError(t, err)

	p := inst.Problem
	assert.Equal(t, "wyndor", inst.Name)
	assert.Equal(t, model.Maximize, p.Direction())
	assert.Equal(t, []float64{3, 5}, p.Objective())
	assert.Equal(t, [][]float64{{1, 0}, {0, 2}, {3, 2}}, p.Constraints())
	assert.Equal(t, []float64{4, 12, 18}, p.RHS())
	assert.Equal(t, []model.Sense{model.LessEqual, model.LessEqual, model.LessEqual}, p.Senses())
	assert.Nil(t, p.Bounds())
	assert.Equal(t, []float64{1, 1}, inst.Initial)
}

func TestLoadFileBoundsAndDefaultName(t *testing.T) {
	inst, err := instance.LoadFile(filepath.Join("testdata", "bounded.yml"))
	require.NoError(t, err)

	assert.Equal(t, "bounded", inst.Name)
	assert.Equal(t, []model.Bound{{Lower: 0, Upper: 3}, {Lower: 1, Upper: 4}}, inst.Problem.Bounds())
	assert.Nil(t, inst.Initial)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := instance.LoadFile(filepath.Join("testdata", "problem.txt"))
	assert.ErrorIs(t, err, instance.ErrFormat)

	_, err = instance.LoadFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestReadYAMLRejects(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"empty": {
			doc:  "",
			want: instance.ErrFormat,
		},
		"unknown key": {
			doc:  "objective: [1]\nconstraints: [{coefficients: [1], sense: '=', rhs: 1}]\ncolour: red\n",
			want: instance.ErrFormat,
		},
		"bad sense": {
			doc:  "objective: [1]\nconstraints: [{coefficients: [1], sense: '<>', rhs: 1}]\n",
			want: model.ErrMalformedProblem,
		},
		"bad direction": {
			doc:  "sense: sideways\nobjective: [1]\nconstraints: [{coefficients: [1], sense: '=', rhs: 1}]\n",
			want: model.ErrMalformedProblem,
		},
		"ragged row": {
			doc:  "objective: [1, 2]\nconstraints: [{coefficients: [1], sense: '=', rhs: 1}]\n",
			want: model.ErrMalformedProblem,
		},
		"negative lower bound": {
			doc:  "objective: [1]\nconstraints: [{coefficients: [1], sense: '<=', rhs: 1}]\nbounds: [{lower: -1}]\n",
			want: model.ErrMalformedProblem,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := instance.ReadYAML(strings.NewReader(tc.doc))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	p, err := model.NewProblem(
		[]float64{1, -2.5},
		[][]float64{{1, 1}, {2, -1}},
		[]model.Sense{model.GreaterEqual, model.Equal},
		[]float64{1, 0.5},
		model.WithDirection(model.Maximize),
		model.WithBounds([]model.Bound{{Lower: 0, Upper: 7}, model.NonNegative}),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, instance.WriteYAML(&buf, &instance.Instance{Name: "mixed", Problem: p, Initial: []float64{2, 3}}))

	got, err := instance.ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, "mixed", got.Name)
	assert.Equal(t, p.Objective(), got.Problem.Objective())
	assert.Equal(t, p.Constraints(), got.Problem.Constraints())
	assert.Equal(t, p.Senses(), got.Problem.Senses())
	assert.Equal(t, p.RHS(), got.Problem.RHS())
	assert.Equal(t, model.Maximize, got.Problem.Direction())
	assert.True(t, math.IsInf(got.Problem.Bound(1).Upper, 1))
	assert.Equal(t, 7.0, got.Problem.Bound(0).Upper)
	assert.Equal(t, []float64{2, 3}, got.Initial)
}
