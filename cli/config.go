// Package cli parses lpstep configuration and drives one solve from a
// problem file to rendered output.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds command configuration. Environment variables set the
// defaults and flags override them.
type Config struct {
	Problem       string  `env:"LPSTEP_PROBLEM"`
	Initial       string  `env:"LPSTEP_INITIAL"`
	Method        string  `env:"LPSTEP_METHOD" envDefault:"affine-scaling"`
	Policy        string  `env:"LPSTEP_POLICY" envDefault:"fixed"`
	Alpha         float64 `env:"LPSTEP_ALPHA" envDefault:"0.5"`
	Safety        float64 `env:"LPSTEP_SAFETY" envDefault:"0.95"`
	MaxIterations int     `env:"LPSTEP_MAX_ITERATIONS" envDefault:"500"`
	Tolerance     float64 `env:"LPSTEP_TOLERANCE" envDefault:"1e-8"`
	BigM          float64 `env:"LPSTEP_BIG_M" envDefault:"1e5"`
	Trace         bool    `env:"LPSTEP_TRACE"`
	Precision     int     `env:"LPSTEP_PRECISION" envDefault:"4"`
	Lang          string  `env:"LPSTEP_LANG" envDefault:"en"`
	HistoryPath   string  `env:"LPSTEP_HISTORY"`
	Verbose       bool    `env:"LPSTEP_VERBOSE"`
}

// ParseConfig loads environment defaults and then parses args with fs. A
// positional argument names the problem file.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Problem, "problem", cfg.Problem, "problem file (.yaml, .yml or .mps)")
	fs.StringVar(&cfg.Initial, "initial", cfg.Initial, "comma-separated affine start point, overriding the file's")
	fs.StringVar(&cfg.Method, "method", cfg.Method, "affine-scaling or simplex")
	fs.StringVar(&cfg.Policy, "policy", cfg.Policy, "affine step policy: fixed or adaptive")
	fs.Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "fixed step fraction in (0,1)")
	fs.Float64Var(&cfg.Safety, "safety", cfg.Safety, "adaptive step safety factor in (0,1)")
	fs.IntVar(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "iteration cap")
	fs.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "relative step tolerance")
	fs.Float64Var(&cfg.BigM, "big-m", cfg.BigM, "simplex artificial variable cost")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "print every step's matrices")
	fs.IntVar(&cfg.Precision, "precision", cfg.Precision, "fraction digits in output")
	fs.StringVar(&cfg.Lang, "lang", cfg.Lang, "BCP 47 language for number formatting")
	fs.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "SQLite file recording every step")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "debug logging")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		cfg.Problem = fs.Arg(0)
	}

	if strings.TrimSpace(cfg.Problem) == "" {
		return Config{}, errors.New("problem file is required")
	}
	return cfg, nil
}

// ParsePoint parses a comma-separated list of numbers. An empty string
// yields nil.
func ParsePoint(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	x := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("initial point component %d: %w", i, err)
		}
		x[i] = v
	}
	return x, nil
}
