package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"q.log/lpstep/convergence"
	"q.log/lpstep/history"
	"q.log/lpstep/instance"
	"q.log/lpstep/interior"
	"q.log/lpstep/render"
	"q.log/lpstep/solver"
)

// ParsePolicy builds the affine step policy named by kind.
func ParsePolicy(kind string, alpha, safety float64) (interior.StepPolicy, error) {
	var p interior.StepPolicy
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "fixed":
		p = interior.FixedStep(alpha)
	case "adaptive":
		p = interior.AdaptiveStep(safety)
	default:
		return p, fmt.Errorf("policy %q: %w", kind, interior.ErrBadPolicy)
	}
	return p, p.Validate()
}

// Run solves the configured problem, writing results to out and logs to
// errOut. A failure to close the history store is joined into the
// returned error.
func Run(ctx context.Context, cfg Config, out, errOut io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	inst, err := instance.LoadFile(cfg.Problem)
	if err != nil {
		return err
	}
	if cfg.Initial != "" {
		if inst.Initial, err = ParsePoint(cfg.Initial); err != nil {
			return err
		}
	}
	method, err := solver.ParseMethod(cfg.Method)
	if err != nil {
		return err
	}
	policy, err := ParsePolicy(cfg.Policy, cfg.Alpha, cfg.Safety)
	if err != nil {
		return err
	}
	limits := convergence.DefaultLimits()
	limits.MaxIterations = cfg.MaxIterations
	limits.Tolerance = cfg.Tolerance
	if err := limits.Validate(); err != nil {
		return err
	}
	tag, err := render.ParseLanguage(cfg.Lang)
	if err != nil {
		return err
	}

	e, err := solver.New(method, inst.Problem, inst.Initial,
		solver.WithStepPolicy(policy),
		solver.WithLimits(limits),
		solver.WithBigM(cfg.BigM),
		solver.WithLogger(logger))
	if err != nil {
		return err
	}

	var (
		store   *history.Store
		session history.Session
	)
	if cfg.HistoryPath != "" {
		if store, err = history.Open(ctx, cfg.HistoryPath); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, store.Close())
		}()
		policyName := ""
		if method == solver.AffineScaling {
			policyName = policy.String()
		}
		if session, err = store.CreateSession(ctx, inst.Name, method, policyName); err != nil {
			return err
		}
		logger.Info("recording history", slog.Int64("session", session.ID), slog.String("path", cfg.HistoryPath))
	}

	r := render.New(out, tag, cfg.Precision)
	for !e.Status().Terminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := e.Step()
		if err != nil {
			return err
		}
		if cfg.Trace {
			if err := r.Snapshot(snap); err != nil {
				return err
			}
		}
		if store != nil {
			if err := store.Append(ctx, session.ID, history.StepOf(snap)); err != nil {
				return err
			}
		}
	}

	x := e.Solution()
	objective, err := inst.Problem.Value(x)
	if err != nil {
		return err
	}
	logger.Debug("solve finished",
		slog.String("problem", inst.Name),
		slog.String("method", string(method)),
		slog.String("status", e.Status().String()))
	return r.Result(e.Status(), x, objective)
}
