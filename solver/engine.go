package solver

import (
	"fmt"
	"log/slog"
	"math"

	"q.log/lpstep/convergence"
	"q.log/lpstep/interior"
	"q.log/lpstep/model"
	"q.log/lpstep/simplex"
)

// Engine is the stepping surface shared by every method.
type Engine interface {
	// Step advances one iteration. It returns convergence.ErrTerminated
	// once Status is terminal.
	Step() (Snapshot, error)
	// Solution returns the current point in the caller's variables.
	Solution() []float64
	// Status returns the current state.
	Status() convergence.Status
}

type config struct {
	policy interior.StepPolicy
	limits convergence.Limits
	logger *slog.Logger
	bigM   float64
}

// Option configures New.
type Option func(*config)

// WithStepPolicy sets the affine-scaling step rule. The default is
// interior.FixedStep(0.5).
func WithStepPolicy(p interior.StepPolicy) Option {
	return func(c *config) { c.policy = p }
}

// WithLimits sets the termination limits of either method.
func WithLimits(l convergence.Limits) Option {
	return func(c *config) { c.limits = l }
}

// WithLogger sets the logger handed to the engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBigM sets the simplex artificial cost.
func WithBigM(m float64) Option {
	return func(c *config) { c.bigM = m }
}

// New builds an engine of method m for p.
//
// For AffineScaling, initial may be nil (see defaultStart), a
// point over p's variables (slack values are derived from the rows) or a
// point over the standard-form variables. Simplex builds its own start
// basis and ignores initial.
func New(m Method, p *model.Problem, initial []float64, opts ...Option) (Engine, error) {
	cfg := config{
		policy: interior.FixedStep(0.5),
		limits: convergence.DefaultLimits(),
		logger: slog.New(slog.DiscardHandler),
		bigM:   simplex.DefaultBigM,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := Supports(m, p); err != nil {
		return nil, err
	}
	std, err := model.StandardForm(p)
	if err != nil {
		return nil, err
	}
	logger := cfg.logger.With(slog.String("method", string(m)))

	switch m {
	case AffineScaling:
		if initial == nil {
			initial = defaultStart(p)
		}
		x0, err := std.Lift(initial)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", interior.ErrInfeasibleStart, err)
		}
		e, err := interior.New(std.Problem(), x0, cfg.policy,
			interior.WithLimits(cfg.limits), interior.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &affineEngine{std: std, e: e}, nil

	case Simplex:
		if initial != nil {
			logger.Debug("initial point ignored")
		}
		e, err := simplex.New(std.Problem(),
			simplex.WithBigM(cfg.bigM), simplex.WithLimits(cfg.limits), simplex.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &simplexEngine{std: std, e: e}, nil
	}
	return nil, fmt.Errorf("%q: %w", m, ErrUnknownMethod)
}

type affineEngine struct {
	std *model.Standard
	e   *interior.Engine
}

func (a *affineEngine) Step() (Snapshot, error) {
	s, err := a.e.Advance()
	if err != nil {
		return Snapshot{}, err
	}
	at := s.Point
	if s.Next != nil {
		at = s.Next
	}
	return Snapshot{
		Method:    AffineScaling,
		Iteration: s.Iteration,
		Status:    s.Status,
		Point:     a.std.Restrict(at),
		Objective: a.std.Objective(at),
		Interior:  &s,
	}, nil
}

func (a *affineEngine) Solution() []float64        { return a.std.Restrict(a.e.Point()) }
func (a *affineEngine) Status() convergence.Status { return a.e.Status() }

type simplexEngine struct {
	std *model.Standard
	e   *simplex.Engine
}

func (s *simplexEngine) Step() (Snapshot, error) {
	snap, err := s.e.Advance()
	if err != nil {
		return Snapshot{}, err
	}
	at := s.e.Point()
	return Snapshot{
		Method:    Simplex,
		Iteration: snap.Iteration,
		Status:    snap.Status,
		Point:     s.std.Restrict(at),
		Objective: s.std.Objective(at),
		Simplex:   &snap,
	}, nil
}

func (s *simplexEngine) Solution() []float64        { return s.std.Restrict(s.e.Point()) }
func (s *simplexEngine) Status() convergence.Status { return s.e.Status() }

// defaultStart places each variable strictly inside its bounds: at the
// midpoint of a finite range, otherwise one above its lower bound. For the
// default bounds that is the all-ones point.
func defaultStart(p *model.Problem) []float64 {
	x := make([]float64, p.NumCols())
	for j := range x {
		bd := p.Bound(j)
		if math.IsInf(bd.Upper, 1) {
			x[j] = bd.Lower + 1
		} else {
			x[j] = (bd.Lower + bd.Upper) / 2
		}
	}
	return x
}
