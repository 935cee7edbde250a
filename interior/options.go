package interior

import (
	"log/slog"

	"q.log/lpstep/convergence"
)

type options struct {
	limits convergence.Limits
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithLimits replaces convergence.DefaultLimits.
func WithLimits(l convergence.Limits) Option {
	return func(o *options) { o.limits = l }
}

// WithLogger sets the step logger. Steps are logged at Debug, terminal
// transitions at Info.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultOptions() options {
	return options{
		limits: convergence.DefaultLimits(),
		logger: slog.New(slog.DiscardHandler),
	}
}
