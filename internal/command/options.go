package command

import (
	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/interaction"
)

// Option configures a Command during creation.
type Option func(*settings)

type settings struct {
	gateway     interaction.Gateway
	onChange    func()
	logger      *zap.Logger
	preset      any
	description string
}

// Async makes the command present its request on g and wait for the answer
// before mutating.
func Async(g interaction.Gateway) Option {
	return func(s *settings) {
		s.gateway = g
	}
}

// OnChange sets the sink notified after each call that mutated the document.
func OnChange(fn func()) Option {
	return func(s *settings) {
		s.onChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDescription sets the human-readable description used by history.
func WithDescription(d string) Option {
	return func(s *settings) {
		s.description = d
	}
}

// Preset sets the payload a synchronous command applies. Without a preset,
// synchronous commands decode the prefilled values of their prompt.
func Preset[P any](p P) Option {
	return func(s *settings) {
		s.preset = p
	}
}
