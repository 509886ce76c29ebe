package editor

import (
	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/image"
	"github.com/dshills/vellum/internal/interaction"
)

// Option configures an Editor.
type Option func(*options)

type options struct {
	gateway    interaction.Gateway
	observer   image.Observer
	image      image.Settings
	maxHistory int
	logger     *zap.Logger
	onChange   func()
}

// WithGateway sets the gateway commands present their requests on.
func WithGateway(g interaction.Gateway) Option {
	return func(o *options) {
		o.gateway = g
	}
}

// WithObserver sets the observer of newly inserted images.
func WithObserver(obs image.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithImageSettings sets the image settings.
func WithImageSettings(s image.Settings) Option {
	return func(o *options) {
		o.image = s
	}
}

// WithMaxHistory bounds the undo history.
func WithMaxHistory(n int) Option {
	return func(o *options) {
		o.maxHistory = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// OnChange sets the sink notified whenever a command changes the document.
func OnChange(fn func()) Option {
	return func(o *options) {
		o.onChange = fn
	}
}
