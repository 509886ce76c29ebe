// Package term implements an interaction gateway that presents requests as
// a form on the terminal. Enter applies, Esc cancels, Tab moves between
// fields.
package term

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/interaction"
)

// ScreenFunc creates the screen a form is drawn on.
type ScreenFunc func() (tcell.Screen, error)

// Gateway presents one form at a time on a fresh screen.
type Gateway struct {
	mu        sync.Mutex
	newScreen ScreenFunc
	onShow    func(tcell.Screen)
	logger    *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithScreen sets the screen factory. The default opens the terminal.
func WithScreen(fn ScreenFunc) Option {
	return func(g *Gateway) {
		g.newScreen = fn
	}
}

// OnShow registers a callback run after every redraw of the form.
func OnShow(fn func(tcell.Screen)) Option {
	return func(g *Gateway) {
		g.onShow = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a terminal gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		newScreen: tcell.NewScreen,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("term")
	return g
}

// Present implements interaction.Gateway. A screen that cannot be opened
// cancels the request.
func (g *Gateway) Present(ctx context.Context, req interaction.Request) <-chan interaction.Outcome {
	ch := make(chan interaction.Outcome, 1)
	go func() {
		defer close(ch)
		o, err := g.run(ctx, req)
		if err != nil {
			g.logger.Warn("terminal form failed, cancelling", zap.Error(err))
			o = interaction.Cancel()
		}
		ch <- o
	}()
	return ch
}

func (g *Gateway) run(ctx context.Context, req interaction.Request) (interaction.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	screen, err := g.newScreen()
	if err != nil {
		return interaction.Outcome{}, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return interaction.Outcome{}, fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	// Wake the event loop when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	f := newForm(req)
	for {
		if ctx.Err() != nil {
			g.logger.Debug("context done, cancelling form", zap.String("title", req.Title))
			return interaction.Cancel(), nil
		}

		f.draw(screen)
		if g.onShow != nil {
			g.onShow(screen)
		}

		switch ev := screen.PollEvent().(type) {
		case nil:
			return interaction.Cancel(), nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if o, done := f.handle(ev); done {
				g.logger.Debug("form closed", zap.Bool("applied", o.Applied))
				return o, nil
			}
		}
	}
}
