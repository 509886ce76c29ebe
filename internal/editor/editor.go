// Package editor binds commands to a live document.
//
// An Editor owns the document, the tool registry and the undo history. It
// hands out ranges at the active selection, builds a fresh command for
// every execution, and records the commands that changed the document so
// that Undo and Redo replay them in order.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/command"
	"github.com/dshills/vellum/internal/document"
	"github.com/dshills/vellum/internal/history"
	"github.com/dshills/vellum/internal/image"
	"github.com/dshills/vellum/internal/interaction"
	"github.com/dshills/vellum/internal/tool"
)

// ErrNoDocument is returned when an editor has no live document.
var ErrNoDocument = errors.New("no live document")

// Editor is the host binding of a document.
type Editor struct {
	mu sync.RWMutex

	doc      *document.Document
	tools    *tool.Registry
	history  *history.History
	gateway  interaction.Gateway
	observer image.Observer
	image    image.Settings
	logger   *zap.Logger
	onChange func()
}

// New creates an editor for doc with the image tool registered.
func New(doc *document.Document, opts ...Option) *Editor {
	o := options{
		maxHistory: history.DefaultMaxEntries,
		image:      image.DefaultSettings(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Editor{
		doc:      doc,
		tools:    tool.NewRegistry(),
		history:  history.New(o.maxHistory),
		gateway:  o.gateway,
		observer: o.observer,
		image:    o.image,
		logger:   o.logger.Named("editor"),
		onChange: o.onChange,
	}
	_ = e.tools.Register(image.ToolName, e.imageFactory())
	return e
}

// Document returns the edited document.
func (e *Editor) Document() *document.Document {
	return e.doc
}

// History returns the undo history.
func (e *Editor) History() *history.History {
	return e.history
}

// Tools returns the tool registry.
func (e *Editor) Tools() *tool.Registry {
	return e.tools
}

// LockRange returns a range at the active selection.
func (e *Editor) LockRange() (*document.Range, error) {
	if e.doc == nil || !e.doc.IsLive() {
		return nil, ErrNoDocument
	}
	return e.doc.CaptureRange()
}

// CaptureRange implements command.RangeSource.
func (e *Editor) CaptureRange() (*document.Range, error) {
	return e.LockRange()
}

// ReleaseRange makes r the active selection again.
func (e *Editor) ReleaseRange(r *document.Range) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	return e.doc.Select(r)
}

// Register adds a tool.
func (e *Editor) Register(name string, f tool.Factory) error {
	return e.tools.Register(name, f)
}

// Execute builds the tool registered under name and runs it. Commands that
// changed the document are pushed onto the history.
func (e *Editor) Execute(ctx context.Context, name string) error {
	e.mu.RLock()
	env := tool.Env{
		Source:   e,
		Gateway:  e.gateway,
		Logger:   e.logger,
		OnChange: e.changed,
	}
	e.mu.RUnlock()

	cmd, err := e.tools.New(name, env)
	if err != nil {
		return err
	}

	err = cmd.Exec(ctx)
	if cmd.State() == command.Applied {
		e.history.Push(cmd)
	}
	if err != nil {
		return fmt.Errorf("executing %s: %w", name, err)
	}
	return nil
}

// Undo reverts the most recent command.
func (e *Editor) Undo(ctx context.Context) error {
	return e.history.Undo(ctx)
}

// Redo replays the most recently undone command.
func (e *Editor) Redo(ctx context.Context) error {
	return e.history.Redo(ctx)
}

// Localization returns the strings the image tool presents.
func (e *Editor) Localization() image.Localization {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.image.Localization
}

// ImageSettings returns the current image settings.
func (e *Editor) ImageSettings() image.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.image
}

// SetImageSettings replaces the image settings. Commands already in the
// history keep the settings they were built with.
func (e *Editor) SetImageSettings(s image.Settings) {
	e.mu.Lock()
	e.image = s
	e.mu.Unlock()
	e.logger.Debug("image settings replaced", zap.String("placeholder", s.Placeholder))
}

// SetGateway replaces the gateway used by later executions. A nil gateway
// makes commands synchronous.
func (e *Editor) SetGateway(g interaction.Gateway) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gateway = g
}

// imageFactory reads the settings at build time so that reloads apply to
// the next execution.
func (e *Editor) imageFactory() tool.Factory {
	return func(env tool.Env) tool.Command {
		return image.Factory(e.ImageSettings(), e.observer)(env)
	}
}

func (e *Editor) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}
