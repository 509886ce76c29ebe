// Package command implements the execution contract of editor commands.
//
// A Command captures the active selection, locks it, optionally waits for
// user input through an interaction.Gateway, and then applies a Mutation to
// the locked range. Exactly one of apply or release runs for every lock a
// command takes, and the OnChange sink fires only after an apply that
// changed the document.
//
// The mutation policy is supplied by a Mutation, so the same lifecycle
// serves every command that inserts or updates a node at the selection.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/document"
	"github.com/dshills/vellum/internal/interaction"
	"github.com/dshills/vellum/internal/rangelock"
)

// Mutation is the document policy a command applies.
type Mutation[P any] interface {
	// Prompt builds the request shown to the user, prefilled from the range.
	// It runs inside Document.View.
	Prompt(r *document.Range) interaction.Request

	// Decode turns reported values into a payload.
	Decode(v interaction.Values) (P, error)

	// Valid reports whether p may be applied. Invalid payloads release the
	// lock without touching the document.
	Valid(p P) bool

	// Mutate applies p to r inside Document.Update. replay is true when the
	// call comes from Redo. Returning rangelock.ErrUnchanged releases the
	// lock instead of applying it.
	Mutate(r *document.Range, p P, replay bool) (*document.Edit, error)
}

// RangeSource hands out ranges at the active selection.
type RangeSource interface {
	CaptureRange() (*document.Range, error)
}

// Command runs a Mutation against the selection of a document.
type Command[P any] struct {
	name string
	src  RangeSource
	m    Mutation[P]
	settings

	mu      sync.Mutex
	state   State
	busy    bool
	pending *P
	last    *document.Edit
}

// New creates a command named name that applies m at the selections
// handed out by src.
func New[P any](name string, src RangeSource, m Mutation[P], opts ...Option) *Command[P] {
	c := &Command[P]{
		name: name,
		src:  src,
		m:    m,
		settings: settings{
			logger:      zap.NewNop(),
			description: name,
		},
	}
	for _, opt := range opts {
		opt(&c.settings)
	}
	c.logger = c.logger.Named("command").With(zap.String("command", name))
	return c
}

// Name returns the command name.
func (c *Command[P]) Name() string {
	return c.name
}

// Description returns a human-readable description.
func (c *Command[P]) Description() string {
	return c.description
}

// Async reports whether Exec waits for user input.
func (c *Command[P]) Async() bool {
	return c.gateway != nil
}

// State returns the current lifecycle state.
func (c *Command[P]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the payload captured by the last interaction, if any.
func (c *Command[P]) Pending() (P, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		var zero P
		return zero, false
	}
	return *c.pending, true
}

// Exec runs the command for the first time.
//
// Synchronous commands mutate immediately. Asynchronous commands present
// their request and wait for the outcome; a cancelled outcome or a cancelled
// ctx releases the lock without mutating. Cancellation by the user returns
// nil, cancellation of ctx returns ctx.Err().
func (c *Command[P]) Exec(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.enter(Executing); err != nil {
		return err
	}
	defer c.exit()

	lock, err := c.lock()
	if err != nil {
		return err
	}
	doc := lock.Range().Document()

	var req interaction.Request
	_ = doc.View(func() error {
		req = c.m.Prompt(lock.Range())
		return nil
	})

	if c.gateway == nil {
		p, err := c.syncPayload(req)
		if err != nil {
			return c.abort(lock, err)
		}
		c.setPending(p)
		return c.mutate(lock, p, false)
	}

	c.setState(AwaitingInput)
	c.logger.Debug("awaiting input", zap.String("title", req.Title))

	select {
	case o := <-c.gateway.Present(ctx, req):
		if !o.Applied {
			if err := ctx.Err(); err != nil {
				return c.abort(lock, err)
			}
			c.logger.Debug("interaction cancelled")
			return c.release(lock)
		}
		p, err := c.m.Decode(o.Values.Normalized())
		if err != nil {
			return c.abort(lock, fmt.Errorf("decoding values: %w", err))
		}
		c.setPending(p)
		return c.mutate(lock, p, false)

	case <-ctx.Done():
		c.logger.Debug("context done while awaiting input", zap.Error(ctx.Err()))
		return c.abort(lock, ctx.Err())
	}
}

// Redo replays the last payload at the current selection without presenting
// the interaction. Without a payload, or with one that is no longer valid,
// the lock is released and nothing changes.
func (c *Command[P]) Redo(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.enter(Mutating); err != nil {
		return err
	}
	defer c.exit()

	lock, err := c.lock()
	if err != nil {
		return err
	}

	p, ok := c.Pending()
	if !ok {
		c.logger.Debug("redo without payload")
		return c.release(lock)
	}
	return c.mutate(lock, p, true)
}

// Undo reverts the last mutation and restores the selection that was active
// before it, then notifies OnChange. Undo without a mutation to revert is a
// no-op.
func (c *Command[P]) Undo(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.enter(Executing); err != nil {
		return err
	}

	c.mu.Lock()
	edit := c.last
	c.mu.Unlock()

	defer func() {
		c.setState(Idle)
		c.exit()
	}()

	if !edit.Changed() {
		return nil
	}
	if err := edit.Document().Update(edit.Revert); err != nil {
		return fmt.Errorf("%s: undo: %w", c.name, err)
	}
	c.mu.Lock()
	if c.last == edit {
		c.last = nil
	}
	c.mu.Unlock()
	c.logger.Debug("undone", zap.Stringer("kind", edit.Kind))
	c.notify()
	return nil
}

// lock captures a range at the selection and locks it.
func (c *Command[P]) lock() (*rangelock.Lock, error) {
	r, err := c.src.CaptureRange()
	if err != nil {
		c.setState(Released)
		return nil, fmt.Errorf("%s: %w: %v", c.name, document.ErrInvalidRange, err)
	}
	lock, err := rangelock.New(r)
	if err != nil {
		c.setState(Released)
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	return lock, nil
}

// mutate applies p through lock, or releases it when p is invalid.
func (c *Command[P]) mutate(lock *rangelock.Lock, p P, replay bool) error {
	c.setState(Mutating)

	if !c.m.Valid(p) {
		c.logger.Debug("payload rejected", zap.Bool("replay", replay))
		return c.release(lock)
	}

	var edit *document.Edit
	err := lock.Apply(func(r *document.Range) error {
		var err error
		edit, err = c.m.Mutate(r, p, replay)
		if err != nil && !errors.Is(err, rangelock.ErrUnchanged) && edit != nil {
			_ = edit.Revert()
		}
		return err
	})
	if err != nil {
		c.setState(Released)
		return c.defect(err)
	}
	if lock.Outcome() != rangelock.Applied {
		c.setState(Released)
		c.logger.Debug("mutation left document unchanged", zap.Bool("replay", replay))
		return nil
	}

	if edit == nil {
		edit = &document.Edit{}
	}
	c.mu.Lock()
	c.state = Applied
	c.last = edit
	c.mu.Unlock()

	c.logger.Debug("applied",
		zap.Stringer("kind", edit.Kind),
		zap.Bool("replay", replay),
	)
	if edit.Changed() {
		c.notify()
	}
	return nil
}

// release resolves lock without mutating.
func (c *Command[P]) release(lock *rangelock.Lock) error {
	c.setState(Released)
	if err := lock.Release(); err != nil {
		return c.defect(err)
	}
	return nil
}

// abort releases lock and returns cause.
func (c *Command[P]) abort(lock *rangelock.Lock, cause error) error {
	return multierr.Append(cause, c.release(lock))
}

// defect logs lifecycle bugs loudly and wraps err with the command name.
func (c *Command[P]) defect(err error) error {
	if errors.Is(err, rangelock.ErrLockConsumed) {
		c.logger.DPanic("range lock resolved twice", zap.Error(err))
	}
	return fmt.Errorf("%s: %w", c.name, err)
}

func (c *Command[P]) syncPayload(req interaction.Request) (P, error) {
	if p, ok := c.preset.(P); ok {
		return p, nil
	}
	p, err := c.m.Decode(req.Initial())
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrNoPayload, err)
	}
	return p, nil
}

func (c *Command[P]) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Command[P]) enter(s State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return ErrBusy
	}
	c.busy = true
	c.state = s
	return nil
}

func (c *Command[P]) exit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
}

func (c *Command[P]) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Command[P]) setPending(p P) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &p
}
