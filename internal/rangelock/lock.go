// Package rangelock provides a single-use capability that carries a captured
// range across a suspension and resolves it exactly once.
package rangelock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/vellum/internal/document"
)

// Outcome is the resolution state of a lock.
type Outcome uint8

const (
	// Pending means neither Apply nor Release has run.
	Pending Outcome = iota
	// Applied means a mutation ran and its range became the selection.
	Applied
	// Released means the selection captured at lock time was restored.
	Released
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Released:
		return "released"
	case resolving:
		return "resolving"
	}
	return "pending"
}

// Lock wraps a range so it can be applied or released exactly once.
type Lock struct {
	mu      sync.Mutex
	doc     *document.Document
	r       *document.Range
	before  document.Range
	outcome Outcome
}

// New locks r. It fails with document.ErrInvalidRange when r is nil, its
// document is closed, or its boundary points are no longer in the tree.
func New(r *document.Range) (*Lock, error) {
	if r == nil || r.Document() == nil {
		return nil, fmt.Errorf("lock: %w", document.ErrInvalidRange)
	}
	doc := r.Document()

	l := &Lock{doc: doc, r: r.Clone(), before: doc.Selection()}
	if err := doc.View(r.Validate); err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}
	return l, nil
}

// Range returns the locked range. It is only safe to read while the lock is
// pending.
func (l *Lock) Range() *document.Range {
	return l.r
}

// Before returns the selection that was active when the lock was taken.
func (l *Lock) Before() document.Range {
	return l.before
}

// Outcome returns how the lock was resolved.
func (l *Lock) Outcome() Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outcome
}

// Consumed reports whether Apply or Release has run.
func (l *Lock) Consumed() bool {
	return l.Outcome() != Pending
}

// Apply runs mutate against the locked range and makes the resulting range
// the active selection, both inside one document update. If mutate returns
// ErrUnchanged the lock is released instead and Apply returns nil. Any other
// mutator error consumes the lock and is returned as is.
func (l *Lock) Apply(mutate func(*document.Range) error) error {
	if err := l.consume(); err != nil {
		return err
	}

	outcome := Applied
	err := l.doc.Update(func() error {
		if err := l.r.Validate(); err != nil {
			l.restoreLocked()
			return err
		}
		if err := mutate(l.r); err != nil {
			if errors.Is(err, ErrUnchanged) {
				outcome = Released
				l.restoreLocked()
				return nil
			}
			return err
		}
		return l.r.RestoreAsActiveSelection()
	})

	l.mu.Lock()
	if err != nil {
		outcome = Released
	}
	l.outcome = outcome
	l.mu.Unlock()

	if errors.Is(err, document.ErrClosed) {
		return fmt.Errorf("%w: %v", document.ErrInvalidRange, err)
	}
	return err
}

// Release consumes the lock without mutating and restores the selection that
// was active when the lock was taken. Releasing against a closed document
// only consumes the lock.
func (l *Lock) Release() error {
	if err := l.consume(); err != nil {
		return err
	}
	defer func() {
		l.mu.Lock()
		l.outcome = Released
		l.mu.Unlock()
	}()

	err := l.doc.Update(func() error {
		l.restoreLocked()
		return nil
	})
	if errors.Is(err, document.ErrClosed) {
		return nil
	}
	return err
}

// consume moves the lock out of Pending. The final outcome is stored once the
// document update finishes.
func (l *Lock) consume() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.outcome != Pending {
		return ErrLockConsumed
	}
	l.outcome = resolving
	return nil
}

// resolving marks a lock whose Apply or Release is in progress.
const resolving Outcome = 255

// restoreLocked puts the lock-time selection back when it still addresses
// the tree. Callers must be inside Update.
func (l *Lock) restoreLocked() {
	before := l.before
	if before.Validate() == nil {
		_ = before.RestoreAsActiveSelection()
	}
}
