// Package tool maps tool names to command factories.
package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/command"
	"github.com/dshills/vellum/internal/interaction"
)

// Errors returned by the registry.
var (
	ErrUnknownTool       = errors.New("unknown tool")
	ErrAlreadyRegistered = errors.New("tool already registered")
)

// Command is what a factory produces.
type Command interface {
	Exec(ctx context.Context) error
	Redo(ctx context.Context) error
	Undo(ctx context.Context) error
	Name() string
	Description() string
	State() command.State
}

// Env is what a factory gets to build a command.
type Env struct {
	Source   command.RangeSource
	Gateway  interaction.Gateway
	Logger   *zap.Logger
	OnChange func()
}

// Options returns the command options carried by the environment.
func (e Env) Options() []command.Option {
	opts := []command.Option{command.WithLogger(e.Logger)}
	if e.Gateway != nil {
		opts = append(opts, command.Async(e.Gateway))
	}
	if e.OnChange != nil {
		opts = append(opts, command.OnChange(e.OnChange))
	}
	return opts
}

// Factory creates a fresh command for one execution.
type Factory func(env Env) Command

// Registry manages factory registration by tool name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.factories[name] = f
	return nil
}

// Unregister removes the factory registered under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Get returns the factory registered under name, or nil.
func (r *Registry) Get(name string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.factories[name]
}

// Has returns true if a factory is registered under name.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// New builds a command from the factory registered under name.
func (r *Registry) New(name string, env Env) (Command, error) {
	f := r.Get(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	return f(env), nil
}

// List returns all registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Clear removes all registered factories.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
}
