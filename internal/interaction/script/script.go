// Package script implements an interaction gateway backed by a Lua script.
//
// The script defines a global function present(request). The request table
// carries title, apply, cancel, width, a fields array of {key, label, value}
// tables and a values table keyed by field key. Returning a table applies the
// request with its string entries as values; returning nil or false cancels.
//
// Scripts run in a reduced environment: the base, table, string and math
// libraries only, without file loading.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/interaction"
)

// PresentFunc is the global the script must define.
const PresentFunc = "present"

// Errors returned by the script gateway.
var (
	ErrClosed    = errors.New("script gateway is closed")
	ErrNoPresent = errors.New("script does not define " + PresentFunc)
)

// Gateway presents requests to a Lua script. One script call runs at a time.
type Gateway struct {
	mu     sync.Mutex
	L      *lua.LState
	logger *zap.Logger
	closed bool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. Scripts log through it with log(message).
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New loads source and checks that it defines present.
func New(source string, opts ...Option) (*Gateway, error) {
	g := &Gateway{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("script")

	g.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(g.L)
	g.L.SetGlobal("log", g.L.NewFunction(g.luaLog))

	if err := g.do(func() error { return g.L.DoString(source) }); err != nil {
		g.L.Close()
		return nil, fmt.Errorf("loading script: %w", err)
	}
	if fn := g.L.GetGlobal(PresentFunc); fn.Type() != lua.LTFunction {
		g.L.Close()
		return nil, ErrNoPresent
	}
	return g, nil
}

// Load reads the script at path.
func Load(path string, opts ...Option) (*Gateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := New(string(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Present implements interaction.Gateway. The script runs on its own
// goroutine; a cancelled ctx interrupts it and yields a cancel outcome.
func (g *Gateway) Present(ctx context.Context, req interaction.Request) <-chan interaction.Outcome {
	ch := make(chan interaction.Outcome, 1)
	go func() {
		defer close(ch)
		o, err := g.call(ctx, req)
		if err != nil {
			g.logger.Warn("script failed, cancelling", zap.String("title", req.Title), zap.Error(err))
			o = interaction.Cancel()
		}
		ch <- o
	}()
	return ch
}

// Close releases the Lua state.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		g.L.Close()
		g.closed = true
	}
	return nil
}

func (g *Gateway) call(ctx context.Context, req interaction.Request) (interaction.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return interaction.Outcome{}, ErrClosed
	}

	g.L.SetContext(ctx)
	defer g.L.RemoveContext()

	top := g.L.GetTop()
	defer g.L.SetTop(top)

	err := g.do(func() error {
		return g.L.CallByParam(lua.P{
			Fn:      g.L.GetGlobal(PresentFunc),
			NRet:    1,
			Protect: true,
		}, requestTable(g.L, req))
	})
	if err != nil {
		return interaction.Outcome{}, err
	}

	switch ret := g.L.Get(-1).(type) {
	case *lua.LTable:
		return interaction.Apply(valuesOf(ret)), nil
	default:
		if lua.LVAsBool(ret) {
			return interaction.Outcome{}, fmt.Errorf("%s returned %s, want table or nil", PresentFunc, ret.Type())
		}
		return interaction.Cancel(), nil
	}
}

// do runs fn, turning Lua panics into errors.
func (g *Gateway) do(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (g *Gateway) luaLog(L *lua.LState) int {
	g.logger.Info(L.CheckString(1))
	return 0
}

func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func requestTable(L *lua.LState, req interaction.Request) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("title", lua.LString(req.Title))
	t.RawSetString("apply", lua.LString(req.ApplyLabel))
	t.RawSetString("cancel", lua.LString(req.CancelLabel))
	t.RawSetString("width", lua.LNumber(req.Width))

	fields := L.NewTable()
	values := L.NewTable()
	for _, f := range req.Fields {
		ft := L.NewTable()
		ft.RawSetString("key", lua.LString(f.Key))
		ft.RawSetString("label", lua.LString(f.Label))
		ft.RawSetString("value", lua.LString(f.Value))
		fields.Append(ft)
		values.RawSetString(f.Key, lua.LString(f.Value))
	}
	t.RawSetString("fields", fields)
	t.RawSetString("values", values)
	return t
}

// valuesOf keeps the string-keyed scalar entries of t.
func valuesOf(t *lua.LTable) interaction.Values {
	v := interaction.Values{}
	t.ForEach(func(k, val lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch val.Type() {
		case lua.LTString, lua.LTNumber, lua.LTBool:
			v[string(key)] = val.String()
		}
	})
	return v
}
