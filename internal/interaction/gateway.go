// Package interaction defines the contract between commands and the user
// interface surface that collects input for them.
//
// A command hands a Request to a Gateway and waits on the returned channel
// for exactly one Outcome. Gateways render the request however they like
// (a terminal form, a script, a fixed answer in tests) and must deliver an
// Outcome even when the context is cancelled.
package interaction

import (
	"context"
	"maps"

	"golang.org/x/text/unicode/norm"
)

// Keys every gateway must report on apply.
const (
	KeyTargetReference = "targetReference"
	KeyAccessibleLabel = "accessibleLabel"
)

// Values maps field keys to the strings entered by the user.
type Values map[string]string

// Get returns the value for key, or "" when it is missing.
func (v Values) Get(key string) string {
	return v[key]
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Normalized returns a copy with every value in Unicode NFC form so that
// equal text typed through different input methods compares equal.
func (v Values) Normalized() Values {
	out := make(Values, len(v))
	for k, s := range v {
		out[k] = norm.NFC.String(s)
	}
	return out
}

// Field is one input of a request.
type Field struct {
	Key   string
	Label string
	Value string
}

// Request describes what to ask the user.
type Request struct {
	Title       string
	Fields      []Field
	ApplyLabel  string
	CancelLabel string

	// Width is a layout hint in cells or pixels, depending on the surface.
	Width int
	// DialogOptions are passed through to the surface untouched.
	DialogOptions map[string]any
}

// Initial returns the prefilled field values.
func (r Request) Initial() Values {
	v := make(Values, len(r.Fields))
	for _, f := range r.Fields {
		v[f.Key] = f.Value
	}
	return v
}

// Outcome is the single answer to a presented request.
type Outcome struct {
	Applied bool
	Values  Values
}

// Apply returns an applied outcome carrying v.
func Apply(v Values) Outcome {
	return Outcome{Applied: true, Values: v}
}

// Cancel returns a cancelled outcome.
func Cancel() Outcome {
	return Outcome{}
}

// Gateway presents requests to the user.
type Gateway interface {
	// Present shows req and returns a channel that receives exactly one
	// Outcome. When ctx is cancelled before the user answers, the gateway
	// dismisses the request and delivers a cancelled Outcome. The channel
	// must be buffered so that delivery never blocks on a receiver that has
	// stopped waiting.
	Present(ctx context.Context, req Request) <-chan Outcome
}

// GatewayFunc adapts a synchronous function to Gateway. The outcome is ready
// on the channel by the time Present returns.
type GatewayFunc func(ctx context.Context, req Request) Outcome

// Present implements Gateway.
func (f GatewayFunc) Present(ctx context.Context, req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	ch <- f(ctx, req)
	close(ch)
	return ch
}

// Static returns a gateway that answers every request with o.
func Static(o Outcome) Gateway {
	return GatewayFunc(func(context.Context, Request) Outcome {
		return Outcome{Applied: o.Applied, Values: o.Values.Clone()}
	})
}

// Cancelling returns a gateway that cancels every request.
func Cancelling() Gateway {
	return Static(Cancel())
}

// Prefilled returns a gateway that applies every request with its initial
// values overlaid by v.
func Prefilled(v Values) Gateway {
	return GatewayFunc(func(_ context.Context, req Request) Outcome {
		out := req.Initial()
		maps.Copy(out, v)
		return Apply(out)
	})
}
