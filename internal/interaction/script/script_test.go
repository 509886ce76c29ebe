package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/dshills/vellum/internal/interaction"
)

var imageRequest = interaction.Request{
	Title:       "Insert image",
	ApplyLabel:  "Insert",
	CancelLabel: "Close",
	Width:       750,
	Fields: []interaction.Field{
		{Key: interaction.KeyTargetReference, Label: "Web address", Value: "http://"},
		{Key: interaction.KeyAccessibleLabel, Label: "Tooltip", Value: "old"},
	},
}

func newGateway(t *testing.T, src string) *Gateway {
	t.Helper()
	g, err := New(src, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func present(t *testing.T, g *Gateway) interaction.Outcome {
	t.Helper()
	select {
	case o := <-g.Present(context.Background(), imageRequest):
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("Present() did not deliver an outcome")
	}
	return interaction.Outcome{}
}

func TestGatewayOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		applied bool
		want    interaction.Values
	}{
		{
			name: "apply",
			src: `function present(req)
				return { targetReference = "a.png", accessibleLabel = req.title }
			end`,
			applied: true,
			want:    interaction.Values{"targetReference": "a.png", "accessibleLabel": "Insert image"},
		},
		{
			name: "edit prefilled values",
			src: `function present(req)
				local v = req.values
				v.targetReference = "b.png"
				return v
			end`,
			applied: true,
			want:    interaction.Values{"targetReference": "b.png", "accessibleLabel": "old"},
		},
		{
			name: "fields array",
			src: `function present(req)
				local out = {}
				for i, f in ipairs(req.fields) do out[f.key] = f.label .. i end
				return out
			end`,
			applied: true,
			want:    interaction.Values{"targetReference": "Web address1", "accessibleLabel": "Tooltip2"},
		},
		{name: "nil cancels", src: `function present(req) return nil end`},
		{name: "false cancels", src: `function present(req) return false end`},
		{name: "error cancels", src: `function present(req) error("boom") end`},
		{name: "wrong type cancels", src: `function present(req) return 42 end`},
		{name: "sandboxed", src: `function present(req) dofile("/etc/passwd") return {} end`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, tt.src)
			o := present(t, g)

			if o.Applied != tt.applied {
				t.Fatalf("Applied = %v, want %v", o.Applied, tt.applied)
			}
			for k, want := range tt.want {
				if got := o.Values.Get(k); got != want {
					t.Errorf("Values[%q] = %q, want %q", k, got, want)
				}
			}
			if len(o.Values) != len(tt.want) {
				t.Errorf("Values = %v, want %v", o.Values, tt.want)
			}
		})
	}
}

func TestGatewayContextCancel(t *testing.T) {
	g := newGateway(t, `function present(req) while true do end end`)

	ctx, cancel := context.WithCancel(context.Background())
	ch := g.Present(ctx, imageRequest)
	cancel()

	select {
	case o := <-ch:
		if o.Applied {
			t.Error("interrupted script should cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled context did not interrupt the script")
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(`x = 1`); !errors.Is(err, ErrNoPresent) {
		t.Errorf("New() error = %v, want ErrNoPresent", err)
	}
	if _, err := New(`function present(`); err == nil {
		t.Error("New() should fail on a syntax error")
	}
	if _, err := Load("does-not-exist.lua"); err == nil {
		t.Error("Load() should fail on a missing file")
	}
}

func TestClosedGatewayCancels(t *testing.T) {
	g := newGateway(t, `function present(req) return {} end`)
	_ = g.Close()

	if o := present(t, g); o.Applied {
		t.Error("closed gateway should cancel")
	}
}
