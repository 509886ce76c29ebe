package resource

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/vellum/internal/document"
)

// DefaultTimeout bounds a single resolution.
const DefaultTimeout = 10 * time.Second

// Settled describes how an observed resource settled.
type Settled struct {
	Node   *html.Node
	Result Result
	Err    error
	// Cleared is false when the node had left the document by the time the
	// resource settled.
	Cleared bool
}

// Observer resolves the target reference of each observed node in its own
// goroutine and removes the node's transient attributes once the resource
// loads or fails. Nodes removed from the document in the meantime are left
// alone.
type Observer struct {
	resolver *Resolver
	logger   *zap.Logger
	timeout  time.Duration
	onSettle func(Settled)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ObserverOption {
	return func(o *Observer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTimeout bounds each resolution.
func WithTimeout(d time.Duration) ObserverOption {
	return func(o *Observer) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// OnSettle registers a callback run after each resource settles.
func OnSettle(fn func(Settled)) ObserverOption {
	return func(o *Observer) {
		o.onSettle = fn
	}
}

// NewObserver creates an observer backed by resolver.
func NewObserver(resolver *Resolver, opts ...ObserverOption) *Observer {
	o := &Observer{
		resolver: resolver,
		logger:   zap.NewNop(),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("resource")
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o
}

// Observe starts watching n. It reads the target reference immediately, so
// callers must hold the document lock, and returns without waiting.
func (o *Observer) Observe(doc *document.Document, n *html.Node, transient []string) {
	ref, _ := document.GetAttr(n, document.AttrTargetReference)
	keys := append([]string(nil), transient...)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.settle(doc, n, ref, keys)
	}()
}

func (o *Observer) settle(doc *document.Document, n *html.Node, ref string, keys []string) {
	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	res, err := o.resolver.Resolve(ctx, ref)
	if err != nil {
		o.logger.Debug("resource failed", zap.String("ref", ref), zap.Error(err))
	} else {
		o.logger.Debug("resource loaded", zap.String("ref", ref), zap.String("mime", res.MIME))
	}

	cleared := false
	_ = doc.Update(func() error {
		if !doc.Attached(n) {
			return nil
		}
		for _, k := range keys {
			document.RemoveAttr(n, k)
		}
		cleared = true
		return nil
	})
	if !cleared {
		o.logger.Debug("node left the document before its resource settled", zap.String("ref", ref))
	}

	if o.onSettle != nil {
		o.onSettle(Settled{Node: n, Result: res, Err: err, Cleared: cleared})
	}
}

// Wait blocks until every observed resource has settled.
func (o *Observer) Wait() {
	o.wg.Wait()
}

// Close abandons pending resolutions and waits for their goroutines. Nodes
// whose resolution is abandoned are treated as failed.
func (o *Observer) Close() {
	o.cancel()
	o.wg.Wait()
}
