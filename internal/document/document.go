package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selection marker comments recognised by Parse and written by RenderSelection.
const (
	MarkerCaret = "|"
	MarkerStart = "["
	MarkerEnd   = "]"
)

// Document is an editable HTML fragment with an active selection.
//
// Document is safe for concurrent use. Tree access goes through Update and
// View; the exported accessors that do not take a callback lock internally.
type Document struct {
	mu sync.RWMutex

	id     uuid.UUID
	root   *html.Node
	sel    Range
	closed bool

	journal *Edit
}

// New creates an empty document with a caret at its start.
func New() *Document {
	d := &Document{
		id:   uuid.New(),
		root: &html.Node{Type: html.DocumentNode},
	}
	d.sel = Range{doc: d, start: Point{Node: d.root}, end: Point{Node: d.root}}
	return d
}

// Parse reads an HTML fragment, parsed as the content of a <body>, into a new
// document. Selection markers set the initial selection and are removed from
// the tree. Without markers the caret sits at the start of the document.
func Parse(r io.Reader) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	d := New()
	for _, n := range nodes {
		d.root.AppendChild(n)
	}
	if err := d.extractMarkers(); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ID returns the identity of the document.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Update runs fn with exclusive access to the tree.
// It fails with ErrClosed once the document has been closed.
func (d *Document) Update(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return fn()
}

// View runs fn with shared access to the tree.
func (d *Document) View(fn func() error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn()
}

// Close marks the document as no longer live. Ranges captured from a closed
// document can no longer be locked or applied.
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// IsLive returns true until Close is called.
func (d *Document) IsLive() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.closed
}

// Root returns the synthetic root node. The tree below it may only be read
// inside View and changed inside Update.
func (d *Document) Root() *html.Node {
	return d.root
}

// CaptureRange returns a copy of the active selection.
func (d *Document) CaptureRange() (*Range, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, ErrClosed
	}
	r := d.sel
	return &r, nil
}

// Selection returns a copy of the active selection.
func (d *Document) Selection() Range {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sel
}

// Select makes r the active selection.
func (d *Document) Select(r *Range) error {
	if r == nil || r.doc != d {
		return ErrForeignRange
	}
	return d.Update(r.RestoreAsActiveSelection)
}

// Attached reports whether n is part of the tree.
// Callers must be inside Update or View.
func (d *Document) Attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// Embedded returns the embeddable nodes of the document in tree order.
func (d *Document) Embedded() []*html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if IsEmbeddable(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Render writes the document content as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return renderChildren(w, d.root)
}

// String returns the document content as HTML.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// RenderSelection returns the document content as HTML with the active
// selection written as marker comments.
func (d *Document) RenderSelection() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	root, mapping := cloneTree(d.root)
	start := Point{Node: mapping[d.sel.start.Node], Offset: d.sel.start.Offset}
	end := Point{Node: mapping[d.sel.end.Node], Offset: d.sel.end.Offset}

	// The end marker goes in first so the start offset stays valid.
	if d.sel.Collapsed() {
		insertMarker(start, MarkerCaret)
	} else {
		insertMarker(end, MarkerEnd)
		insertMarker(start, MarkerStart)
	}

	var buf bytes.Buffer
	_ = renderChildren(&buf, root)
	return buf.String()
}

func renderChildren(w io.Writer, root *html.Node) error {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return fmt.Errorf("rendering document: %w", err)
		}
	}
	return nil
}

// extractMarkers removes selection marker comments and sets the selection.
func (d *Document) extractMarkers() error {
	caret := findComment(d.root, MarkerCaret)
	open := findComment(d.root, MarkerStart)
	if caret != nil && open != nil {
		return fmt.Errorf("%w: both caret and extent markers present", ErrMalformedMarkers)
	}

	if caret != nil {
		p := before(caret)
		caret.Parent.RemoveChild(caret)
		d.sel = Range{doc: d, start: p, end: p}
		return nil
	}
	if open == nil {
		if findComment(d.root, MarkerEnd) != nil {
			return fmt.Errorf("%w: end marker without start marker", ErrMalformedMarkers)
		}
		return nil
	}

	start := before(open)
	open.Parent.RemoveChild(open)
	closing := findComment(d.root, MarkerEnd)
	if closing == nil {
		return fmt.Errorf("%w: start marker without end marker", ErrMalformedMarkers)
	}
	end := before(closing)
	closing.Parent.RemoveChild(closing)
	if comparePoints(start, end) > 0 {
		return fmt.Errorf("%w: end marker precedes start marker", ErrMalformedMarkers)
	}
	d.sel = Range{doc: d, start: start, end: end}
	return nil
}

func findComment(root *html.Node, data string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.CommentNode && n.Data == data {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits the descendants of root in tree order until visit returns false.
func walk(root *html.Node, visit func(*html.Node) bool) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !visit(c) || !walk(c, visit) {
			return false
		}
	}
	return true
}

// insertMarker places a marker comment at p, splitting a text container.
func insertMarker(p Point, marker string) {
	m := &html.Node{Type: html.CommentNode, Data: marker}
	if p.Node.Type == html.TextNode {
		tail := splitText(p.Node, p.Offset)
		p.Node.Parent.InsertBefore(m, tail)
		return
	}
	p.Node.InsertBefore(m, childAt(p.Node, p.Offset))
}

// splitText cuts t at off and returns the node that now begins at off, so
// content inserted before it lands at off. The result is nil when off is at
// the end of the last child.
func splitText(t *html.Node, off int) *html.Node {
	if off <= 0 {
		return t
	}
	if off >= len(t.Data) {
		return t.NextSibling
	}
	tail := &html.Node{Type: html.TextNode, Data: t.Data[off:]}
	t.Data = t.Data[:off]
	t.Parent.InsertBefore(tail, t.NextSibling)
	return tail
}

// cloneTree deep-copies root and returns the copy together with a map from
// original nodes to their copies.
func cloneTree(root *html.Node) (*html.Node, map[*html.Node]*html.Node) {
	mapping := make(map[*html.Node]*html.Node)
	var clone func(n *html.Node) *html.Node
	clone = func(n *html.Node) *html.Node {
		c := &html.Node{
			Type:      n.Type,
			DataAtom:  n.DataAtom,
			Data:      n.Data,
			Namespace: n.Namespace,
			Attr:      append([]html.Attribute(nil), n.Attr...),
		}
		mapping[n] = c
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.AppendChild(clone(child))
		}
		return c
	}
	return clone(root), mapping
}
