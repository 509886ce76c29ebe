package document

import (
	"fmt"

	"golang.org/x/net/html"
)

// Range is a pair of boundary points inside one document.
// Start never follows End in tree order.
//
// Range values are owned by whoever captured them; methods that read or
// change the tree must run inside Document.Update or Document.View.
type Range struct {
	doc   *Document
	start Point
	end   Point
}

// NewRange creates a range over doc. It fails with ErrInvalidRange when the
// points are not attached to doc or are out of order.
// Callers must be inside Update or View.
func NewRange(doc *Document, start, end Point) (*Range, error) {
	r := &Range{doc: doc, start: start, end: end}
	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

// Document returns the document the range was captured from.
func (r *Range) Document() *Document {
	return r.doc
}

// Start returns the start boundary point.
func (r *Range) Start() Point {
	return r.start
}

// End returns the end boundary point.
func (r *Range) End() Point {
	return r.end
}

// Collapsed returns true if start and end are the same point.
func (r *Range) Collapsed() bool {
	return r.start == r.end
}

// Clone returns an independent copy of the range.
func (r *Range) Clone() *Range {
	c := *r
	return &c
}

// String returns a human-readable representation of the range.
func (r *Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.start, r.end)
}

// Validate reports whether the range is still bound to a live document and
// both boundary points exist in it. Callers must be inside Update or View.
func (r *Range) Validate() error {
	if r == nil || r.doc == nil {
		return fmt.Errorf("%w: range has no document", ErrInvalidRange)
	}
	if r.doc.closed {
		return fmt.Errorf("%w: %v", ErrInvalidRange, ErrClosed)
	}
	return r.check()
}

func (r *Range) check() error {
	for _, p := range []Point{r.start, r.end} {
		if p.Node == nil || !r.doc.Attached(p.Node) {
			return fmt.Errorf("%w: boundary %s is detached", ErrInvalidRange, p)
		}
		if p.Offset < 0 || p.Offset > nodeLength(p.Node) {
			return fmt.Errorf("%w: boundary %s is out of bounds", ErrInvalidRange, p)
		}
	}
	if comparePoints(r.start, r.end) > 0 {
		return fmt.Errorf("%w: start %s follows end %s", ErrInvalidRange, r.start, r.end)
	}
	return nil
}

// BoundEmbeddable returns the embeddable node the range wraps exactly, or nil.
// Ranges over several nodes, over a non-embeddable node, or collapsed ranges
// yield nil. Callers must be inside Update or View.
func (r *Range) BoundEmbeddable() *html.Node {
	return r.BoundNode(IsEmbeddable)
}

// BoundNode returns the single node the range wraps exactly if match accepts
// it, or nil. Callers must be inside Update or View.
func (r *Range) BoundNode(match func(*html.Node) bool) *html.Node {
	if r.Validate() != nil {
		return nil
	}
	s, e := normalize(r.start), normalize(r.end)
	if s.Node != e.Node || s.Node.Type == html.TextNode || e.Offset != s.Offset+1 {
		return nil
	}
	n := childAt(s.Node, s.Offset)
	if n == nil || !match(n) {
		return nil
	}
	return n
}

// CollapseAndClear deletes the selected content and collapses the range at
// the deletion point. Partially selected text is trimmed; partially selected
// elements keep their unselected content. Callers must be inside Update.
func (r *Range) CollapseAndClear() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Collapsed() {
		return nil
	}

	if r.start.Node == r.end.Node && r.start.Node.Type == html.TextNode {
		t := r.start.Node
		r.doc.setText(t, t.Data[:r.start.Offset]+t.Data[r.end.Offset:])
		r.end = r.start
		return nil
	}

	// Move both boundaries out of text nodes so that whole nodes can be
	// removed. The end goes first: splitting it only adds nodes after start.
	end := r.end
	if t := end.Node; t.Type == html.TextNode {
		switch {
		case end.Offset <= 0:
			end = before(t)
		case end.Offset >= len(t.Data):
			end = after(t)
		default:
			end = before(r.doc.splitText(t, end.Offset))
		}
	}
	start := r.start
	if t := start.Node; t.Type == html.TextNode {
		switch {
		case start.Offset <= 0:
			start = before(t)
		case start.Offset >= len(t.Data):
			start = after(t)
		default:
			start = before(r.doc.splitText(t, start.Offset))
			// The split added a sibling in front of an end in the same parent.
			if end.Node == t.Parent && end.Offset >= start.Offset {
				end.Offset++
			}
		}
	}

	var doomed []*html.Node
	walk(r.doc.root, func(n *html.Node) bool {
		if comparePoints(before(n), start) >= 0 && comparePoints(after(n), end) <= 0 {
			doomed = append(doomed, n)
		}
		return true
	})
	for _, n := range doomed {
		// Descendants of an already removed node are skipped.
		if n.Parent != nil && r.doc.Attached(n) {
			r.doc.removeChild(n)
		}
	}

	r.start, r.end = start, start
	return nil
}

// InsertNode inserts n at the start of the range, splitting a text container
// when needed. Afterwards the range brackets n. Callers must be inside Update.
func (r *Range) InsertNode(n *html.Node) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("insert: %w", ErrDetached)
	}
	if n.Parent != nil || n.PrevSibling != nil || n.NextSibling != nil {
		return ErrNodeInUse
	}

	p := r.start
	if p.Node.Type == html.TextNode {
		parent := p.Node.Parent
		r.doc.insertBefore(parent, n, r.doc.splitText(p.Node, p.Offset))
	} else {
		r.doc.insertBefore(p.Node, n, childAt(p.Node, p.Offset))
	}

	r.start, r.end = before(n), after(n)
	return nil
}

// CollapseAfter moves both boundaries immediately after n.
// Callers must be inside Update or View.
func (r *Range) CollapseAfter(n *html.Node) error {
	if n == nil || n.Parent == nil || !r.doc.Attached(n) {
		return ErrDetached
	}
	p := after(n)
	r.start, r.end = p, p
	return nil
}

// SelectNode makes the range wrap n exactly. Callers must be inside Update or View.
func (r *Range) SelectNode(n *html.Node) error {
	if n == nil || n.Parent == nil || !r.doc.Attached(n) {
		return ErrDetached
	}
	r.start, r.end = before(n), after(n)
	return nil
}

// RestoreAsActiveSelection makes the range the document's active selection.
// Callers must be inside Update.
func (r *Range) RestoreAsActiveSelection() error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.doc.sel = Range{doc: r.doc, start: r.start, end: r.end}
	return nil
}
