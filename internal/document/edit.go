package document

import (
	"golang.org/x/net/html"
)

// EditKind identifies what a mutation did to the document.
type EditKind uint8

const (
	// EditNone means the mutation left the document untouched.
	EditNone EditKind = iota
	// EditInsert means a new node was inserted.
	EditInsert
	// EditUpdate means an existing node was changed in place.
	EditUpdate
)

// String returns the kind name.
func (k EditKind) String() string {
	switch k {
	case EditInsert:
		return "insert"
	case EditUpdate:
		return "update"
	}
	return "none"
}

type changeKind uint8

const (
	changeText changeKind = iota
	changeInsert
	changeRemove
	changeAttrs
)

// change is one primitive tree change together with what is needed to
// invert it.
type change struct {
	kind   changeKind
	node   *html.Node
	parent *html.Node
	next   *html.Node
	data   string
	attrs  []attrState
}

// attrState is the value an attribute had before a change, if it was set.
type attrState struct {
	key string
	val string
	set bool
}

func (c change) invert() {
	switch c.kind {
	case changeText:
		c.node.Data = c.data
	case changeInsert:
		if c.node.Parent != nil {
			c.node.Parent.RemoveChild(c.node)
		}
	case changeRemove:
		if c.node.Parent == nil && (c.next == nil || c.next.Parent == c.parent) {
			c.parent.InsertBefore(c.node, c.next)
		}
	case changeAttrs:
		for i := len(c.attrs) - 1; i >= 0; i-- {
			a := c.attrs[i]
			if a.set {
				SetAttr(c.node, a.key, a.val)
			} else {
				RemoveAttr(c.node, a.key)
			}
		}
	}
}

// Edit is the record of one mutation: what kind of change it was, the node
// it produced or updated, and the primitive tree changes needed to undo it.
type Edit struct {
	Kind EditKind
	Node *html.Node

	doc     *Document
	before  Range
	changes []change
}

// Document returns the document the edit was recorded on.
func (e *Edit) Document() *Document {
	return e.doc
}

// Changed reports whether the edit touched the tree.
func (e *Edit) Changed() bool {
	return e != nil && len(e.changes) > 0
}

// Revert undoes the recorded changes in reverse order and restores the
// selection that was active when recording started. Reverting twice is a
// no-op. Callers must be inside Update.
func (e *Edit) Revert() error {
	if e == nil || e.doc == nil {
		return nil
	}
	for i := len(e.changes) - 1; i >= 0; i-- {
		e.changes[i].invert()
	}
	e.changes = nil

	if e.before.check() == nil {
		e.doc.sel = e.before
	}
	return nil
}

// Record runs fn and returns the tree changes it made through Range
// primitives and SetAttrs as an Edit. Recording does not nest.
// Callers must be inside Update.
func (d *Document) Record(fn func() error) (*Edit, error) {
	e := &Edit{doc: d, before: d.sel}
	d.journal = e
	defer func() { d.journal = nil }()

	err := fn()
	return e, err
}

func (d *Document) record(cs ...change) {
	if d.journal != nil {
		d.journal.changes = append(d.journal.changes, cs...)
	}
}

// SetAttrs merges the descriptor's attributes into n and records the prior
// state of each key it carries. Reverting restores only those keys, so
// attributes changed outside the journal in the meantime are kept.
// Callers must be inside Update.
func (d *Document) SetAttrs(n *html.Node, desc Descriptor) {
	prior := make([]attrState, 0, len(desc.attrs))
	for _, a := range desc.attrs {
		val, set := GetAttr(n, a.Key)
		prior = append(prior, attrState{key: a.Key, val: val, set: set})
	}
	Merge(n, desc)
	d.record(change{kind: changeAttrs, node: n, attrs: prior})
}

func (d *Document) setText(t *html.Node, data string) {
	d.record(change{kind: changeText, node: t, data: t.Data})
	t.Data = data
}

func (d *Document) insertBefore(parent, n, ref *html.Node) {
	parent.InsertBefore(n, ref)
	d.record(change{kind: changeInsert, node: n})
}

func (d *Document) removeChild(n *html.Node) {
	d.record(change{kind: changeRemove, node: n, parent: n.Parent, next: n.NextSibling})
	n.Parent.RemoveChild(n)
}

// splitText is the recorded form of the package-level splitText.
func (d *Document) splitText(t *html.Node, off int) *html.Node {
	if off <= 0 || off >= len(t.Data) {
		return splitText(t, off)
	}
	head, tail := t.Data[:off], t.Data[off:]
	next := &html.Node{Type: html.TextNode, Data: tail}
	d.setText(t, head)
	d.insertBefore(t.Parent, next, t.NextSibling)
	return next
}
