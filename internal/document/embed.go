package document

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attribute names of the embeddable node wire shape.
const (
	AttrTargetReference = "src"
	AttrAccessibleLabel = "alt"
)

// IsEmbeddable reports whether n is an embeddable node (an <img> element).
func IsEmbeddable(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == atom.Img
}

// Descriptor describes an embeddable node to insert or update.
//
// Attributes are kept in the order they were given and are either present or
// absent; an empty label is a present attribute with an empty value.
type Descriptor struct {
	attrs []html.Attribute
}

// DescriptorOption configures a Descriptor.
type DescriptorOption func(*Descriptor)

// WithLabel sets the accessible label.
func WithLabel(label string) DescriptorOption {
	return func(d *Descriptor) {
		d.set(AttrAccessibleLabel, label)
	}
}

// WithAttr sets an additional attribute.
func WithAttr(key, val string) DescriptorOption {
	return func(d *Descriptor) {
		d.set(key, val)
	}
}

// NewDescriptor creates a descriptor for the given target reference.
func NewDescriptor(target string, opts ...DescriptorOption) Descriptor {
	d := Descriptor{attrs: []html.Attribute{{Key: AttrTargetReference, Val: target}}}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d *Descriptor) set(key, val string) {
	for i := range d.attrs {
		if d.attrs[i].Key == key {
			d.attrs[i].Val = val
			return
		}
	}
	d.attrs = append(d.attrs, html.Attribute{Key: key, Val: val})
}

// TargetReference returns the target reference. The zero Descriptor has an
// empty reference.
func (d Descriptor) TargetReference() string {
	v, _ := d.Get(AttrTargetReference)
	return v
}

// AccessibleLabel returns the accessible label and whether it is present.
func (d Descriptor) AccessibleLabel() (string, bool) {
	return d.Get(AttrAccessibleLabel)
}

// Get returns the value of an attribute and whether it is present.
func (d Descriptor) Get(key string) (string, bool) {
	for _, a := range d.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of the present attributes.
func (d Descriptor) Attrs() []html.Attribute {
	return append([]html.Attribute(nil), d.attrs...)
}

// Element builds a detached embeddable element carrying the descriptor's
// attributes.
func (d Descriptor) Element() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Img,
		Data:     atom.Img.String(),
		Attr:     d.Attrs(),
	}
}

// Merge copies the descriptor's attributes onto n: present attributes
// overwrite, attributes the descriptor does not carry are left untouched.
// It returns the attribute list n had before the merge.
func Merge(n *html.Node, d Descriptor) []html.Attribute {
	prior := append([]html.Attribute(nil), n.Attr...)
	for _, a := range d.attrs {
		SetAttr(n, a.Key, a.Val)
	}
	return prior
}

// DescriptorOf returns a descriptor carrying every attribute of n.
func DescriptorOf(n *html.Node) Descriptor {
	return Descriptor{attrs: append([]html.Attribute(nil), n.Attr...)}
}

// GetAttr returns the value of the attribute key on n and whether it is set.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets the attribute key on n, appending it when missing.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the attribute key from n and reports whether it was set.
func RemoveAttr(n *html.Node, key string) bool {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}
