// Package image implements the insert-or-update policy for embedded images.
//
// A Policy decides, for one command, whether a payload creates a new <img>
// at the range or merges into the image the range already wraps. Payloads
// whose target reference is empty or the placeholder never touch the
// document.
package image

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/vellum/internal/document"
	"github.com/dshills/vellum/internal/interaction"
	"github.com/dshills/vellum/internal/rangelock"
)

// Observer watches the resource of a newly inserted node and removes the
// transient attributes once it settles. Observe is called inside
// Document.Update, so it must return without waiting on the document.
type Observer interface {
	Observe(doc *document.Document, n *html.Node, transient []string)
}

// Policy is the image mutation of one command. It remembers the node it
// last produced so that replays never update an unrelated image.
type Policy struct {
	settings Settings
	observer Observer

	target *html.Node
}

// NewPolicy creates a policy. observer may be nil, in which case new images
// carry no loading markers.
func NewPolicy(s Settings, observer Observer) *Policy {
	return &Policy{settings: s, observer: observer}
}

// Settings returns the policy settings.
func (p *Policy) Settings() Settings {
	return p.settings
}

// Target returns the node the last mutation inserted or updated.
func (p *Policy) Target() *html.Node {
	return p.target
}

// Valid reports whether d carries a usable target reference.
func (p *Policy) Valid(d document.Descriptor) bool {
	ref := d.TargetReference()
	return ref != "" && ref != p.settings.Placeholder
}

// Prompt builds the request for r, prefilled from the image r wraps or
// with the placeholder.
func (p *Policy) Prompt(r *document.Range) interaction.Request {
	ref, label := p.settings.Placeholder, ""
	if n := r.BoundEmbeddable(); n != nil {
		ref, _ = document.GetAttr(n, document.AttrTargetReference)
		label, _ = document.GetAttr(n, document.AttrAccessibleLabel)
	}

	loc := p.settings.Localization
	return interaction.Request{
		Title: loc.Title,
		Fields: []interaction.Field{
			{Key: interaction.KeyTargetReference, Label: loc.URLLabel, Value: ref},
			{Key: interaction.KeyAccessibleLabel, Label: loc.LabelLabel, Value: label},
		},
		ApplyLabel:    loc.ApplyLabel,
		CancelLabel:   loc.CancelLabel,
		Width:         p.settings.Width,
		DialogOptions: p.settings.DialogOptions,
	}
}

// Decode builds a descriptor from reported values. A missing label key
// leaves the label absent so merges keep the existing one.
func (p *Policy) Decode(v interaction.Values) (document.Descriptor, error) {
	var opts []document.DescriptorOption
	if label, ok := v[interaction.KeyAccessibleLabel]; ok {
		opts = append(opts, document.WithLabel(label))
	}
	return document.NewDescriptor(strings.TrimSpace(v.Get(interaction.KeyTargetReference)), opts...), nil
}

// Mutate applies d at r. On replay, an image wrapped by r is only updated
// when it is the node this policy produced last; any other image makes the
// replay a no-op.
func (p *Policy) Mutate(r *document.Range, d document.Descriptor, replay bool) (*document.Edit, error) {
	if replay {
		if n := r.BoundEmbeddable(); n != nil && n != p.target {
			return nil, rangelock.ErrUnchanged
		}
	}

	edit, ok, err := p.TryApply(r, d)
	if err != nil {
		return edit, err
	}
	if !ok {
		return edit, rangelock.ErrUnchanged
	}
	p.target = edit.Node
	return edit, nil
}

// TryApply inserts a new image at r or merges d into the image r wraps.
// It reports whether the document changed. Invalid descriptors leave the
// document untouched. Callers must be inside Document.Update.
func (p *Policy) TryApply(r *document.Range, d document.Descriptor) (*document.Edit, bool, error) {
	if !p.Valid(d) {
		return nil, false, nil
	}
	doc := r.Document()

	var (
		kind      document.EditKind
		node      *html.Node
		transient []string
	)
	edit, err := doc.Record(func() error {
		if n := r.BoundEmbeddable(); n != nil {
			doc.SetAttrs(n, d)
			kind, node = document.EditUpdate, n
			return nil
		}

		n := d.Element()
		transient = p.markLoading(n, d)
		if err := r.CollapseAndClear(); err != nil {
			return err
		}
		if err := r.InsertNode(n); err != nil {
			return err
		}
		kind, node = document.EditInsert, n
		return r.CollapseAfter(n)
	})
	edit.Kind, edit.Node = kind, node
	if err != nil {
		return edit, false, err
	}

	if kind == document.EditInsert && len(transient) > 0 {
		p.observer.Observe(doc, node, transient)
	}
	return edit, true, nil
}

// markLoading sets the loading marker and provisional size hints on n and
// returns the attributes to clear once the resource settles.
func (p *Policy) markLoading(n *html.Node, d document.Descriptor) []string {
	if p.observer == nil || p.settings.LoadingMarker == "" {
		return nil
	}

	document.SetAttr(n, p.settings.LoadingMarker, "")
	transient := []string{p.settings.LoadingMarker}

	hints := []struct {
		key string
		val int
	}{
		{"width", p.settings.ProvisionalWidth},
		{"height", p.settings.ProvisionalHeight},
	}
	for _, h := range hints {
		if h.val <= 0 {
			continue
		}
		if _, set := d.Get(h.key); set {
			continue
		}
		document.SetAttr(n, h.key, strconv.Itoa(h.val))
		transient = append(transient, h.key)
	}
	return transient
}
