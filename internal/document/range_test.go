package document

import (
	"errors"
	"testing"

	"golang.org/x/net/html"
)

// firstText returns the first text node of d in tree order.
func firstText(d *Document) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			found = n
			return false
		}
		return true
	})
	return found
}

func selectionOf(t *testing.T, d *Document) *Range {
	t.Helper()
	r, err := d.CaptureRange()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBoundEmbeddable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"wraps image", `<p>a<!--[--><img src="x"/><!--]-->b</p>`, "x"},
		{"wraps image at root", `<!--[--><img src="y"/><!--]-->`, "y"},
		{"collapsed", `<p>a<img src="x"/><!--|-->b</p>`, ""},
		{"two images", `<p><!--[--><img src="x"/><img src="y"/><!--]--></p>`, ""},
		{"non-embeddable", `<!--[--><p>x</p><!--]-->`, ""},
		{"image plus text", `<p><!--[-->a<img src="x"/><!--]--></p>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParse(t, tt.input)
			r := selectionOf(t, d)

			var got string
			_ = d.View(func() error {
				if n := r.BoundEmbeddable(); n != nil {
					got, _ = GetAttr(n, AttrTargetReference)
				}
				return nil
			})
			if got != tt.want {
				t.Errorf("BoundEmbeddable() src = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBoundEmbeddableAtTextEdges(t *testing.T) {
	d := mustParse(t, `<p>a<img src="x"/>b</p>`)
	p := d.Root().FirstChild
	a, b := p.FirstChild, p.LastChild

	_ = d.View(func() error {
		r, err := NewRange(d, Point{Node: a, Offset: 1}, Point{Node: b, Offset: 0})
		if err != nil {
			t.Fatalf("NewRange() error = %v", err)
		}
		if r.BoundEmbeddable() == nil {
			t.Error("range from end of text to start of text should bound the image")
		}
		return nil
	})
}

func TestNewRangeOutOfOrder(t *testing.T) {
	d := mustParse(t, `<p>abc</p>`)
	text := firstText(d)

	_ = d.View(func() error {
		_, err := NewRange(d, Point{Node: text, Offset: 2}, Point{Node: text, Offset: 1})
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("NewRange(out of order) error = %v, want ErrInvalidRange", err)
		}
		_, err = NewRange(d, Point{Node: text, Offset: 0}, Point{Node: text, Offset: 9})
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("NewRange(out of bounds) error = %v, want ErrInvalidRange", err)
		}
		return nil
	})
}

func TestValidate(t *testing.T) {
	d := mustParse(t, `<p>ab<!--|--></p>`)
	r := selectionOf(t, d)

	_ = d.View(func() error {
		if err := r.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
		return nil
	})

	_ = d.Update(func() error {
		d.root.RemoveChild(d.root.FirstChild)
		return nil
	})
	_ = d.View(func() error {
		if err := r.Validate(); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Validate(detached) error = %v, want ErrInvalidRange", err)
		}
		return nil
	})

	var nilRange *Range
	if err := nilRange.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Validate(nil) error = %v, want ErrInvalidRange", err)
	}
}

func TestValidateClosed(t *testing.T) {
	d := mustParse(t, `<p><!--|--></p>`)
	r := selectionOf(t, d)
	d.Close()

	if err := r.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Validate(closed) error = %v, want ErrInvalidRange", err)
	}
}

func TestCollapseAndClear(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapsed", `<p>ab<!--|-->cd</p>`, `<p>ab<!--|-->cd</p>`},
		{"whole text node", `<p>a<!--[-->bc<!--]-->d</p>`, `<p>a<!--|-->d</p>`},
		{"image", `<p>a<!--[--><img src="x"/><!--]-->b</p>`, `<p>a<!--|-->b</p>`},
		{"whole paragraph", `<!--[--><p>x</p><!--]--><p>y</p>`, `<!--|--><p>y</p>`},
		{"across paragraphs", `<p>a<!--[-->b</p><p>c<!--]-->d</p>`, `<p>a<!--|--></p><p>d</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParse(t, tt.input)
			r := selectionOf(t, d)

			err := d.Update(func() error {
				if err := r.CollapseAndClear(); err != nil {
					return err
				}
				if !r.Collapsed() {
					t.Error("range should be collapsed")
				}
				return r.RestoreAsActiveSelection()
			})
			if err != nil {
				t.Fatalf("CollapseAndClear() error = %v", err)
			}
			if got := d.RenderSelection(); got != tt.want {
				t.Errorf("RenderSelection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseAndClearInsideText(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{"middle", 1, 3, `<p>a<!--|-->d</p>`},
		{"prefix", 0, 2, `<p><!--|-->cd</p>`},
		{"suffix", 2, 4, `<p>ab<!--|--></p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParse(t, `<p>abcd</p>`)
			text := firstText(d)

			err := d.Update(func() error {
				r, err := NewRange(d, Point{Node: text, Offset: tt.start}, Point{Node: text, Offset: tt.end})
				if err != nil {
					return err
				}
				if err := r.CollapseAndClear(); err != nil {
					return err
				}
				return r.RestoreAsActiveSelection()
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := d.RenderSelection(); got != tt.want {
				t.Errorf("RenderSelection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertNode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty paragraph", `<p><!--|--></p>`, `<p><!--[--><img src="n"/><!--]--></p>`},
		{"between text nodes", `<p>ab<!--|-->cd</p>`, `<p>ab<!--[--><img src="n"/><!--]-->cd</p>`},
		{"document start", `<!--|--><p>x</p>`, `<!--[--><img src="n"/><!--]--><p>x</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParse(t, tt.input)
			r := selectionOf(t, d)
			img := NewDescriptor("n").Element()

			err := d.Update(func() error {
				if err := r.InsertNode(img); err != nil {
					return err
				}
				return r.RestoreAsActiveSelection()
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := d.RenderSelection(); got != tt.want {
				t.Errorf("RenderSelection() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertNodeSplitsText(t *testing.T) {
	d := mustParse(t, `<p>ab</p>`)
	text := firstText(d)
	img := NewDescriptor("n").Element()

	err := d.Update(func() error {
		r, err := NewRange(d, Point{Node: text, Offset: 1}, Point{Node: text, Offset: 1})
		if err != nil {
			return err
		}
		if err := r.InsertNode(img); err != nil {
			return err
		}
		if r.BoundEmbeddable() != img {
			t.Error("range should bracket the inserted node")
		}
		if err := r.CollapseAfter(img); err != nil {
			return err
		}
		return r.RestoreAsActiveSelection()
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := d.RenderSelection(); got != `<p>a<img src="n"/><!--|-->b</p>` {
		t.Errorf("RenderSelection() = %q", got)
	}
}

func TestInsertNodeInUse(t *testing.T) {
	d := mustParse(t, `<p>x<!--|--></p>`)
	r := selectionOf(t, d)

	err := d.Update(func() error {
		return r.InsertNode(d.Root().FirstChild)
	})
	if !errors.Is(err, ErrNodeInUse) {
		t.Errorf("InsertNode(attached) error = %v, want ErrNodeInUse", err)
	}
}

func TestCollapseAfterDetached(t *testing.T) {
	d := mustParse(t, `<p><!--|--></p>`)
	r := selectionOf(t, d)

	err := d.View(func() error {
		return r.CollapseAfter(NewDescriptor("x").Element())
	})
	if !errors.Is(err, ErrDetached) {
		t.Errorf("CollapseAfter(detached) error = %v, want ErrDetached", err)
	}
}
