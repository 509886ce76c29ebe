package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/vellum/internal/interaction"
)

// field is an editable input. cursor is a byte offset on a grapheme
// cluster boundary of value.
type field struct {
	key    string
	label  string
	value  string
	cursor int
}

func (f *field) insert(r rune) {
	s := string(r)
	f.value = f.value[:f.cursor] + s + f.value[f.cursor:]
	f.cursor += len(s)
}

// backspace removes the grapheme cluster before the cursor.
func (f *field) backspace() {
	n := lastCluster(f.value[:f.cursor])
	f.value = f.value[:f.cursor-n] + f.value[f.cursor:]
	f.cursor -= n
}

// remove deletes the grapheme cluster under the cursor.
func (f *field) remove() {
	n := firstCluster(f.value[f.cursor:])
	f.value = f.value[:f.cursor] + f.value[f.cursor+n:]
}

func (f *field) left() {
	f.cursor -= lastCluster(f.value[:f.cursor])
}

func (f *field) right() {
	f.cursor += firstCluster(f.value[f.cursor:])
}

func (f *field) clear() {
	f.value, f.cursor = "", 0
}

func firstCluster(s string) int {
	if s == "" {
		return 0
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return len(cluster)
}

func lastCluster(s string) int {
	last := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		from, to := g.Positions()
		last = to - from
	}
	return last
}

// form is the state of one presented request.
type form struct {
	req    interaction.Request
	fields []*field
	active int
}

func newForm(req interaction.Request) *form {
	f := &form{req: req}
	for _, fd := range req.Fields {
		f.fields = append(f.fields, &field{
			key:    fd.Key,
			label:  fd.Label,
			value:  fd.Value,
			cursor: len(fd.Value),
		})
	}
	return f
}

func (f *form) values() interaction.Values {
	v := make(interaction.Values, len(f.fields))
	for _, fd := range f.fields {
		v[fd.key] = fd.value
	}
	return v
}

// handle applies ev and reports whether the form is finished, and if so
// with which outcome.
func (f *form) handle(ev *tcell.EventKey) (interaction.Outcome, bool) {
	switch ev.Key() {
	case tcell.KeyEnter:
		return interaction.Apply(f.values()), true
	case tcell.KeyEscape:
		return interaction.Cancel(), true
	case tcell.KeyTab, tcell.KeyDown:
		f.move(1)
	case tcell.KeyBacktab, tcell.KeyUp:
		f.move(-1)
	}

	fd := f.current()
	if fd == nil {
		return interaction.Outcome{}, false
	}
	switch ev.Key() {
	case tcell.KeyRune:
		fd.insert(ev.Rune())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		fd.backspace()
	case tcell.KeyDelete:
		fd.remove()
	case tcell.KeyLeft:
		fd.left()
	case tcell.KeyRight:
		fd.right()
	case tcell.KeyHome, tcell.KeyCtrlA:
		fd.cursor = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		fd.cursor = len(fd.value)
	case tcell.KeyCtrlU:
		fd.clear()
	}
	return interaction.Outcome{}, false
}

func (f *form) move(delta int) {
	if n := len(f.fields); n > 0 {
		f.active = (f.active + delta + n) % n
	}
}

func (f *form) current() *field {
	if f.active < len(f.fields) {
		return f.fields[f.active]
	}
	return nil
}

var (
	styleTitle  = tcell.StyleDefault.Bold(true)
	styleLabel  = tcell.StyleDefault.Dim(true)
	styleActive = tcell.StyleDefault.Reverse(true)
)

// draw renders the form: the title, a label and value line per field, and
// the key hints on the last line.
func (f *form) draw(s tcell.Screen) {
	s.Clear()
	_, height := s.Size()

	drawText(s, 0, 0, f.req.Title, styleTitle)
	y := 2
	for i, fd := range f.fields {
		drawText(s, 0, y, fd.label, styleLabel)
		style := tcell.StyleDefault
		if i == f.active {
			style = styleActive
		}
		x := drawText(s, 0, y+1, "> ", tcell.StyleDefault)
		drawText(s, x, y+1, fd.value, style)
		if i == f.active {
			s.ShowCursor(x+uniseg.StringWidth(fd.value[:fd.cursor]), y+1)
		}
		y += 3
	}

	hint := "[Enter] " + f.req.ApplyLabel + "  [Esc] " + f.req.CancelLabel
	drawText(s, 0, max(y, height-1), hint, styleLabel)
	s.Show()
}

// drawText writes s one grapheme cluster per cell run and returns the
// column after it.
func drawText(scr tcell.Screen, x, y int, s string, style tcell.Style) int {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		scr.SetContent(x, y, runes[0], runes[1:], style)
		x += max(g.Width(), 1)
	}
	return x
}
