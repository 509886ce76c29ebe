package document

import (
	"fmt"

	"golang.org/x/net/html"
)

// Point is a boundary point: a container node and an offset into it.
// For text containers the offset is a byte offset into the text; for all
// other containers it is a child index.
type Point struct {
	Node   *html.Node
	Offset int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	if p.Node == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%d", describe(p.Node), p.Offset)
}

// before returns the point immediately before n in its parent.
func before(n *html.Node) Point {
	return Point{Node: n.Parent, Offset: indexOf(n)}
}

// after returns the point immediately after n in its parent.
func after(n *html.Node) Point {
	return Point{Node: n.Parent, Offset: indexOf(n) + 1}
}

// normalize lifts points that sit on the edge of a text node to the
// equivalent point in the parent. Interior text points are unchanged.
func normalize(p Point) Point {
	if p.Node == nil || p.Node.Type != html.TextNode || p.Node.Parent == nil {
		return p
	}
	switch p.Offset {
	case 0:
		return before(p.Node)
	case len(p.Node.Data):
		return after(p.Node)
	}
	return p
}

// comparePoints returns -1, 0 or 1 when a is before, equal to or after b in
// tree order. Both points must share a root.
func comparePoints(a, b Point) int {
	pa, pb := path(a), path(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

// path returns the child indexes leading from the root to p.Node followed by
// p.Offset. A shorter path that is a prefix of a longer one sorts first,
// which matches tree order for boundary points.
func path(p Point) []int {
	var rev []int
	for n := p.Node; n.Parent != nil; n = n.Parent {
		rev = append(rev, indexOf(n))
	}
	out := make([]int, 0, len(rev)+1)
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return append(out, p.Offset)
}

// resolve walks idx from root and returns the point it addresses.
func resolve(root *html.Node, idx []int) (Point, bool) {
	if len(idx) == 0 {
		return Point{}, false
	}
	n := root
	for _, i := range idx[:len(idx)-1] {
		n = childAt(n, i)
		if n == nil {
			return Point{}, false
		}
	}
	off := idx[len(idx)-1]
	if off < 0 || off > nodeLength(n) {
		return Point{}, false
	}
	return Point{Node: n, Offset: off}, true
}

// nodeLength returns the number of offsets available inside n.
func nodeLength(n *html.Node) int {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return len(n.Data)
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func indexOf(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

// childAt returns the i-th child of n, or nil when i is past the last child.
func childAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

func describe(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "#text"
	case html.DocumentNode:
		return "#root"
	case html.CommentNode:
		return "#comment"
	}
	return n.Data
}
