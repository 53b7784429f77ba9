package markup

import (
	"fmt"
	"sort"
)

// NodeKind identifies the kind of a markup node.
type NodeKind uint8

const (
	ElementNode NodeKind = iota
	FragmentNode
	TextNode
	ExprNode
)

func (k NodeKind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case FragmentNode:
		return "fragment"
	case TextNode:
		return "text"
	case ExprNode:
		return "expression"
	default:
		return fmt.Sprintf("NodeKind(%d)", k)
	}
}

// Span is a half-open byte range [Start, End) of the source.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Start }

// AttrKind is the value kind of an attribute.
type AttrKind uint8

const (
	// AttrBool is a bare attribute such as `disabled`.
	AttrBool AttrKind = iota
	// AttrString is a quoted value.
	AttrString
	// AttrExpr is a braced expression or an element value.
	AttrExpr
	// AttrSpread is `{...props}`.
	AttrSpread
)

// Attr is one attribute of an opening tag.
type Attr struct {
	Name string
	Kind AttrKind

	// Span covers the whole attribute, name through value.
	Span Span

	// Value covers the value without quotes or braces.
	Value Span
}

// Node is one entry of the tree's node arena. Nodes refer to each other by
// index into Tree.Nodes.
type Node struct {
	Kind NodeKind

	// Tag is the element name; empty for other kinds.
	Tag string

	// Span covers the whole node.
	Span Span

	// Open covers the opening tag, or `<>` for a fragment.
	Open Span

	// Content covers everything between the opening and closing tags.
	// For a self-closing element it is the empty span at Open.End.
	Content Span

	// Close covers the closing tag; empty when self-closing.
	Close Span

	SelfClosing bool
	Attrs       []Attr

	// Parent is the index of the enclosing node, or -1.
	Parent int

	// Children are the child nodes in source order. Elements written as
	// attribute values are not children of the element owning the attribute.
	Children []int
}

// Attr returns the attribute named name.
func (n *Node) Attr(name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// HasAttr reports whether the node carries an attribute named name.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// StringLit is a string literal found anywhere in the source: a quoted
// attribute value, a string in code, or one text chunk of a template
// literal.
type StringLit struct {
	// Span covers the literal including quotes. For template chunks it
	// covers the chunk text only.
	Span Span

	// Value covers the literal's contents.
	Value Span

	// Quote is '"', '\'' or '`'.
	Quote byte

	// Attr is the name of the JSX attribute whose value contains the
	// literal, or "".
	Attr string

	// Calls are the names of the calls enclosing the literal, outermost
	// first.
	Calls []string
}

// InCall reports whether any enclosing call is named one of names.
func (s StringLit) InCall(names map[string]bool) bool {
	for _, c := range s.Calls {
		if names[c] {
			return true
		}
	}
	return false
}

// Tree is a parsed source file. The source is kept verbatim; the arena and
// literal records are views onto it.
type Tree struct {
	Name    string
	Src     []byte
	Nodes   []Node
	Roots   []int
	Strings []StringLit
}

// Source returns the source text.
func (t *Tree) Source() string { return string(t.Src) }

// Text returns the source text covered by s.
func (t *Tree) Text(s Span) string { return string(t.Src[s.Start:s.End]) }

// Node returns the node at index i.
func (t *Tree) Node(i int) *Node { return &t.Nodes[i] }

// Elements returns the indexes of every element node in source order.
func (t *Tree) Elements() []int {
	var out []int
	for i := range t.Nodes {
		if t.Nodes[i].Kind == ElementNode {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return t.Nodes[out[a]].Span.Start < t.Nodes[out[b]].Span.Start
	})
	return out
}

// FirstElementChild returns the first element child of node i, skipping
// text, expressions and fragments.
func (t *Tree) FirstElementChild(i int) (int, bool) {
	for _, c := range t.Nodes[i].Children {
		if t.Nodes[c].Kind == ElementNode {
			return c, true
		}
	}
	return -1, false
}

// LineCol converts a byte offset to a 1-based line and column.
func (t *Tree) LineCol(offset int) (line, col int) {
	return lineCol(t.Src, offset)
}

func lineCol(src []byte, offset int) (line, col int) {
	line, col = 1, 1
	if offset > len(src) {
		offset = len(src)
	}
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
