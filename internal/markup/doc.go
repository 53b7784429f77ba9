// Package markup parses component sources written in TSX into a flat arena
// of markup nodes and string-literal records, and applies byte-range edits
// to them.
//
// The parser does not build a full syntax tree for the surrounding code. It
// scans code only far enough to skip comments, strings, template literals
// and regular expressions, to find markup, and to know which calls enclose
// each string literal. Every node and literal records byte spans into the
// original source, so a rewrite is a list of Edits and an unchanged tree
// serializes to exactly its input.
//
//	tree, err := markup.ParseString("button.tsx", src)
//	for _, i := range tree.Elements() {
//	    n := tree.Node(i)
//	    if a, ok := n.Attr("className"); ok { ... }
//	}
//	tree, err = tree.Apply([]markup.Edit{markup.Replace(span, "ms-2")})
package markup
