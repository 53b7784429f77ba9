package transform

import (
	"sort"
	"strings"

	"github.com/vango-dev/uikit/internal/markup"
)

// BaseStylePrefix marks styles whose primitives take a render delegate
// instead of the asChild flag.
const BaseStylePrefix = "base-"

const (
	asChildAttr      = "asChild"
	nativeButtonAttr = "nativeButton"
)

// nonInteractiveTags render as something other than a native button. A
// delegate with one of these tags needs nativeButton={false}.
var nonInteractiveTags = map[string]bool{
	"a": true, "div": true, "span": true, "label": true, "p": true,
	"li": true, "ul": true, "ol": true, "img": true, "section": true,
	"nav": true, "header": true, "footer": true, "article": true,
	"aside": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "td": true, "th": true, "tr": true,
}

// RenderDelegate rewrites `<W asChild><C ...>body</C></W>` into
// `<W render={<C ... />}>body</W>` for base styles.
//
// The first element child becomes the delegate and any other content of
// the wrapper stays in its body. A wrapper with no element child only loses
// its flag. Nested wrappers are rewritten innermost first.
type RenderDelegate struct{}

// Name implements Transform.
func (RenderDelegate) Name() string { return "render-delegate" }

// Apply implements Transform.
func (RenderDelegate) Apply(tree *markup.Tree, cfg Config) (*markup.Tree, error) {
	if !strings.HasPrefix(cfg.Style, BaseStylePrefix) {
		return tree, nil
	}

	nonInteractive := make(map[string]bool, len(nonInteractiveTags)+len(cfg.NonInteractive))
	for t := range nonInteractiveTags {
		nonInteractive[t] = true
	}
	for _, t := range cfg.NonInteractive {
		nonInteractive[t] = true
	}

	rounds := countFlags(tree) + 1
	for round := 0; round < rounds; round++ {
		plans := planDelegates(tree, nonInteractive)
		if len(plans) == 0 {
			return tree, nil
		}

		var edits []markup.Edit
		var taken []markup.Span
		for _, pl := range plans {
			if overlapsAny(pl.region, taken) {
				continue
			}
			taken = append(taken, pl.region)
			edits = append(edits, pl.edits...)
		}

		next, err := tree.Apply(edits)
		if err != nil {
			return nil, err
		}
		tree = next
	}
	return tree, nil
}

// delegatePlan is the set of edits rewriting one wrapper.
type delegatePlan struct {
	region markup.Span
	edits  []markup.Edit
}

func countFlags(tree *markup.Tree) int {
	n := 0
	for _, i := range tree.Elements() {
		if tree.Node(i).HasAttr(asChildAttr) {
			n++
		}
	}
	return n
}

// planDelegates returns a plan per rewritable wrapper, last wrapper first.
func planDelegates(tree *markup.Tree, nonInteractive map[string]bool) []delegatePlan {
	var plans []delegatePlan
	for _, i := range tree.Elements() {
		if pl, ok := planDelegate(tree, i, nonInteractive); ok {
			plans = append(plans, pl)
		}
	}
	sort.SliceStable(plans, func(a, b int) bool {
		return plans[a].region.Start > plans[b].region.Start
	})
	return plans
}

func planDelegate(tree *markup.Tree, wi int, nonInteractive map[string]bool) (delegatePlan, bool) {
	w := tree.Node(wi)
	flag, ok := w.Attr(asChildAttr)
	if !ok {
		return delegatePlan{}, false
	}
	region := markup.Span{Start: w.Open.Start, End: w.Span.End}
	dropFlag := markup.Delete(markup.Span{Start: skipSpaceBack(tree.Src, flag.Span.Start), End: flag.Span.End})

	ci, hasChild := tree.FirstElementChild(wi)
	if !flagEnabled(tree, flag) || w.SelfClosing || !hasChild {
		return delegatePlan{region: region, edits: []markup.Edit{dropFlag}}, true
	}
	c := tree.Node(ci)

	render := " render={" + selfClosingTag(tree, c) + "}"
	if nonInteractive[c.Tag] && !w.HasAttr(nativeButtonAttr) {
		render += " " + nativeButtonAttr + "={false}"
	}

	// p is just past the last non-space byte before the wrapper's '>'.
	p := skipSpaceBack(tree.Src, w.Open.End-1)
	emptyChild := c.SelfClosing || isBlank(tree.Src[c.Content.Start:c.Content.End])

	edits := []markup.Edit{dropFlag}
	switch {
	case !onlyChild(tree, wi, ci):
		// Siblings stay in the body around the child's content.
		edits = append(edits, markup.Insert(p, render))
		if emptyChild {
			edits = append(edits, markup.Delete(c.Span))
		} else {
			edits = append(edits,
				markup.Delete(c.Open),
				markup.Delete(markup.Span{Start: c.Content.End, End: c.Span.End}),
			)
		}
	case emptyChild:
		edits = append(edits, markup.Replace(markup.Span{Start: p, End: w.Span.End}, render+" />"))
	default:
		edits = append(edits,
			markup.Insert(p, render),
			markup.Delete(markup.Span{Start: w.Content.Start, End: c.Content.Start}),
			markup.Delete(markup.Span{Start: c.Content.End, End: w.Content.End}),
		)
	}
	return delegatePlan{region: region, edits: edits}, true
}

// flagEnabled reports whether the flag is `asChild` or `asChild={true}`.
func flagEnabled(tree *markup.Tree, a markup.Attr) bool {
	switch a.Kind {
	case markup.AttrBool:
		return true
	case markup.AttrExpr:
		return strings.TrimSpace(tree.Text(a.Value)) == "true"
	}
	return false
}

// onlyChild reports whether ci is the only non-blank child of wi.
func onlyChild(tree *markup.Tree, wi, ci int) bool {
	for _, k := range tree.Node(wi).Children {
		if k == ci {
			continue
		}
		n := tree.Node(k)
		if n.Kind == markup.TextNode && isBlank(tree.Src[n.Span.Start:n.Span.End]) {
			continue
		}
		return false
	}
	return true
}

// selfClosingTag returns the opening tag of n written as a self-closing tag.
func selfClosingTag(tree *markup.Tree, n *markup.Node) string {
	open := tree.Text(n.Open)
	if n.SelfClosing {
		return open
	}
	open = strings.TrimSuffix(open, ">")
	return strings.TrimRight(open, " \t\r\n") + " />"
}

func skipSpaceBack(src []byte, i int) int {
	for i > 0 && isClassSpace(src[i-1]) {
		i--
	}
	return i
}

func isBlank(b []byte) bool {
	return strings.TrimSpace(string(b)) == ""
}

func overlapsAny(s markup.Span, taken []markup.Span) bool {
	for _, t := range taken {
		if s.Start < t.End && t.Start < s.End {
			return true
		}
	}
	return false
}

// TransformRender rewrites asChild wrappers in src when style is a base
// style and returns src unchanged otherwise.
func TransformRender(src, style string) (string, error) {
	if !strings.HasPrefix(style, BaseStylePrefix) {
		return src, nil
	}
	tree, err := markup.ParseString("source.tsx", src)
	if err != nil {
		return "", err
	}
	out, err := RenderDelegate{}.Apply(tree, Config{Style: style})
	if err != nil {
		return "", err
	}
	return out.Source(), nil
}
