package transform

import (
	"path/filepath"
	"strings"

	"github.com/vango-dev/uikit/internal/markup"
)

// DefaultClassFunctions are the helpers whose string arguments hold class
// lists.
var DefaultClassFunctions = []string{"cn", "cva", "clsx", "cx", "twMerge"}

// DefaultManualReview names components that encode direction in ways a
// token rewrite cannot capture. Files with these base names are flagged
// for a human to review after a direction migration.
var DefaultManualReview = []string{
	"calendar",
	"carousel",
	"pagination",
	"resizable",
	"sidebar",
	"stepper",
}

// NeedsManualReview reports whether the file at path is one of the
// DefaultManualReview components or one of extra.
func NeedsManualReview(path string, extra []string) bool {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	for _, list := range [][]string{DefaultManualReview, extra} {
		for _, n := range list {
			if n == name || n == base {
				return true
			}
		}
	}
	return false
}

// rule maps a physical utility to its counterpart. A prefix rule matches
// the utility itself and any `from-...` form; an exact rule matches only
// the utility.
type rule struct {
	from, to string
	exact    bool
}

var logicalRules = []rule{
	{from: "ml", to: "ms"},
	{from: "mr", to: "me"},
	{from: "pl", to: "ps"},
	{from: "pr", to: "pe"},
	{from: "left", to: "start"},
	{from: "right", to: "end"},
	{from: "border-l", to: "border-s"},
	{from: "border-r", to: "border-e"},
	{from: "rounded-l", to: "rounded-s"},
	{from: "rounded-r", to: "rounded-e"},
	{from: "rounded-tl", to: "rounded-ss"},
	{from: "rounded-tr", to: "rounded-se"},
	{from: "rounded-bl", to: "rounded-es"},
	{from: "rounded-br", to: "rounded-ee"},
	{from: "scroll-ml", to: "scroll-ms"},
	{from: "scroll-mr", to: "scroll-me"},
	{from: "scroll-pl", to: "scroll-ps"},
	{from: "scroll-pr", to: "scroll-pe"},
	{from: "text-left", to: "text-start", exact: true},
	{from: "text-right", to: "text-end", exact: true},
	{from: "float-left", to: "float-start", exact: true},
	{from: "float-right", to: "float-end", exact: true},
	{from: "clear-left", to: "clear-start", exact: true},
	{from: "clear-right", to: "clear-end", exact: true},
	{from: "slide-in-from-left", to: "slide-in-from-start"},
	{from: "slide-in-from-right", to: "slide-in-from-end"},
	{from: "slide-out-to-left", to: "slide-out-to-start"},
	{from: "slide-out-to-right", to: "slide-out-to-end"},
}

// mirrorPairs are swapped in both directions by Mirror.
var mirrorPairs = []rule{
	{from: "ml", to: "mr"},
	{from: "pl", to: "pr"},
	{from: "left", to: "right"},
	{from: "border-l", to: "border-r"},
	{from: "rounded-l", to: "rounded-r"},
	{from: "rounded-tl", to: "rounded-tr"},
	{from: "rounded-bl", to: "rounded-br"},
	{from: "scroll-ml", to: "scroll-mr"},
	{from: "scroll-pl", to: "scroll-pr"},
	{from: "text-left", to: "text-right", exact: true},
	{from: "float-left", to: "float-right", exact: true},
	{from: "clear-left", to: "clear-right", exact: true},
	{from: "origin-left", to: "origin-right", exact: true},
	{from: "origin-top-left", to: "origin-top-right", exact: true},
	{from: "origin-bottom-left", to: "origin-bottom-right", exact: true},
	{from: "slide-in-from-left", to: "slide-in-from-right"},
	{from: "slide-out-to-left", to: "slide-out-to-right"},
}

var mirrorRules = func() []rule {
	out := make([]rule, 0, 2*len(mirrorPairs))
	for _, r := range mirrorPairs {
		out = append(out, r, rule{from: r.to, to: r.from, exact: r.exact})
	}
	return out
}()

func (r rule) match(core string) (string, bool) {
	if core == r.from {
		return r.to, true
	}
	if !r.exact && strings.HasPrefix(core, r.from+"-") {
		return r.to + core[len(r.from):], true
	}
	return "", false
}

// Direction rewrites directional utility classes in class attributes and
// class helper calls. It does nothing unless Config.RTL is set.
type Direction struct{}

// Name implements Transform.
func (Direction) Name() string { return "direction" }

// NeedsReview implements Reviewer.
func (Direction) NeedsReview(path string, extra []string) bool {
	return NeedsManualReview(path, extra)
}

// Apply implements Transform.
func (Direction) Apply(tree *markup.Tree, cfg Config) (*markup.Tree, error) {
	if !cfg.RTL {
		return tree, nil
	}
	mode := cfg.Direction
	if mode == "" {
		mode = Logical
	}

	fns := make(map[string]bool)
	for _, list := range [][]string{DefaultClassFunctions, cfg.ClassFunctions} {
		for _, f := range list {
			fns[f] = true
		}
	}

	var edits []markup.Edit
	for _, s := range tree.Strings {
		if s.Attr != "className" && s.Attr != "class" && !s.InCall(fns) {
			continue
		}
		if !classListPosition(tree.Src, s) {
			continue
		}
		text := tree.Text(s.Value)
		if out := RewriteClasses(text, mode); out != text {
			edits = append(edits, markup.Replace(s.Value, out))
		}
	}
	return tree.Apply(edits)
}

// classListPosition reports whether a literal can hold a class list. Operands
// of comparisons, case labels and bare side names such as the value of
// `side: "right"` in defaultVariants are prop values, not classes.
func classListPosition(src []byte, s markup.StringLit) bool {
	switch strings.TrimSpace(string(src[s.Value.Start:s.Value.End])) {
	case "left", "right":
		return false
	}
	if s.Quote == '`' {
		return true
	}

	i := s.Span.Start
	for i > 0 && isClassSpace(src[i-1]) {
		i--
	}
	if i >= 2 && src[i-1] == '=' && (src[i-2] == '=' || src[i-2] == '!') {
		return false
	}
	if i >= 4 && string(src[i-4:i]) == "case" && (i == 4 || !isIdentByte(src[i-5])) {
		return false
	}

	j := s.Span.End
	for j < len(src) && isClassSpace(src[j]) {
		j++
	}
	if j+1 < len(src) && src[j+1] == '=' && (src[j] == '=' || src[j] == '!') {
		return false
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// RewriteClasses rewrites every directional token of a whitespace
// separated class list. Whitespace is preserved. In Logical mode tokens
// without a logical form get an `rtl:` companion appended once.
func RewriteClasses(classes string, mode DirectionMode) string {
	var b strings.Builder
	var companions []string
	present := make(map[string]bool)

	for _, tok := range strings.Fields(classes) {
		present[tok] = true
	}

	i := 0
	for i < len(classes) {
		if isClassSpace(classes[i]) {
			b.WriteByte(classes[i])
			i++
			continue
		}
		j := i
		for j < len(classes) && !isClassSpace(classes[j]) {
			j++
		}
		tok := classes[i:j]
		i = j

		if mode == Mirror {
			b.WriteString(mirrorToken(tok))
			continue
		}
		out, companion := logicalToken(tok)
		b.WriteString(out)
		if companion != "" && !present[companion] {
			present[companion] = true
			companions = append(companions, companion)
		}
	}

	if len(companions) == 0 {
		return b.String()
	}
	out := b.String()
	trimmed := strings.TrimRight(out, " \t\n\r")
	return trimmed + " " + strings.Join(companions, " ") + out[len(trimmed):]
}

// utility is a class token split into its parts.
type utility struct {
	variants  string // "md:hover:"
	important bool
	negative  bool
	core      string
}

func parseUtility(tok string) utility {
	var u utility
	if k := lastVariantColon(tok); k >= 0 {
		u.variants, tok = tok[:k+1], tok[k+1:]
	}
	if strings.HasPrefix(tok, "!") {
		u.important = true
		tok = tok[1:]
	}
	if strings.HasPrefix(tok, "-") {
		u.negative = true
		tok = tok[1:]
	}
	u.core = tok
	return u
}

func (u utility) String() string {
	var b strings.Builder
	b.WriteString(u.variants)
	if u.important {
		b.WriteByte('!')
	}
	if u.negative {
		b.WriteByte('-')
	}
	b.WriteString(u.core)
	return b.String()
}

// directional reports whether the token already targets one direction.
func (u utility) directional() bool {
	return strings.Contains(u.variants, "rtl:") || strings.Contains(u.variants, "ltr:")
}

func logicalToken(tok string) (out, companion string) {
	u := parseUtility(tok)
	if u.core == "" || u.directional() {
		return tok, ""
	}
	for _, r := range logicalRules {
		if core, ok := r.match(u.core); ok {
			u.core = core
			return u.String(), ""
		}
	}

	switch {
	case strings.HasPrefix(u.core, "translate-x-"):
		c := u
		c.variants = "rtl:" + u.variants
		c.negative = !u.negative
		return tok, c.String()
	case strings.HasPrefix(u.core, "space-x-") && u.core != "space-x-reverse" && !u.negative:
		c := utility{variants: "rtl:" + u.variants, important: u.important, core: "space-x-reverse"}
		return tok, c.String()
	}
	return tok, ""
}

func mirrorToken(tok string) string {
	u := parseUtility(tok)
	if u.core == "" || u.directional() {
		return tok
	}
	if strings.HasPrefix(u.core, "translate-x-") {
		u.negative = !u.negative
		return u.String()
	}
	for _, r := range mirrorRules {
		if core, ok := r.match(u.core); ok {
			u.core = core
			return u.String()
		}
	}
	return tok
}

// lastVariantColon returns the index of the last ':' outside brackets.
func lastVariantColon(tok string) int {
	depth := 0
	last := -1
	for i := 0; i < len(tok); i++ {
		switch tok[i] {
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				last = i
			}
		}
	}
	return last
}

func isClassSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// TransformDirection rewrites src for a right-to-left layout. With
// enableRTL false the source is returned as is, without being parsed.
func TransformDirection(src string, enableRTL bool) (string, error) {
	if !enableRTL {
		return src, nil
	}
	tree, err := markup.ParseString("source.tsx", src)
	if err != nil {
		return "", err
	}
	out, err := Direction{}.Apply(tree, Config{RTL: true})
	if err != nil {
		return "", err
	}
	return out.Source(), nil
}
