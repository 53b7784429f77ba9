package markup

import (
	"fmt"

	"github.com/vango-dev/uikit/internal/errors"
)

type tokKind uint8

const (
	tokNone tokKind = iota
	tokIdent
	tokNumber
	tokPunct
	tokValue
)

type token struct {
	kind tokKind
	text string
}

// exprKeywords may be followed by an expression, so a following `/` starts
// a regex and a following `<` starts markup.
var exprKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true, "instanceof": true,
	"default": true,
}

// statementKeywords take a parenthesized clause that is not a call.
var statementKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "with": true, "return": true, "typeof": true,
	"await": true, "yield": true, "void": true, "delete": true, "in": true,
	"of": true, "case": true,
}

// scope says where nodes found while scanning code belong.
type scope struct {
	attr   string
	parent int
	attach bool
}

type parser struct {
	name   string
	src    []byte
	pos    int
	tree   *Tree
	frames []string
	prev   token
}

// Parse parses a TSX-like source file. Code outside markup is scanned only
// far enough to find markup, string literals and the calls enclosing them.
func Parse(name string, src []byte) (*Tree, error) {
	p := &parser{
		name: name,
		src:  src,
		tree: &Tree{Name: name, Src: src},
	}
	if _, err := p.scanCode(false, scope{parent: -1}); err != nil {
		return nil, err
	}
	return p.tree, nil
}

// ParseString is Parse for string sources.
func ParseString(name, src string) (*Tree, error) {
	return Parse(name, []byte(src))
}

func (p *parser) errorf(at int, format string, args ...any) error {
	line, col := lineCol(p.src, at)
	return errors.New("E120").
		WithSourceLocation(p.name, p.src, line, col).
		WithDetail(fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek(off int) byte {
	if p.pos+off < len(p.src) {
		return p.src[p.pos+off]
	}
	return 0
}

// exprStart reports whether an expression may begin at the current
// position, judged by the previous significant token.
func (p *parser) exprStart() bool {
	switch p.prev.kind {
	case tokNone:
		return true
	case tokIdent:
		return exprKeywords[p.prev.text]
	case tokPunct:
		switch p.prev.text {
		case ")", "]", "}":
			return false
		}
		return true
	}
	return false
}

// scanCode scans code until EOF or, when stopAtBrace is set, until the
// unmatched `}`; it returns the position of that brace.
func (p *parser) scanCode(stopAtBrace bool, sc scope) (int, error) {
	depth := 0
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case isSpace(c):
			p.pos++

		case c == '/' && p.peek(1) == '/':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}

		case c == '/' && p.peek(1) == '*':
			end := indexFrom(p.src, p.pos+2, "*/")
			if end < 0 {
				return 0, p.errorf(p.pos, "unterminated comment")
			}
			p.pos = end + 2

		case c == '"' || c == '\'':
			if err := p.scanString(c, sc); err != nil {
				return 0, err
			}
			p.prev = token{kind: tokValue}

		case c == '`':
			if err := p.scanTemplate(sc); err != nil {
				return 0, err
			}
			p.prev = token{kind: tokValue}

		case c == '/' && p.exprStart():
			if err := p.scanRegex(); err != nil {
				return 0, err
			}
			p.prev = token{kind: tokValue}

		case c == '<' && p.exprStart() && p.jsxAhead():
			if _, err := p.parseElement(sc.parent, sc.attach); err != nil {
				return 0, err
			}
			p.prev = token{kind: tokValue}

		case c == '(':
			name := ""
			if p.prev.kind == tokIdent && !statementKeywords[p.prev.text] {
				name = p.prev.text
			}
			p.frames = append(p.frames, name)
			p.pos++
			p.prev = token{kind: tokPunct, text: "("}

		case c == ')':
			if len(p.frames) > 0 {
				p.frames = p.frames[:len(p.frames)-1]
			}
			p.pos++
			p.prev = token{kind: tokPunct, text: ")"}

		case c == '{':
			depth++
			p.pos++
			p.prev = token{kind: tokPunct, text: "{"}

		case c == '}':
			if depth == 0 && stopAtBrace {
				return p.pos, nil
			}
			if depth > 0 {
				depth--
			}
			p.pos++
			p.prev = token{kind: tokPunct, text: "}"}

		case isIdentStart(c):
			start := p.pos
			for !p.eof() && isIdentPart(p.src[p.pos]) {
				p.pos++
			}
			p.prev = token{kind: tokIdent, text: string(p.src[start:p.pos])}

		case isDigit(c):
			for !p.eof() && (isIdentPart(p.src[p.pos]) || p.src[p.pos] == '.') {
				p.pos++
			}
			p.prev = token{kind: tokNumber}

		case c == '=' && p.peek(1) == '>':
			p.pos += 2
			p.prev = token{kind: tokPunct, text: "=>"}

		default:
			p.pos++
			p.prev = token{kind: tokPunct, text: string(c)}
		}
	}
	if stopAtBrace {
		return 0, p.errorf(p.pos, "unexpected end of file, expected '}'")
	}
	return p.pos, nil
}

func (p *parser) recordString(span, value Span, quote byte, sc scope) {
	var calls []string
	for _, f := range p.frames {
		if f != "" {
			calls = append(calls, f)
		}
	}
	p.tree.Strings = append(p.tree.Strings, StringLit{
		Span:  span,
		Value: value,
		Quote: quote,
		Attr:  sc.attr,
		Calls: calls,
	})
}

func (p *parser) scanString(quote byte, sc scope) error {
	start := p.pos
	p.pos++
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '\\':
			p.pos += 2
			continue
		case '\n':
			return p.errorf(start, "unterminated string literal")
		case quote:
			p.pos++
			p.recordString(Span{start, p.pos}, Span{start + 1, p.pos - 1}, quote, sc)
			return nil
		}
		p.pos++
	}
	return p.errorf(start, "unterminated string literal")
}

// scanTemplate records each text chunk of a template literal and scans
// the ${} substitutions as code.
func (p *parser) scanTemplate(sc scope) error {
	start := p.pos
	p.pos++
	chunk := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\':
			p.pos += 2
		case c == '`':
			p.recordChunk(chunk, p.pos, sc)
			p.pos++
			return nil
		case c == '$' && p.peek(1) == '{':
			p.recordChunk(chunk, p.pos, sc)
			p.pos += 2
			p.prev = token{kind: tokPunct, text: "{"}
			if _, err := p.scanCode(true, sc); err != nil {
				return err
			}
			p.pos++
			chunk = p.pos
		default:
			p.pos++
		}
	}
	return p.errorf(start, "unterminated template literal")
}

func (p *parser) recordChunk(start, end int, sc scope) {
	if end > start {
		p.recordString(Span{start, end}, Span{start, end}, '`', sc)
	}
}

func (p *parser) scanRegex() error {
	start := p.pos
	p.pos++
	inClass := false
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\':
			p.pos += 2
			continue
		case c == '\n':
			return p.errorf(start, "unterminated regular expression")
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			p.pos++
			for !p.eof() && isIdentPart(p.src[p.pos]) {
				p.pos++
			}
			return nil
		}
		p.pos++
	}
	return p.errorf(start, "unterminated regular expression")
}

// jsxAhead reports whether the `<` at the current position opens markup
// rather than a type parameter list such as `<T,>` or `<T extends U>`.
func (p *parser) jsxAhead() bool {
	next := p.peek(1)
	if next == '>' {
		return true
	}
	if !isIdentStart(next) {
		return false
	}
	i := p.pos + 1
	for i < len(p.src) && isNamePart(p.src[i]) {
		i++
	}
	for i < len(p.src) && isSpace(p.src[i]) {
		i++
	}
	if i < len(p.src) && p.src[i] == ',' {
		return false
	}
	return !hasWordAt(p.src, i, "extends")
}

func (p *parser) newNode(n Node) int {
	p.tree.Nodes = append(p.tree.Nodes, n)
	return len(p.tree.Nodes) - 1
}

func (p *parser) attach(parent, child int, attach bool) {
	switch {
	case parent < 0:
		p.tree.Roots = append(p.tree.Roots, child)
	case attach:
		p.tree.Nodes[parent].Children = append(p.tree.Nodes[parent].Children, child)
	}
}

// parseElement parses an element or fragment starting at `<`.
func (p *parser) parseElement(parent int, attach bool) (int, error) {
	saved := p.frames
	p.frames = nil
	defer func() { p.frames = saved }()

	start := p.pos
	idx := p.newNode(Node{Kind: ElementNode, Parent: parent})
	p.attach(parent, idx, attach)
	p.pos++
	p.skipSpace()

	if p.peek(0) == '>' {
		p.pos++
		p.tree.Nodes[idx].Kind = FragmentNode
		p.tree.Nodes[idx].Open = Span{start, p.pos}
		return idx, p.parseChildren(idx, start, "")
	}

	tag := p.readName()
	if tag == "" {
		return 0, p.errorf(p.pos, "expected tag name")
	}
	p.tree.Nodes[idx].Tag = tag

	var attrs []Attr
	for {
		if err := p.skipSpaceAndComments(); err != nil {
			return 0, err
		}
		if p.eof() {
			return 0, p.errorf(start, "unterminated opening tag <%s>", tag)
		}
		c := p.src[p.pos]

		if c == '/' && p.peek(1) == '>' {
			p.pos += 2
			n := &p.tree.Nodes[idx]
			n.Attrs = attrs
			n.SelfClosing = true
			n.Open = Span{start, p.pos}
			n.Content = Span{p.pos, p.pos}
			n.Close = Span{p.pos, p.pos}
			n.Span = Span{start, p.pos}
			return idx, nil
		}
		if c == '>' {
			p.pos++
			break
		}

		attr, err := p.parseAttr(idx, tag)
		if err != nil {
			return 0, err
		}
		attrs = append(attrs, attr)
	}

	p.tree.Nodes[idx].Attrs = attrs
	p.tree.Nodes[idx].Open = Span{start, p.pos}
	return idx, p.parseChildren(idx, start, tag)
}

func (p *parser) parseAttr(owner int, tag string) (Attr, error) {
	start := p.pos

	if p.src[p.pos] == '{' {
		p.pos++
		if _, err := p.scanCode(true, scope{parent: owner}); err != nil {
			return Attr{}, err
		}
		p.pos++
		return Attr{
			Name:  "...",
			Kind:  AttrSpread,
			Span:  Span{start, p.pos},
			Value: Span{start + 1, p.pos - 1},
		}, nil
	}

	name := p.readName()
	if name == "" {
		return Attr{}, p.errorf(p.pos, "unexpected %q in <%s>", p.src[p.pos], tag)
	}
	nameEnd := p.pos
	p.skipSpace()
	if p.peek(0) != '=' {
		p.pos = nameEnd
		return Attr{Name: name, Kind: AttrBool, Span: Span{start, nameEnd}, Value: Span{nameEnd, nameEnd}}, nil
	}
	p.pos++
	p.skipSpace()

	switch c := p.peek(0); c {
	case '"', '\'':
		vs := p.pos + 1
		end := indexByteFrom(p.src, vs, c)
		if end < 0 {
			return Attr{}, p.errorf(p.pos, "unterminated value for attribute %s", name)
		}
		p.pos = end + 1
		p.recordString(Span{vs - 1, p.pos}, Span{vs, end}, c, scope{attr: name})
		return Attr{Name: name, Kind: AttrString, Span: Span{start, p.pos}, Value: Span{vs, end}}, nil

	case '{':
		vs := p.pos + 1
		p.pos++
		p.prev = token{}
		end, err := p.scanCode(true, scope{attr: name, parent: owner})
		if err != nil {
			return Attr{}, err
		}
		p.pos = end + 1
		return Attr{Name: name, Kind: AttrExpr, Span: Span{start, p.pos}, Value: Span{vs, end}}, nil

	case '<':
		child, err := p.parseElement(owner, false)
		if err != nil {
			return Attr{}, err
		}
		return Attr{Name: name, Kind: AttrExpr, Span: Span{start, p.pos}, Value: p.tree.Nodes[child].Span}, nil
	}
	return Attr{}, p.errorf(p.pos, "expected value for attribute %s", name)
}

// parseChildren parses children until the closing tag of tag.
func (p *parser) parseChildren(idx, start int, tag string) error {
	contentStart := p.pos
	for {
		if p.eof() {
			if tag == "" {
				return p.errorf(start, "unterminated fragment")
			}
			return p.errorf(start, "unterminated element <%s>", tag)
		}

		switch c := p.src[p.pos]; {
		case c == '<' && p.peek(1) == '/':
			closeStart := p.pos
			p.pos += 2
			p.skipSpace()
			name := p.readName()
			if name != tag {
				return p.errorf(closeStart, "expected </%s>, found </%s>", tag, name)
			}
			p.skipSpace()
			if p.peek(0) != '>' {
				return p.errorf(p.pos, "expected '>' to close </%s>", tag)
			}
			p.pos++
			n := &p.tree.Nodes[idx]
			n.Content = Span{contentStart, closeStart}
			n.Close = Span{closeStart, p.pos}
			n.Span = Span{start, p.pos}
			return nil

		case c == '<':
			if _, err := p.parseElement(idx, true); err != nil {
				return err
			}

		case c == '{':
			exprStart := p.pos
			e := p.newNode(Node{Kind: ExprNode, Parent: idx})
			p.attach(idx, e, true)
			p.pos++
			p.prev = token{}
			end, err := p.scanCode(true, scope{parent: e, attach: true})
			if err != nil {
				return err
			}
			p.pos = end + 1
			n := &p.tree.Nodes[e]
			n.Span = Span{exprStart, p.pos}
			n.Content = Span{exprStart + 1, end}

		default:
			textStart := p.pos
			for !p.eof() && p.src[p.pos] != '<' && p.src[p.pos] != '{' {
				p.pos++
			}
			t := p.newNode(Node{Kind: TextNode, Parent: idx, Span: Span{textStart, p.pos}})
			p.tree.Nodes[t].Content = p.tree.Nodes[t].Span
			p.attach(idx, t, true)
		}
	}
}

func (p *parser) readName() string {
	start := p.pos
	if p.eof() || !isIdentStart(p.src[p.pos]) {
		return ""
	}
	for !p.eof() && isNamePart(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) skipSpaceAndComments() error {
	for !p.eof() {
		switch {
		case isSpace(p.src[p.pos]):
			p.pos++
		case p.src[p.pos] == '/' && p.peek(1) == '/':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		case p.src[p.pos] == '/' && p.peek(1) == '*':
			end := indexFrom(p.src, p.pos+2, "*/")
			if end < 0 {
				return p.errorf(p.pos, "unterminated comment")
			}
			p.pos = end + 2
		default:
			return nil
		}
	}
	return nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$' || c == '#' || c >= 0x80
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// isNamePart accepts the extra characters allowed in tag and attribute
// names: member access, namespaces and dashes.
func isNamePart(c byte) bool { return isIdentPart(c) || c == '.' || c == ':' || c == '-' }

func indexFrom(src []byte, from int, sub string) int {
	for i := from; i+len(sub) <= len(src); i++ {
		if string(src[i:i+len(sub)]) == sub {
			return i
		}
	}
	return -1
}

func indexByteFrom(src []byte, from int, b byte) int {
	for i := from; i < len(src); i++ {
		if src[i] == b {
			return i
		}
	}
	return -1
}

func hasWordAt(src []byte, i int, word string) bool {
	if i+len(word) > len(src) || string(src[i:i+len(word)]) != word {
		return false
	}
	end := i + len(word)
	return end == len(src) || !isIdentPart(src[end])
}
