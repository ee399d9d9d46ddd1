package parser

import (
	"fmt"
	"unicode"

	"github.com/rehwinkel/spin-lexer/ast"
	"github.com/rehwinkel/spin-lexer/codepoint"
)

// Pattern grammar, parsed by recursive descent:
//
//	alt     ::= cat ( '|' cat )*
//	cat     ::= postfix+
//	postfix ::= atom ( '*' | '+' )*
//	atom    ::= literal | escape | class | '(' alt ')'
//	class   ::= '[' '^'? ( item | item '-' item )* ']'
//
// Successive alternatives fold into a single Alt node.
type patternParser struct {
	b    *ast.Builder
	in   []rune
	pos  int
	line int
	base int // 1-based column of the first pattern rune
}

func parsePattern(b *ast.Builder, pattern string, line, base int) (*ast.Node, error) {
	p := &patternParser{b: b, in: []rune(pattern), line: line, base: base}
	node, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		// parseAlt only stops early on an unopened ')'.
		return nil, p.errAt(p.pos, ErrUnmatchedRpar)
	}
	return node, nil
}

func (p *patternParser) errAt(idx int, err error) error {
	return &Error{Line: p.line, Col: p.base + idx, Err: err}
}

func (p *patternParser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *patternParser) peek() rune {
	return p.in[p.pos]
}

func (p *patternParser) peekAt(i int) (rune, bool) {
	if i >= len(p.in) {
		return 0, false
	}
	return p.in[i], true
}

func (p *patternParser) next() rune {
	r := p.in[p.pos]
	p.pos++
	return r
}

func (p *patternParser) parseAlt() (*ast.Node, error) {
	first, err := p.parseCat()
	if err != nil {
		return nil, err
	}
	alts := []*ast.Node{first}
	for !p.eof() && p.peek() == '|' {
		p.next()
		branch, err := p.parseCat()
		if err != nil {
			return nil, err
		}
		alts = append(alts, branch)
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return p.b.Alt(alts...), nil
}

func (p *patternParser) parseCat() (*ast.Node, error) {
	var items []*ast.Node
	for !p.eof() && p.peek() != '|' && p.peek() != ')' {
		item, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, p.errAt(p.pos, ErrEmptyExpression)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return p.b.Cat(items...), nil
}

func (p *patternParser) parsePostfix() (*ast.Node, error) {
	node, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for !p.eof() && (p.peek() == '*' || p.peek() == '+') {
		node = p.b.Rep(node, p.next() == '*')
	}
	return node, nil
}

func (p *patternParser) parseAtom() (*ast.Node, error) {
	switch p.peek() {
	case '*', '+':
		return nil, p.errAt(p.pos, ErrBareClosure)
	case ']':
		return nil, p.errAt(p.pos, ErrUnmatchedRbkt)
	case '(':
		open := p.pos
		p.next()
		node, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		if p.eof() || p.peek() != ')' {
			return nil, p.errAt(open, ErrUnmatchedLpar)
		}
		p.next()
		return node, nil
	case '[':
		return p.parseClass()
	case '\\':
		return p.parseEscape()
	default:
		return p.b.Char(p.next()), nil
	}
}

func (p *patternParser) parseEscape() (*ast.Node, error) {
	at := p.pos
	p.next() // backslash
	if p.eof() {
		return nil, p.errAt(at, ErrUnexpectedEnd)
	}
	switch c := p.next(); c {
	case 'n':
		return p.b.Char('\n'), nil
	case 'r':
		return p.b.Char('\r'), nil
	case 't':
		return p.b.Char('\t'), nil
	case '\\', '+', '*', '[', ']', '(', ')', '|', '^', '-':
		return p.b.Char(c), nil
	case 'u':
		cp, err := p.readHex(at, 4)
		if err != nil {
			return nil, err
		}
		return p.b.Char(cp), nil
	case 'U':
		cp, err := p.readHex(at, 8)
		if err != nil {
			return nil, err
		}
		return p.b.Char(cp), nil
	case 'L':
		return p.b.Set(letterRanges, false), nil
	case 'w':
		return p.b.Set(wordRanges, false), nil
	case 'd':
		return p.b.Set(digitRanges, false), nil
	case 's':
		return p.b.Set(spaceRanges, false), nil
	default:
		return nil, p.errAt(at, fmt.Errorf("%w: \\%c", ErrBadBackslash, c))
	}
}

// readHex consumes n hex digits and validates the resulting code point.
func (p *patternParser) readHex(at, n int) (rune, error) {
	if p.pos+n > len(p.in) {
		return 0, p.errAt(at, ErrUnexpectedEnd)
	}
	var cp int64
	for i := 0; i < n; i++ {
		d := hexDigit(p.next())
		if d < 0 {
			return 0, p.errAt(at, fmt.Errorf("%w: bad hex digit", ErrBadBackslash))
		}
		cp = cp<<4 | int64(d)
	}
	if cp > int64(codepoint.Max) {
		return 0, p.errAt(at, ErrCodePointTooLarge)
	}
	return rune(cp), nil
}

func hexDigit(r rune) int {
	switch {
	case '0' <= r && r <= '9':
		return int(r - '0')
	case 'a' <= r && r <= 'f':
		return int(r-'a') + 10
	case 'A' <= r && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}

func (p *patternParser) parseClass() (*ast.Node, error) {
	open := p.pos
	p.next() // '['
	negate := false
	if !p.eof() && p.peek() == '^' {
		p.next()
		negate = true
	}

	var ranges []codepoint.Range
	for {
		if p.eof() {
			return nil, p.errAt(open, ErrUnmatchedLbkt)
		}
		if p.peek() == ']' {
			p.next()
			return p.b.Set(ranges, negate), nil
		}
		lo, err := p.classAtom(open)
		if err != nil {
			return nil, err
		}
		// `a-b` is an inclusive range unless the '-' closes the set.
		if nxt, ok := p.peekAt(p.pos + 1); !p.eof() && p.peek() == '-' && ok && nxt != ']' {
			at := p.pos
			p.next() // '-'
			hi, err := p.classAtom(open)
			if err != nil {
				return nil, err
			}
			if hi < lo {
				return nil, p.errAt(at, ErrBadRange)
			}
			ranges = append(ranges, codepoint.New(lo, hi+1))
		} else {
			ranges = append(ranges, codepoint.Single(lo))
		}
	}
}

// classAtom reads one code point inside a character set.
func (p *patternParser) classAtom(open int) (rune, error) {
	if p.eof() {
		return 0, p.errAt(open, ErrUnmatchedLbkt)
	}
	if p.peek() != '\\' {
		return p.next(), nil
	}
	at := p.pos
	p.next() // backslash
	if p.eof() {
		return 0, p.errAt(at, ErrUnexpectedEnd)
	}
	switch c := p.next(); c {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case '\\', '+', '*', '[', ']', '(', ')', '|', '^', '-':
		return c, nil
	case 'u':
		return p.readHex(at, 4)
	case 'U':
		return p.readHex(at, 8)
	default:
		return 0, p.errAt(at, fmt.Errorf("%w: \\%c", ErrBadBackslash, c))
	}
}

// Shortcut classes. \w, \d and \s are the ASCII conventions; \L is the
// Unicode letter category, flattened from the unicode.L range tables.
var (
	wordRanges = []codepoint.Range{
		codepoint.New('0', '9'+1),
		codepoint.New('A', 'Z'+1),
		codepoint.Single('_'),
		codepoint.New('a', 'z'+1),
	}
	digitRanges = []codepoint.Range{codepoint.New('0', '9'+1)}
	spaceRanges = []codepoint.Range{
		codepoint.New('\t', '\r'+1),
		codepoint.Single(' '),
	}
	letterRanges = flattenTable(unicode.L)
)

func flattenTable(t *unicode.RangeTable) []codepoint.Range {
	var ranges []codepoint.Range
	push := func(lo, hi, stride rune) {
		if stride == 1 {
			ranges = append(ranges, codepoint.New(lo, hi+1))
			return
		}
		for c := lo; c <= hi; c += stride {
			ranges = append(ranges, codepoint.Single(c))
		}
	}
	for _, r := range t.R16 {
		push(rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	for _, r := range t.R32 {
		push(rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	return mergeAdjacent(ranges)
}

func mergeAdjacent(ranges []codepoint.Range) []codepoint.Range {
	var out []codepoint.Range
	for _, r := range ranges {
		if n := len(out); n > 0 && out[n-1].Hi == r.Lo {
			out[n-1].Hi = r.Hi
		} else {
			out = append(out, r)
		}
	}
	return out
}
