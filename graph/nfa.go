package graph

import (
	"fmt"

	"github.com/rehwinkel/spin-lexer/ast"
	"github.com/rehwinkel/spin-lexer/codepoint"
	"github.com/rehwinkel/spin-lexer/parser"
)

// BuildNfa lowers the rule trees into one NFA by Thompson construction.
//
// The alphabet is not all of Unicode: every range endpoint mentioned by any
// rule becomes a boundary, and the partition of the code-point space over
// those boundaries is the input alphabet. Each set then covers a contiguous
// run of partition indices, so a transition per index is exact.
//
// The rule roots are combined under one synthetic alternation in declaration
// order; each root's end state is recorded as that rule's accepting state.
func BuildNfa(rules []parser.Rule, b *ast.Builder) (*Automaton, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules")
	}
	names := make([]string, len(rules))
	order := make(map[string]int, len(rules))
	roots := make([]*ast.Node, len(rules))
	for i, r := range rules {
		names[i] = r.Name
		order[r.Name] = i
		roots[i] = r.Root
	}
	root := b.Alt(roots...)

	var bounds []rune
	bounds = ast.Boundaries(root, bounds)
	alphabet := codepoint.Partition(bounds)

	nb := &nfaBuilder{
		a:     newAutomaton(alphabet, names),
		b:     b,
		order: order,
	}
	top, err := nb.build(root)
	if err != nil {
		return nil, err
	}
	nb.a.Initial = top.start
	if n := nb.a.NumStates(); n > MaxStates {
		return nil, fmt.Errorf("%w: NFA needs %d", ErrTooManyStates, n)
	}
	return nb.a, nil
}

type nfaBuilder struct {
	a     *Automaton
	b     *ast.Builder
	order map[string]int
}

// part is the (start, end) state pair of a built subexpression: every word
// of the subexpression is a path from start to end.
type part struct {
	start, end int
}

func (nb *nfaBuilder) build(n *ast.Node) (part, error) {
	var p part
	switch n.Op {
	case ast.OpSet:
		var err error
		if p, err = nb.buildSet(n); err != nil {
			return part{}, err
		}
	case ast.OpCat:
		prev := part{start: -1}
		for _, c := range n.Sub {
			cp, err := nb.build(c)
			if err != nil {
				return part{}, err
			}
			if prev.start < 0 {
				prev = cp
			} else {
				nb.a.connect(prev.end, cp.start, 0)
				prev.end = cp.end
			}
		}
		p = prev
	case ast.OpAlt:
		p.start = nb.a.newState()
		var parts []part
		for _, c := range n.Sub {
			cp, err := nb.build(c)
			if err != nil {
				return part{}, err
			}
			parts = append(parts, cp)
		}
		p.end = nb.a.newState()
		for _, cp := range parts {
			nb.a.connect(p.start, cp.start, 0)
			nb.a.connect(cp.end, p.end, 0)
		}
	case ast.OpRep:
		p.start = nb.a.newState()
		cp, err := nb.build(n.Sub[0])
		if err != nil {
			return part{}, err
		}
		p.end = nb.a.newState()
		if n.AcceptEmpty {
			nb.a.connect(p.start, p.end, 0)
		}
		nb.a.connect(p.start, cp.start, 0)
		nb.a.connect(cp.end, p.end, 0)
		nb.a.connect(cp.end, cp.start, 0)
	}

	if name, ok := nb.b.NameOf(n.ID); ok {
		nb.a.Finals[p.end] = nb.order[name]
	}
	return p, nil
}

func (nb *nfaBuilder) buildSet(n *ast.Node) (part, error) {
	s := nb.a.newState()
	t := nb.a.newState()

	covered := make([]bool, len(nb.a.Alphabet)+1)
	for _, r := range n.Ranges {
		lo, hi, err := codepoint.Span(nb.a.Alphabet, r)
		if err != nil {
			return part{}, err
		}
		for i := lo; i <= hi; i++ {
			covered[i+1] = true
		}
	}
	for label := 1; label <= len(nb.a.Alphabet); label++ {
		if covered[label] != n.Negate {
			nb.a.connect(s, t, label)
		}
	}
	return part{start: s, end: t}, nil
}
