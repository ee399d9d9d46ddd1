package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scanOne interprets the DFA with the same dispatch the emitters print: walk
// transitions, and once the lookahead leads only to the trap, return the
// current state's token if it is accepting, un-consuming the lookahead, and
// fail otherwise; there is no backtracking to an earlier accepting state. It
// scans a single token from the start of input.
func scanOne(dfa *Automaton, input string) (name string, length int, ok bool) {
	runes := []rune(input)
	state := dfa.Initial
	pos := 0
	for {
		if state == dfa.Trap {
			return "", 0, false
		}

		var n rune = -1
		if pos < len(runes) {
			n = runes[pos]
		}
		pos++

		dst := -1
		if n >= 0 {
			for _, e := range dfa.Arcs(state) {
				if dfa.Alphabet[e.Label-1].Contains(n) {
					dst = e.Dst
					break
				}
			}
		}
		if dst >= 0 && dst != dfa.Trap {
			state = dst
			continue
		}

		if rule, accepting := dfa.Finals[state]; accepting {
			pos--
			return dfa.Names[rule], pos, true
		}
		if n < 0 {
			return "", 0, false
		}
		state = dfa.Trap
	}
}

// scanAll tokenises greedily until error or end of input.
func scanAll(dfa *Automaton, input string) []string {
	runes := []rune(input)
	var out []string
	for len(runes) > 0 {
		name, length, ok := scanOne(dfa, string(runes))
		if !ok || length == 0 {
			break
		}
		out = append(out, name)
		runes = runes[length:]
	}
	return out
}

func TestThompsonShape(t *testing.T) {
	t.Parallel()
	nfa := buildNfa(t, "A a(b|c)*d\n")

	// Exactly one state may accept per rule, and the initial state must not.
	require.Len(t, nfa.Finals, 1)
	_, ok := nfa.Finals[nfa.Initial]
	require.False(t, ok)

	// No state needs more than one incoming labelled arc source per label in
	// a Thompson machine built over set nodes: each set owns its start/end.
	incoming := make(map[int]int)
	for s := 0; s < nfa.NumStates(); s++ {
		for _, e := range nfa.Arcs(s) {
			incoming[e.Dst]++
		}
	}
	for dst, count := range incoming {
		labels := make(map[int]bool)
		for s := 0; s < nfa.NumStates(); s++ {
			for _, e := range nfa.Arcs(s) {
				if e.Dst == dst {
					labels[e.Label] = true
				}
			}
		}
		require.Equal(t, count, len(labels), "state %d has parallel arcs", dst)
	}
}

func TestSingleLiteral(t *testing.T) {
	t.Parallel()
	dfa := compile(t, "KW_IF if\n")

	name, length, ok := scanOne(dfa, "if")
	require.True(t, ok)
	require.Equal(t, "KW_IF", name)
	require.Equal(t, 2, length)

	_, _, ok = scanOne(dfa, "ix")
	require.False(t, ok)
}

func TestPrefixOverlap(t *testing.T) {
	t.Parallel()
	dfa := compile(t, "KW_IF if\nIDENT [a-z]+\n")

	name, length, ok := scanOne(dfa, "if")
	require.True(t, ok)
	require.Equal(t, "KW_IF", name)
	require.Equal(t, 2, length)

	// Longer match wins over the earlier rule.
	name, length, ok = scanOne(dfa, "ifs")
	require.True(t, ok)
	require.Equal(t, "IDENT", name)
	require.Equal(t, 3, length)

	// The scanner stops at the space.
	name, length, ok = scanOne(dfa, "if ")
	require.True(t, ok)
	require.Equal(t, "KW_IF", name)
	require.Equal(t, 2, length)
}

func TestStarAndPlus(t *testing.T) {
	t.Parallel()
	dfa := compile(t, "NUM [0-9]+\nWS [ \\t]*\n")

	name, length, ok := scanOne(dfa, "42")
	require.True(t, ok)
	require.Equal(t, "NUM", name)
	require.Equal(t, 2, length)

	name, length, ok = scanOne(dfa, "  ")
	require.True(t, ok)
	require.Equal(t, "WS", name)
	require.Equal(t, 2, length)

	// Empty input: the star rule accepts the empty prefix.
	name, length, ok = scanOne(dfa, "")
	require.True(t, ok)
	require.Equal(t, "WS", name)
	require.Equal(t, 0, length)
}

func TestUnicodeEscape(t *testing.T) {
	t.Parallel()
	dfa := compile(t, "LAMBDA \\u03BB\n")

	name, length, ok := scanOne(dfa, "λ")
	require.True(t, ok)
	require.Equal(t, "LAMBDA", name)
	require.Equal(t, 1, length)
}

func TestNegatedSet(t *testing.T) {
	t.Parallel()
	dfa := compile(t, "STRING \"[^\"]*\"\n")

	name, length, ok := scanOne(dfa, `"abc"`)
	require.True(t, ok)
	require.Equal(t, "STRING", name)
	require.Equal(t, 5, length)

	// Unterminated: end of input in a non-accepting state.
	_, _, ok = scanOne(dfa, `"ab`)
	require.False(t, ok)
}

func TestLetterClass(t *testing.T) {
	t.Parallel()
	dfa := compile(t, "WORD \\L+\n")

	name, length, ok := scanOne(dfa, "héllo")
	require.True(t, ok)
	require.Equal(t, "WORD", name)
	require.Equal(t, 5, length)

	_, _, ok = scanOne(dfa, "42")
	require.False(t, ok)
}

func TestScanSequence(t *testing.T) {
	t.Parallel()
	dfa := compile(t, "KW_IF if\nIDENT [a-z]+\nNUM [0-9]+\nWS [ \\t]+\n")
	require.Equal(t,
		[]string{"KW_IF", "WS", "IDENT", "WS", "NUM"},
		scanAll(dfa, "if foo 123"))
}

func TestAlphabetOrdering(t *testing.T) {
	t.Parallel()
	nfa := buildNfa(t, "A [a-z]\nB [0-9]\n")
	for i := 1; i < len(nfa.Alphabet); i++ {
		require.Less(t, nfa.Alphabet[i-1].Lo, nfa.Alphabet[i].Lo)
	}
}
