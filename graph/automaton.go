// Package graph holds the automaton core: Thompson construction of the NFA
// from rule trees, epsilon and input closures, and the powerset construction
// that produces the DFA the emitters print.
package graph

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/projectdiscovery/gologger"

	"github.com/rehwinkel/spin-lexer/codepoint"
)

// MaxStates bounds both automata to 16-bit state indices so transition keys
// stay packable and emitted tables stay small.
const MaxStates = 1 << 16

var ErrTooManyStates = errors.New("too many automaton states")

// Arc is a labelled transition. Labels index the alphabet 1..N; epsilon
// edges are kept separately.
type Arc struct {
	Label int
	Dst   int
}

// Automaton is an NFA or, after Powerset, a DFA. States are dense indices;
// edges are adjacency lists per source state. Finals maps accepting states
// to rule indices (declaration order, which doubles as priority order).
type Automaton struct {
	Alphabet []codepoint.Range
	Names    []string
	Initial  int
	Finals   map[int]int
	// Trap is the DFA state for the empty NFA subset, -1 before Powerset.
	Trap int

	eps  [][]int
	arcs [][]Arc
}

func newAutomaton(alphabet []codepoint.Range, names []string) *Automaton {
	return &Automaton{
		Alphabet: alphabet,
		Names:    names,
		Finals:   make(map[int]int),
		Trap:     -1,
	}
}

func (a *Automaton) NumStates() int {
	return len(a.arcs)
}

func (a *Automaton) newState() int {
	a.eps = append(a.eps, nil)
	a.arcs = append(a.arcs, nil)
	return len(a.arcs) - 1
}

// connect adds an edge; label 0 is epsilon.
func (a *Automaton) connect(from, to, label int) {
	if label == 0 {
		a.eps[from] = append(a.eps[from], to)
	} else {
		a.arcs[from] = append(a.arcs[from], Arc{Label: label, Dst: to})
	}
}

// Arcs returns the labelled out-edges of state, in insertion order.
func (a *Automaton) Arcs(state int) []Arc {
	return a.arcs[state]
}

// Epsilon returns the epsilon successors of state.
func (a *Automaton) Epsilon(state int) []int {
	return a.eps[state]
}

// stateSet is a bitset over NFA states. Its backing words double as the
// canonical subset key, so equal subsets merge regardless of discovery order.
type stateSet []uint64

func newStateSet(n int) stateSet {
	return make(stateSet, (n+63)/64)
}

func (s stateSet) add(i int) {
	s[i/64] |= 1 << (i % 64)
}

func (s stateSet) has(i int) bool {
	return s[i/64]&(1<<(i%64)) != 0
}

func (s stateSet) empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

func (s stateSet) key() string {
	buf := make([]byte, 0, len(s)*8)
	for _, w := range s {
		for i := 0; i < 8; i++ {
			buf = append(buf, byte(w>>(8*i)))
		}
	}
	return string(buf)
}

func (s stateSet) members() []int {
	var out []int
	for wi, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, wi*64+b)
			w &^= 1 << b
		}
	}
	return out
}

// closure extends s with everything reachable over epsilon edges. Iterative
// depth-first with a visited set; applying it twice is a no-op.
func (a *Automaton) closure(s stateSet) {
	visited := make([]bool, a.NumStates())
	var stack []int
	for _, i := range s.members() {
		stack = append(stack, i)
		visited[i] = true
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, j := range a.eps[i] {
			if !visited[j] {
				visited[j] = true
				s.add(j)
				stack = append(stack, j)
			}
		}
	}
}

// move returns the set of states reachable from s on one input label,
// without the trailing epsilon closure.
func (a *Automaton) move(s stateSet, label int) stateSet {
	t := newStateSet(a.NumStates())
	for _, i := range s.members() {
		for _, e := range a.arcs[i] {
			if e.Label == label {
				t.add(e.Dst)
			}
		}
	}
	return t
}

// EpsilonClosure returns the closure of the given seed states. Exposed for
// tests and diagnostics; Powerset uses the in-place variant.
func (a *Automaton) EpsilonClosure(seed []int) []int {
	s := newStateSet(a.NumStates())
	for _, i := range seed {
		s.add(i)
	}
	a.closure(s)
	return s.members()
}

// Powerset runs the subset construction. The result is deterministic:
// exactly one arc per (state, label), states indexed in discovery order from
// the initial closure, and the empty subset materialised as the trap state.
// Accepting subsets are tagged with the contained rule of highest priority;
// shadowed rules are reported as warnings.
func (a *Automaton) Powerset() (*Automaton, error) {
	d := newAutomaton(a.Alphabet, a.Names)

	var subsets []stateSet
	index := make(map[string]int)
	var todo []int

	intern := func(s stateSet) (int, error) {
		k := s.key()
		if i, ok := index[k]; ok {
			return i, nil
		}
		if len(subsets) >= MaxStates {
			return 0, fmt.Errorf("%w: powerset exceeded %d", ErrTooManyStates, MaxStates)
		}
		i := d.newState()
		subsets = append(subsets, s)
		index[k] = i
		todo = append(todo, i)
		if s.empty() {
			d.Trap = i
		}
		a.tagFinal(d, s, i)
		return i, nil
	}

	drain := func() error {
		for len(todo) > 0 {
			k := todo[len(todo)-1]
			todo = todo[:len(todo)-1]
			s := subsets[k]
			for label := 1; label <= len(a.Alphabet); label++ {
				t := a.move(s, label)
				a.closure(t)
				j, err := intern(t)
				if err != nil {
					return err
				}
				d.connect(k, j, label)
			}
		}
		return nil
	}

	start := newStateSet(a.NumStates())
	start.add(a.Initial)
	a.closure(start)
	initial, err := intern(start)
	if err != nil {
		return nil, err
	}
	d.Initial = initial
	if err := drain(); err != nil {
		return nil, err
	}

	// The trap must exist even when every state's transition function is
	// total: non-accepting dispatch defaults need a destination.
	if d.Trap < 0 {
		if _, err := intern(newStateSet(a.NumStates())); err != nil {
			return nil, err
		}
		if err := drain(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// tagFinal records the accepting rule for DFA state i holding subset s.
// When several rules accept here the earliest declaration wins and the
// losers are reported, non-fatally.
func (a *Automaton) tagFinal(d *Automaton, s stateSet, i int) {
	winner := -1
	var present []int
	for _, m := range s.members() {
		ri, ok := a.Finals[m]
		if !ok {
			continue
		}
		present = append(present, ri)
		if winner < 0 || ri < winner {
			winner = ri
		}
	}
	if winner < 0 {
		return
	}
	d.Finals[i] = winner
	for _, ri := range present {
		if ri != winner {
			gologger.Warning().Msgf("rule %s shadowed by rule %s at state %d",
				a.Names[ri], a.Names[winner], i)
		}
	}
}
