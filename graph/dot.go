package graph

import (
	"fmt"
	"io"
)

// WriteDotGraph prints the automaton in DOT format.
//
//	$ dot -Tps input.dot -o output.ps
//
// Epsilon edges are dashed; accepting states are filled green and labelled
// with their rule name. DFA edges into the trap are omitted to keep the
// graph readable.
func WriteDotGraph(out io.Writer, a *Automaton, id string) {
	_, _ = fmt.Fprintf(out, "digraph %v {\n  rankdir=LR;\n  %d[shape=box];\n", id, a.Initial)
	for i := 0; i < a.NumStates(); i++ {
		if i == a.Trap {
			continue
		}
		if ri, ok := a.Finals[i]; ok {
			_, _ = fmt.Fprintf(out, "  %d[style=filled,color=green,label=\"%d %s\"];\n", i, i, a.Names[ri])
		}
		for _, j := range a.Epsilon(i) {
			_, _ = fmt.Fprintf(out, "  %d -> %d[style=dashed];\n", i, j)
		}
		for _, e := range a.Arcs(i) {
			if e.Dst == a.Trap {
				continue
			}
			_, _ = fmt.Fprintf(out, "  %d -> %d[label=%q];\n", i, e.Dst, a.Alphabet[e.Label-1].String())
		}
	}
	_, _ = fmt.Fprintln(out, "}")
}
