package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/projectdiscovery/fasttemplate"

	"github.com/rehwinkel/spin-lexer/graph"
)

// endOfStream is the sentinel the host stream returns at end of input.
const endOfStream = "0xffffffffu"

const headerTemplate = `// Generated by spinlex --- DO NOT EDIT.
#pragma once

enum token {
{{members}}};
`

const sourceTemplate = `// Generated by spinlex --- DO NOT EDIT.
#include <{{include}}>

token {{class}}::{{function}}() {
    uint16_t state = {{initial}};
    this->m_tk_start = this->stream.pos();
    for (;;) {
        uint32_t n = this->stream.get();
        switch (state) {
{{dispatch}}        default:
            return token::ERROR;
        }
    }
}
`

// WriteTokens emits the token enumeration: ERROR first, then every rule in
// declaration order.
func WriteTokens(w io.Writer, dfa *graph.Automaton) error {
	var members bytes.Buffer
	members.WriteString("    ERROR,\n")
	for _, name := range dfa.Names {
		fmt.Fprintf(&members, "    %s,\n", name)
	}
	out := fasttemplate.ExecuteStringStd(headerTemplate, "{{", "}}", map[string]interface{}{
		"members": members.String(),
	})
	_, err := io.WriteString(w, out)
	return err
}

// WriteLexer emits the scanner dispatch. One outer case per non-trap state;
// inner cases are the state's transitions as code-point ranges. An accepting
// state's default path un-reads the lookahead and returns its token, so a
// token is only produced once no longer match is possible. Non-accepting
// states fail fast on end of input; the trap collapses into the outer
// default.
func WriteLexer(w io.Writer, dfa *graph.Automaton, o *Options) error {
	cw := &cppWriter{dfa: dfa}
	for state := 0; state < dfa.NumStates(); state++ {
		if state == dfa.Trap {
			continue
		}
		cw.writeState(state)
	}

	out := fasttemplate.ExecuteStringStd(sourceTemplate, "{{", "}}", map[string]interface{}{
		"include":  o.Include,
		"class":    o.Class,
		"function": o.Function,
		"initial":  fmt.Sprint(dfa.Initial),
		"dispatch": cw.buf.String(),
	})
	_, err := io.WriteString(w, out)
	return err
}

type cppWriter struct {
	dfa *graph.Automaton
	buf bytes.Buffer
}

func (cw *cppWriter) writef(format string, a ...any) {
	fmt.Fprintf(&cw.buf, format, a...)
}

func (cw *cppWriter) writeState(state int) {
	dfa := cw.dfa
	rule, accepting := dfa.Finals[state]

	cw.writef("        case %d:\n", state)
	cw.writef("            switch (n) {\n")
	for _, e := range dfa.Arcs(state) {
		if e.Dst == dfa.Trap {
			continue
		}
		r := dfa.Alphabet[e.Label-1]
		if r.Width() == 1 {
			cw.writef("            case 0x%x:\n", r.Lo)
		} else {
			cw.writef("            case 0x%x ... 0x%x:\n", r.Lo, r.Hi-1)
		}
		cw.writef("                state = %d;\n", e.Dst)
		cw.writef("                break;\n")
	}
	if accepting {
		cw.writef("            default:\n")
		cw.writef("                this->stream.back();\n")
		cw.writef("                this->m_tk_length = this->stream.pos() - this->m_tk_start;\n")
		cw.writef("                return token::%s;\n", dfa.Names[rule])
	} else {
		cw.writef("            case %s:\n", endOfStream)
		cw.writef("                return token::ERROR;\n")
		cw.writef("            default:\n")
		cw.writef("                state = %d;\n", dfa.Trap)
		cw.writef("                break;\n")
	}
	cw.writef("            }\n")
	cw.writef("            break;\n")
}
