package writer

import (
	"bytes"
	"go/format"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/rehwinkel/spin-lexer/graph"
)

// DumpGoLexer renders the DFA as a self-contained Go lexer: a Token type
// with one constant per rule, a Lexer over a rune buffer, and a Next method
// carrying the same dispatch as the C++ backend.
func DumpGoLexer(dfa *graph.Automaton, o *Options) ([]byte, error) {
	f := jen.NewFile(o.Package)
	f.HeaderComment("Code generated by spinlex. DO NOT EDIT.")

	f.Comment("Token is the kind of a scanned token.")
	f.Type().Id("Token").Int()

	constDefs := []jen.Code{jen.Id("TokenError").Id("Token").Op("=").Iota()}
	for _, name := range dfa.Names {
		constDefs = append(constDefs, jen.Id(goTokenName(name)))
	}
	f.Const().Defs(constDefs...)

	nameLits := []jen.Code{jen.Lit("ERROR")}
	for _, name := range dfa.Names {
		nameLits = append(nameLits, jen.Lit(name))
	}
	f.Var().Id("tokenNames").Op("=").Index().String().Values(nameLits...)

	f.Func().Params(jen.Id("t").Id("Token")).Id("String").Params().String().Block(
		jen.If(jen.Id("t").Op("<").Lit(0).Op("||").Id("int").Call(jen.Id("t")).Op(">=").Len(jen.Id("tokenNames"))).Block(
			jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit("token(%d)"), jen.Id("int").Call(jen.Id("t")))),
		),
		jen.Return(jen.Id("tokenNames").Index(jen.Id("t"))),
	)

	f.Const().Id("eof").Id("rune").Op("=").Lit(-1)

	f.Comment("Lexer scans a rune buffer into tokens, longest match first.")
	f.Type().Id("Lexer").Struct(
		jen.Id("input").Index().Id("rune"),
		jen.Id("pos").Id("int"),
		jen.Id("start").Id("int"),
		jen.Id("length").Id("int"),
	)

	f.Func().Id("NewLexer").Params(jen.Id("input").String()).Op("*").Id("Lexer").Block(
		jen.Return(jen.Op("&").Id("Lexer").Values(jen.Dict{
			jen.Id("input"): jen.Index().Id("rune").Call(jen.Id("input")),
		})),
	)

	// read advances past the end so that the matching unread stays symmetric.
	f.Func().Params(jen.Id("l").Op("*").Id("Lexer")).Id("read").Params().Id("rune").Block(
		jen.If(jen.Id("l").Dot("pos").Op(">=").Len(jen.Id("l").Dot("input"))).Block(
			jen.Id("l").Dot("pos").Op("++"),
			jen.Return(jen.Id("eof")),
		),
		jen.Id("r").Op(":=").Id("l").Dot("input").Index(jen.Id("l").Dot("pos")),
		jen.Id("l").Dot("pos").Op("++"),
		jen.Return(jen.Id("r")),
	)

	f.Func().Params(jen.Id("l").Op("*").Id("Lexer")).Id("unread").Params().Block(
		jen.Id("l").Dot("pos").Op("--"),
	)

	f.Comment("Text returns the text of the last token Next returned.")
	f.Func().Params(jen.Id("l").Op("*").Id("Lexer")).Id("Text").Params().String().Block(
		jen.Return(jen.String().Call(
			jen.Id("l").Dot("input").Index(jen.Id("l").Dot("start").Op(":").Id("l").Dot("start").Op("+").Id("l").Dot("length")),
		)),
	)

	f.Func().Params(jen.Id("l").Op("*").Id("Lexer")).Id("Start").Params().Int().Block(
		jen.Return(jen.Id("l").Dot("start")),
	)

	f.Func().Params(jen.Id("l").Op("*").Id("Lexer")).Id("Len").Params().Int().Block(
		jen.Return(jen.Id("l").Dot("length")),
	)

	f.Func().Params(jen.Id("l").Op("*").Id("Lexer")).Id("Next").Params().Id("Token").Block(
		jen.Id("state").Op(":=").Lit(dfa.Initial),
		jen.Id("l").Dot("start").Op("=").Id("l").Dot("pos"),
		jen.Id("l").Dot("length").Op("=").Lit(0),
		jen.For().Block(
			jen.Id("n").Op(":=").Id("l").Dot("read").Call(),
			jen.Switch(jen.Id("state")).Block(goDispatch(dfa)...),
		),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return formatGo(buf.Bytes())
}

func goDispatch(dfa *graph.Automaton) []jen.Code {
	var cases []jen.Code
	for state := 0; state < dfa.NumStates(); state++ {
		if state == dfa.Trap {
			continue
		}
		cases = append(cases, jen.Case(jen.Lit(state)).Block(
			jen.Switch().Block(goStateCases(dfa, state)...),
		))
	}
	cases = append(cases, jen.Default().Block(jen.Return(jen.Id("TokenError"))))
	return cases
}

func goStateCases(dfa *graph.Automaton, state int) []jen.Code {
	rule, accepting := dfa.Finals[state]

	var cases []jen.Code
	for _, e := range dfa.Arcs(state) {
		if e.Dst == dfa.Trap {
			continue
		}
		r := dfa.Alphabet[e.Label-1]
		var cond *jen.Statement
		if r.Width() == 1 {
			cond = jen.Id("n").Op("==").LitRune(r.Lo)
		} else {
			cond = jen.Id("n").Op(">=").LitRune(r.Lo).Op("&&").Id("n").Op("<=").LitRune(r.Hi - 1)
		}
		cases = append(cases, jen.Case(cond).Block(
			jen.Id("state").Op("=").Lit(e.Dst),
		))
	}
	if accepting {
		cases = append(cases, jen.Default().Block(
			jen.Id("l").Dot("unread").Call(),
			jen.Id("l").Dot("length").Op("=").Id("l").Dot("pos").Op("-").Id("l").Dot("start"),
			jen.Return(jen.Id(goTokenName(dfa.Names[rule]))),
		))
	} else {
		cases = append(cases,
			jen.Case(jen.Id("n").Op("==").Id("eof")).Block(
				jen.Return(jen.Id("TokenError")),
			),
			jen.Default().Block(
				jen.Id("state").Op("=").Lit(dfa.Trap),
			),
		)
	}
	return cases
}

// goTokenName maps a rule name to its exported constant: KW_IF -> TokenKwIf.
func goTokenName(name string) string {
	var sb strings.Builder
	sb.WriteString("Token")
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		sb.WriteString(part[:1])
		sb.WriteString(strings.ToLower(part[1:]))
	}
	return sb.String()
}

func formatGo(src []byte) ([]byte, error) {
	src, err := format.Source(src)
	if err != nil {
		return src, err
	}
	return imports.Process("lexer.go", src, &imports.Options{
		TabWidth:  8,
		TabIndent: true,
		Comments:  true,
		Fragment:  true,
	})
}
