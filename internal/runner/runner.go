// Package runner wires the command line to the compilation pipeline: read
// rules, build the NFA, determinise, and emit the scanner sources.
package runner

import (
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"

	"github.com/rehwinkel/spin-lexer/ast"
	"github.com/rehwinkel/spin-lexer/graph"
	"github.com/rehwinkel/spin-lexer/parser"
	"github.com/rehwinkel/spin-lexer/writer"
)

type Options struct {
	OutDir    string
	RulesFile string
	Config    string

	Target     string
	HeaderFile string
	SourceFile string
	Class      string
	Function   string
	Include    string
	Package    string

	NfaDotFile string
	DfaDotFile string

	Verbose bool
	Silent  bool
}

func ParseFlags() *Options {
	opts := &Options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Compiles a file of named token rules into a DFA lexer.

usage: spinlex [flags] <out_dir> <rules_path>`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.RulesFile, "rules", "r", "", "rules file to compile"),
		flagSet.StringVar(&opts.Config, "config", "", "emitter config file (yaml)"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.OutDir, "out", "o", "", "directory to write generated files into"),
		flagSet.StringVarP(&opts.Target, "target", "t", "", "emit target (cpp, go) (default cpp)"),
		flagSet.StringVar(&opts.HeaderFile, "header", "", "token header file name (default tokens.h)"),
		flagSet.StringVar(&opts.SourceFile, "source", "", "scanner source file name (default lexer.cc)"),
		flagSet.StringVar(&opts.Class, "class", "", "scanner class the emitted method belongs to (default lexer)"),
		flagSet.StringVar(&opts.Function, "function", "", "emitted scanner method name (default next)"),
		flagSet.StringVar(&opts.Include, "include", "", "header the emitted source includes (default lexer.hh)"),
		flagSet.StringVar(&opts.Package, "package", "", "package name for the go target (default lexer)"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.StringVar(&opts.NfaDotFile, "nfadot", "", "write the NFA graph in DOT format"),
		flagSet.StringVar(&opts.DfaDotFile, "dfadot", "", "write the DFA graph in DOT format"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "display errors only"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("could not read flags: %s", err)
	}

	if opts.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	} else if opts.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}

	// The positional contract: spinlex <out_dir> <rules_path>. goflags is
	// built on the standard flag package, so leftovers land in flag.Args.
	args := flag.Args()
	if opts.OutDir == "" && len(args) > 0 {
		opts.OutDir = args[0]
		args = args[1:]
	}
	if opts.RulesFile == "" && len(args) > 0 {
		opts.RulesFile = args[0]
	}
	return opts
}

type Runner struct {
	options *Options
	emit    writer.Options
}

func New(options *Options) (*Runner, error) {
	if options.OutDir == "" {
		return nil, errorutil.New("no output directory given")
	}
	if options.RulesFile == "" {
		return nil, errorutil.New("no rules file given")
	}
	if !fileutil.FileExists(options.RulesFile) {
		return nil, errorutil.New("rules file '%s' does not exist", options.RulesFile)
	}

	emit, err := loadEmitOptions(options)
	if err != nil {
		return nil, err
	}
	return &Runner{options: options, emit: emit}, nil
}

func (r *Runner) Run() error {
	gologger.Info().Msgf("generating lexer in '%s' from rules at '%s'",
		r.options.OutDir, r.options.RulesFile)

	b := ast.NewBuilder()
	rules, err := r.readRules(b)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		gologger.Verbose().Msgf("%s: %s", rule.Name, rule.Root)
	}

	nfa, err := graph.BuildNfa(rules, b)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("build NFA")
	}
	gologger.Verbose().Msgf("NFA: %d states over %d alphabet ranges",
		nfa.NumStates(), len(nfa.Alphabet))
	if err := r.writeDot(r.options.NfaDotFile, nfa, "NFA"); err != nil {
		return err
	}

	dfa, err := nfa.Powerset()
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("determinise")
	}
	gologger.Verbose().Msgf("DFA: %d states, %d accepting, trap %d",
		dfa.NumStates(), len(dfa.Finals), dfa.Trap)
	if err := r.writeDot(r.options.DfaDotFile, dfa, "DFA"); err != nil {
		return err
	}

	if err := os.MkdirAll(r.options.OutDir, 0o755); err != nil {
		return errorutil.NewWithErr(err).Msgf("create output directory")
	}
	return r.emitFiles(dfa)
}

func (r *Runner) readRules(b *ast.Builder) ([]parser.Rule, error) {
	f, err := os.Open(r.options.RulesFile)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("open rules")
	}
	defer func() {
		_ = f.Close()
	}()

	rules, err := parser.ReadRules(f, b)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("parse rules '%s'", r.options.RulesFile)
	}
	return rules, nil
}

func (r *Runner) emitFiles(dfa *graph.Automaton) error {
	if r.emit.Target == writer.TargetGo {
		code, err := writer.DumpGoLexer(dfa, &r.emit)
		if err != nil {
			return errorutil.NewWithErr(err).Msgf("emit go lexer")
		}
		return r.writeFile(r.emit.SourceFile, func(w io.Writer) error {
			_, err := w.Write(code)
			return err
		})
	}

	if err := r.writeFile(r.emit.HeaderFile, func(w io.Writer) error {
		return writer.WriteTokens(w, dfa)
	}); err != nil {
		return err
	}
	return r.writeFile(r.emit.SourceFile, func(w io.Writer) error {
		return writer.WriteLexer(w, dfa, &r.emit)
	})
}

// writeFile creates name under the output directory. A failed close is an
// error like any other write failure.
func (r *Runner) writeFile(name string, fill func(io.Writer) error) error {
	path := filepath.Join(r.options.OutDir, name)
	f, err := os.Create(path)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("create '%s'", path)
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		return errorutil.NewWithErr(err).Msgf("write '%s'", path)
	}
	if err := f.Close(); err != nil {
		return errorutil.NewWithErr(err).Msgf("close '%s'", path)
	}
	gologger.Info().Msgf("wrote %s", path)
	return nil
}

func (r *Runner) writeDot(path string, a *graph.Automaton, id string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("create '%s'", path)
	}
	graph.WriteDotGraph(f, a, id)
	if err := f.Close(); err != nil {
		return errorutil.NewWithErr(err).Msgf("close '%s'", path)
	}
	return nil
}
