// Package writer prints a tagged DFA as scanner source code. The default
// backend emits a C++ token enumeration plus the dispatch body of the
// scanner's next() method; an alternative backend emits a self-contained Go
// lexer for the same automaton.
package writer

import "fmt"

const (
	TargetCpp = "cpp"
	TargetGo  = "go"
)

// Options parameterise the emitted skeleton. The zero value plus
// SetDefaults yields the conventional layout: tokens.h and lexer.cc with a
// `token lexer::next()` dispatch.
type Options struct {
	Target     string `yaml:"target"`
	HeaderFile string `yaml:"header"`
	SourceFile string `yaml:"source"`
	Class      string `yaml:"class"`
	Function   string `yaml:"function"`
	Include    string `yaml:"include"`
	Package    string `yaml:"package"`
}

func (o *Options) SetDefaults() {
	if o.Target == "" {
		o.Target = TargetCpp
	}
	if o.HeaderFile == "" {
		o.HeaderFile = "tokens.h"
	}
	if o.SourceFile == "" {
		if o.Target == TargetGo {
			o.SourceFile = "lexer.go"
		} else {
			o.SourceFile = "lexer.cc"
		}
	}
	if o.Class == "" {
		o.Class = "lexer"
	}
	if o.Function == "" {
		o.Function = "next"
	}
	if o.Include == "" {
		o.Include = "lexer.hh"
	}
	if o.Package == "" {
		o.Package = "lexer"
	}
}

func (o *Options) Validate() error {
	if o.Target != TargetCpp && o.Target != TargetGo {
		return fmt.Errorf("unknown target %q (must be %q or %q)", o.Target, TargetCpp, TargetGo)
	}
	return nil
}
