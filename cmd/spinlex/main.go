package main

import (
	"github.com/projectdiscovery/gologger"

	"github.com/rehwinkel/spin-lexer/internal/runner"
)

func main() {
	opts := runner.ParseFlags()

	r, err := runner.New(opts)
	if err != nil {
		gologger.Fatal().Msgf("could not create runner: %s", err)
	}
	if err := r.Run(); err != nil {
		gologger.Fatal().Msgf("could not generate lexer: %s", err)
	}
}
