package runner

import (
	"os"

	errorutil "github.com/projectdiscovery/utils/errors"
	"gopkg.in/yaml.v3"

	"github.com/rehwinkel/spin-lexer/writer"
)

// loadEmitOptions merges the emitter configuration: the yaml config file
// provides a base, command-line flags override it, and SetDefaults fills the
// rest with the conventional layout.
func loadEmitOptions(options *Options) (writer.Options, error) {
	var emit writer.Options
	if options.Config != "" {
		bin, err := os.ReadFile(options.Config)
		if err != nil {
			return emit, errorutil.NewWithErr(err).Msgf("read config '%s'", options.Config)
		}
		if err := yaml.Unmarshal(bin, &emit); err != nil {
			return emit, errorutil.NewWithErr(err).Msgf("parse config '%s'", options.Config)
		}
	}

	override(&emit.Target, options.Target)
	override(&emit.HeaderFile, options.HeaderFile)
	override(&emit.SourceFile, options.SourceFile)
	override(&emit.Class, options.Class)
	override(&emit.Function, options.Function)
	override(&emit.Include, options.Include)
	override(&emit.Package, options.Package)
	emit.SetDefaults()
	if err := emit.Validate(); err != nil {
		return emit, errorutil.NewWithErr(err).Msgf("emit options")
	}
	return emit, nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
