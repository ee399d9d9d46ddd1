package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRules = "KW_IF if\nIDENT [a-z]+\nNUM [0-9]+\n"

func writeRules(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.txt")
	require.NoError(t, os.WriteFile(path, []byte(testRules), 0o644))
	return path
}

func TestRunCppTarget(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	r, err := New(&Options{OutDir: outDir, RulesFile: writeRules(t, dir)})
	require.NoError(t, err)
	require.NoError(t, r.Run())

	header, err := os.ReadFile(filepath.Join(outDir, "tokens.h"))
	require.NoError(t, err)
	require.Contains(t, string(header), "KW_IF")

	source, err := os.ReadFile(filepath.Join(outDir, "lexer.cc"))
	require.NoError(t, err)
	require.Contains(t, string(source), "token lexer::next() {")
}

func TestRunGoTarget(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	r, err := New(&Options{OutDir: outDir, RulesFile: writeRules(t, dir), Target: "go"})
	require.NoError(t, err)
	require.NoError(t, r.Run())

	source, err := os.ReadFile(filepath.Join(outDir, "lexer.go"))
	require.NoError(t, err)
	require.Contains(t, string(source), "func (l *Lexer) Next() Token")

	_, err = os.Stat(filepath.Join(outDir, "tokens.h"))
	require.True(t, os.IsNotExist(err))
}

func TestRunDotDumps(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	r, err := New(&Options{
		OutDir:     filepath.Join(dir, "out"),
		RulesFile:  writeRules(t, dir),
		NfaDotFile: filepath.Join(dir, "nfa.dot"),
		DfaDotFile: filepath.Join(dir, "dfa.dot"),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run())

	nfa, err := os.ReadFile(filepath.Join(dir, "nfa.dot"))
	require.NoError(t, err)
	require.Contains(t, string(nfa), "digraph NFA {")

	dfa, err := os.ReadFile(filepath.Join(dir, "dfa.dot"))
	require.NoError(t, err)
	require.Contains(t, string(dfa), "digraph DFA {")
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := New(&Options{RulesFile: writeRules(t, dir)})
	require.Error(t, err)

	_, err = New(&Options{OutDir: dir})
	require.Error(t, err)

	_, err = New(&Options{OutDir: dir, RulesFile: filepath.Join(dir, "missing.txt")})
	require.Error(t, err)

	_, err = New(&Options{OutDir: dir, RulesFile: writeRules(t, dir), Target: "rust"})
	require.Error(t, err)
}

func TestEmitConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	config := filepath.Join(dir, "emit.yaml")
	require.NoError(t, os.WriteFile(config, []byte("class: scanner\nfunction: scan\n"), 0o644))

	outDir := filepath.Join(dir, "out")
	r, err := New(&Options{OutDir: outDir, RulesFile: writeRules(t, dir), Config: config})
	require.NoError(t, err)
	require.NoError(t, r.Run())

	source, err := os.ReadFile(filepath.Join(outDir, "lexer.cc"))
	require.NoError(t, err)
	require.Contains(t, string(source), "token scanner::scan() {")
}

func TestFlagOverridesConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	config := filepath.Join(dir, "emit.yaml")
	require.NoError(t, os.WriteFile(config, []byte("function: scan\n"), 0o644))

	emit, err := loadEmitOptions(&Options{Config: config, Function: "advance"})
	require.NoError(t, err)
	require.Equal(t, "advance", emit.Function)
	require.Equal(t, "lexer", emit.Class)
}
