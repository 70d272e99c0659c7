package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replconsole/internal/config"
	"replconsole/internal/evaluator"
	"replconsole/internal/history"
)

type cliRun struct {
	dir string
	out bytes.Buffer
}

func newCLIRun(t *testing.T) *cliRun {
	t.Helper()
	t.Setenv(config.EnvEvaluator, "")
	return &cliRun{dir: t.TempDir()}
}

func (r *cliRun) execute(stdin string, args ...string) error {
	root := newRootCmd()
	root.SetOut(&r.out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	base := []string{
		"--config", filepath.Join(r.dir, "config.toml"),
		"--log-file", filepath.Join(r.dir, "logs", "replconsole.log"),
		"-c", "history_file=" + filepath.Join(r.dir, "history.jsonl"),
	}
	root.SetArgs(append(append([]string{}, args...), base...))
	return root.Execute()
}

func TestExecEvaluatesArguments(t *testing.T) {
	r := newCLIRun(t)
	require.NoError(t, r.execute("", "exec", "(+", "1", "2)"))
	assert.Equal(t, "⇒ 3\n", r.out.String())
}

func TestExecReadsStdin(t *testing.T) {
	r := newCLIRun(t)
	require.NoError(t, r.execute("(+ 1 2)\n(println \"hi\")\n(* 2 3)\n", "exec"))
	assert.Equal(t, "⇒ 3\nhi\n⇒ 6\n", r.out.String())
}

func TestExecEcho(t *testing.T) {
	r := newCLIRun(t)
	require.NoError(t, r.execute("", "exec", "--echo", "(+ 1 2)"))
	assert.Equal(t, "› (+ 1 2)\n⇒ 3\n", r.out.String())
}

func TestExecFailureExitsNonZero(t *testing.T) {
	r := newCLIRun(t)
	err := r.execute("", "exec", "x")
	require.ErrorIs(t, err, errEvaluationFailed)
	assert.Equal(t, "! unbound symbol: x\n", r.out.String())
}

func TestUnknownEvaluatorIsAnError(t *testing.T) {
	r := newCLIRun(t)
	err := r.execute("", "exec", "--evaluator", "cobol", "1")
	require.ErrorIs(t, err, evaluator.ErrUnknownKind)
}

func TestOverridesApplyToSession(t *testing.T) {
	r := newCLIRun(t)
	err := r.execute("", "exec", "-c", "evaluator=cobol", "1")
	require.ErrorIs(t, err, evaluator.ErrUnknownKind)
}

func TestConversationLogIsWritten(t *testing.T) {
	r := newCLIRun(t)
	require.NoError(t, r.execute("", "exec", "(+ 1 2)"))

	data, err := os.ReadFile(filepath.Join(r.dir, "logs", "conversation.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[kind=prompt] (+ 1 2)")
	assert.Contains(t, string(data), "[kind=result] 3")
}

func TestCommandsArePersistedToHistory(t *testing.T) {
	r := newCLIRun(t)
	require.NoError(t, r.execute("(+ 1 2)\n\n(* 2 3)\n", "exec"))

	f, err := history.OpenFile(filepath.Join(r.dir, "history.jsonl"))
	require.NoError(t, err)
	texts, err := f.LoadTexts(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"(+ 1 2)", "(* 2 3)"}, texts)
}

func TestOutputBurstDoesNotLoseLaterCommands(t *testing.T) {
	r := newCLIRun(t)
	stdin := "(range (i (0 3000)) (println \"{i}\"))\n(+ 1 2)\n"
	require.NoError(t, r.execute(stdin, "exec"))

	f, err := history.OpenFile(filepath.Join(r.dir, "history.jsonl"))
	require.NoError(t, err)
	texts, err := f.LoadTexts(0)
	require.NoError(t, err)
	assert.Equal(t, []string{`(range (i (0 3000)) (println "{i}"))`, "(+ 1 2)"}, texts)

	data, err := os.ReadFile(filepath.Join(r.dir, "logs", "conversation.log"))
	require.NoError(t, err)
	conv := string(data)
	assert.Contains(t, conv, "[kind=prompt] (+ 1 2)")
	assert.Contains(t, conv, "[kind=result] 3")
	assert.Contains(t, conv, "2999")
}

func TestRootFallsBackToLineModeWithoutTerminal(t *testing.T) {
	orig := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	r := newCLIRun(t)
	root := newRootCmd()
	root.SetOut(&r.out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("(+ 1 2)\n"))
	root.SetArgs([]string{
		"--config", filepath.Join(r.dir, "config.toml"),
		"--log-file", filepath.Join(r.dir, "replconsole.log"),
		"-c", "history_file=" + filepath.Join(r.dir, "history.jsonl"),
	})
	require.NoError(t, root.Execute())
	assert.Equal(t, "› (+ 1 2)\n⇒ 3\n", r.out.String())
}

func TestConfigInitAndShow(t *testing.T) {
	r := newCLIRun(t)
	path := filepath.Join(r.dir, "config.toml")

	require.NoError(t, r.execute("", "config", "init", "--evaluator", "shell"))
	assert.Equal(t, "wrote "+path+"\n", r.out.String())
	require.Error(t, r.execute("", "config", "init"), "refuses to overwrite")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shell", cfg.Evaluator)

	r.out.Reset()
	require.NoError(t, r.execute("", "config", "show"))
	assert.Contains(t, r.out.String(), "evaluator")
	assert.Contains(t, r.out.String(), "shell")
}
