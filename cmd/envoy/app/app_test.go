package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCommandsFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.json"), []byte(`{"GREETING":"hello"}`), 0644))
	commands := `{
		"hello": {
			"environment": ["base.json"],
			"alias": ["echo", "hi"],
			"description": "says hello"
		}
	}`
	commandsPath := filepath.Join(dir, "commands.json")
	require.NoError(t, os.WriteFile(commandsPath, []byte(commands), 0644))
	return commandsPath
}

func runCLI(t *testing.T, commandsPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewEnvoyCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--commands", commandsPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestList_PrintsCommandNames(t *testing.T) {
	commandsPath := writeCommandsFixture(t)
	out, err := runCLI(t, commandsPath, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestInfo_DescribesCommand(t *testing.T) {
	commandsPath := writeCommandsFixture(t)
	out, err := runCLI(t, commandsPath, "info", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "executable:  echo")
	assert.Contains(t, out, "base args:   hi")
	assert.Contains(t, out, "base.json")
}

func TestWhich_PrintsResolvedFilePaths(t *testing.T) {
	commandsPath := writeCommandsFixture(t)
	out, err := runCLI(t, commandsPath, "which", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(filepath.Dir(commandsPath), "base.json"))
}

func TestWhich_JSONOutput(t *testing.T) {
	commandsPath := writeCommandsFixture(t)
	out, err := runCLI(t, commandsPath, "which", "hello", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"command":"hello"`)
	assert.Contains(t, out, "base.json")
}

func TestInfo_UnknownCommandErrors(t *testing.T) {
	commandsPath := writeCommandsFixture(t)
	_, err := runCLI(t, commandsPath, "info", "nope")
	assert.Error(t, err)
}

func TestRun_PropagatesExitCode(t *testing.T) {
	dir := t.TempDir()
	commands := `{
		"fail": {
			"environment": [],
			"alias": ["sh", "-c", "exit 7"]
		}
	}`
	commandsPath := filepath.Join(dir, "commands.json")
	require.NoError(t, os.WriteFile(commandsPath, []byte(commands), 0644))

	var gotCode int
	orig := osExit
	osExit = func(code int) { gotCode = code }
	defer func() { osExit = orig }()

	_, err := runCLI(t, commandsPath, "run", "fail")
	require.NoError(t, err)
	assert.Equal(t, 7, gotCode)
}
