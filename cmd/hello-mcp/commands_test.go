package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestLanguagesCommand(t *testing.T) {
	out, err := execute(t, "languages", "--config", filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Contains(t, out, "en\tHello\n")
	assert.Contains(t, out, "zh\t你好\n")
}

func TestLanguagesCommandWithSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello-config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"available_languages":{"nl":"Hallo","sv":"Hej"}}`), 0o600))

	out, err := execute(t, "languages", "--config", path)
	require.NoError(t, err)

	assert.Equal(t, "nl\tHallo\nsv\tHej\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hello-mcp version dev\n", out)
}

func TestInvalidTransport(t *testing.T) {
	_, err := execute(t, "serve", "--transport", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport must be one of")
}
