package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.gob")

	_, err := execute("init-model", "--policy-path", path, "--hidden", "8")
	require.NoError(t, err)
	assert.FileExists(t, path)

	out, err := execute("inspect", "--policy-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "action")
	assert.Contains(t, out, "activation: relu")
	assert.Contains(t, out, "activation: tanh")
	assert.Contains(t, out, "model matches the policy")

	image := filepath.Join(dir, "world.png")
	_, err = execute("run", "--policy-path", path, "--shared", "--robots",
		"2", "--steps", "3", "--progress=false", "--render", image)
	require.NoError(t, err)
	assert.FileExists(t, image)

	_, err = execute("run", "--policy-path", path, "--steps", "0")
	assert.Error(t, err)

	_, err = execute("init-model", "--policy-path", path, "--activation",
		"softplus")
	assert.Error(t, err)
}
