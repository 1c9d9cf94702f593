// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"bytes"
	"testing"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Help(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"--help"})

	err := root.Execute()
	require.NoError(t, err)
	for _, sub := range []string{"serve", "ingest", "query", "chat", "delete", "clear", "status", "validate", "version"} {
		assert.Contains(t, buf.String(), sub)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"--verbose", "--help"})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "--config")
	assert.Contains(t, buf.String(), "--data-dir")
	assert.Contains(t, buf.String(), "--verbose")
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"version"})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "lightrag dev")
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"status", "--config", "/nonexistent/lightrag.yaml"})

	err := root.Execute()
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeConfigLoadReadFailure))
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1/v1", "index:\n  backend: annoy\n")

	_, err := env.run("status")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeConfigValidateInvalidValue))
	assert.Contains(t, err.Error(), "index.backend")
}

func TestRootCommand_DataDirFlagOverridesConfig(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	other := t.TempDir()

	out, err := env.run("status", "--data-dir", other)
	require.NoError(t, err)
	assert.Contains(t, out, "Data directory: "+other)
}
