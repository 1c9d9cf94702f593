// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/server"
	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestQueryDelete(t *testing.T) {
	useTextExtractor(t)
	llm := fakeLLM(t)
	env := newCLIEnv(t, llm.URL)
	src := env.source(t, "guide.pdf", "Install the agent with the package manager.")

	out, err := env.run("ingest", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 document(s)")
	assert.FileExists(t, filepath.Join(env.docs, "guide.pdf"))

	out, err = env.run("query", "install", "the", "agent")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "**Source:** [guide.pdf](/documents/guide.pdf) (Page 1)")
	assert.Contains(t, out, "*Model: ollama/llama3 | TTFT:")

	out, err = env.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 1 PDF(s)")
	assert.Contains(t, out, "ollama (default): 1 chunk(s), 1 file(s) [flat]")
	assert.Contains(t, out, "openai: unavailable")

	out, err = env.run("delete", "guide.pdf")
	require.NoError(t, err)
	assert.Contains(t, out, `File "guide.pdf" deleted successfully.`)
	assert.NoFileExists(t, filepath.Join(env.docs, "guide.pdf"))

	_, err = env.run("delete", "guide.pdf")
	require.Error(t, err)
	assert.True(t, ragerr.IsNotFound(err))

	out, err = env.run("query", "install")
	require.NoError(t, err)
	assert.NotContains(t, out, "**Source:**")
}

func TestIngest_Rejections(t *testing.T) {
	useTextExtractor(t)
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")

	_, err := env.run("ingest", env.source(t, "notes.txt", "plain text"))
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeCLIInputInvalid))

	guide := env.source(t, "guide.pdf", "Install the agent.")
	_, err = env.run("ingest", guide)
	require.NoError(t, err)

	_, err = env.run("ingest", guide)
	require.Error(t, err)
	assert.True(t, ragerr.IsConflict(err))

	_, err = env.run("ingest", env.source(t, "blank.pdf", "   "))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(env.docs, "blank.pdf"), "failed ingests remove the copy")
}

func TestIngest_DocumentsDirectory(t *testing.T) {
	useTextExtractor(t)
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	require.NoError(t, os.MkdirAll(env.docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.docs, "a.pdf"), []byte("Alpha text."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(env.docs, "b.pdf"), []byte("Beta text."), 0o600))

	out, err := env.run("ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 PDF(s)")
	assert.Contains(t, out, "ollama: indexed 2")

	out, err = env.run("ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 PDF(s)")
	assert.NotContains(t, out, "indexed")
}

func TestClearCommand(t *testing.T) {
	useTextExtractor(t)
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	_, err := env.run("ingest", env.source(t, "a.pdf", "Alpha text."), env.source(t, "b.pdf", "Beta text."))
	require.NoError(t, err)

	out, err := env.run("clear")
	require.NoError(t, err)
	assert.Contains(t, out, "--yes")
	assert.FileExists(t, filepath.Join(env.docs, "a.pdf"))

	out, err = env.run("clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "2 file(s) removed")
	assert.NoFileExists(t, filepath.Join(env.docs, "a.pdf"))

	out, err = env.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "ollama (default): 0 chunk(s), 0 file(s)")
}

func TestValidateCommand(t *testing.T) {
	useTextExtractor(t)
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	ok := env.source(t, "ok.pdf", "%PDF-1.4 readable text %%EOF")

	out, err := env.run("validate", ok)
	require.NoError(t, err)
	assert.Contains(t, out, "ok.pdf: ok (1 page(s), 1 with text")

	guide := env.source(t, "srm_guide.pdf", "%PDF-1.4\nsetup notes\n\nChapter 1: Introduction\nbody text\n%%EOF")
	out, err = env.run("validate", "--outline", guide)
	require.NoError(t, err)
	assert.Contains(t, out, "title: ")
	assert.Contains(t, out, "    Chapter 1: Introduction\n")

	out, err = env.run("validate", "--json", ok, filepath.Join(env.dir, "missing.pdf"))
	require.Error(t, err)
	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, true, reports[0]["has_header"])
	assert.NotNil(t, reports[0]["document"])
	assert.NotEmpty(t, reports[1]["problem"])
	assert.Nil(t, reports[1]["document"])
}

func TestStatusCommand_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/system/health" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(server.SystemHealth{
			Status:     "degraded",
			Default:    "ollama",
			Providers:  []provider.ProviderStatus{{Provider: "ollama", Model: "llama3", Available: true}},
			InitErrors: map[string]string{"openai": "missing api_key"},
		})
	}))
	defer srv.Close()

	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	out, err := env.run("status", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "ollama (default): available llama3")
	assert.Contains(t, out, "openai: failed to start: missing api_key")
}

func TestStatusCommand_ServerNotRunning(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	_, err := env.run("status", "--server", "127.0.0.1:1")
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeCLIRequestFailure))
}

func TestStatusCommand_CheckEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	env := newCLIEnv(t, srv.URL)
	out, err := env.run("status", "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "endpoint ok")
}

func TestConfigShow_RedactsKeys(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	t.Setenv("LIGHTRAG_EMBEDDING_API_KEY", "sk-embed-secret")

	out, err := env.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# source: "+env.cfgPath)
	assert.Contains(t, out, "llama3")
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "sk-embed-secret")
}

func TestConfigInit(t *testing.T) {
	env := newCLIEnv(t, "http://127.0.0.1:1/v1")
	path := filepath.Join(env.dir, "conf", "lightrag.yaml")

	out, err := env.run("config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	_, err = env.run("config", "init", path)
	require.Error(t, err)

	_, err = env.run("config", "init", "--force", path)
	require.NoError(t, err)
}
