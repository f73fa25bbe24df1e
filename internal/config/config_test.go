package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "9000"
  mode: debug
client:
  base_url: http://example.test
  chat_timeout: 5s
  streaming: false
llm:
  model: llama-3.1-8b-instant
ingest:
  chunk_size: 500
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "http://example.test", cfg.Client.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Client.ChatTimeout)
	assert.False(t, cfg.Client.Streaming)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	// defaults survive for keys the file does not set
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 120*time.Second, cfg.Client.UploadTimeout)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Client.BaseURL)
	assert.True(t, cfg.Client.Streaming)
	assert.Equal(t, 6, cfg.Ingest.TopK)
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("CONTEXTAI_LLM_API_KEY", "secret-from-env")
	t.Setenv("CONTEXTAI_CLIENT_BASE_URL", "http://env.test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret-from-env", cfg.LLM.APIKey)
	assert.Equal(t, "http://env.test", cfg.Client.BaseURL)
}

func TestInit_PanicsOnMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	assert.Panics(t, func() { Init(path) })
}
