package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/vectorstore", cfg.Store.Dir)
	assert.Equal(t, 1000, cfg.Splitter.ChunkSize)
	assert.Equal(t, 100, cfg.Splitter.ChunkOverlap)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9000"
embedding:
  provider: ollama
  model: nomic-embed-text
  base_url: http://localhost:11434/api/embeddings
llm:
  provider: ollama
  model: llama3
  base_url: http://localhost:11434/api/generate
loader:
  monitoring_time: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 2*time.Second, cfg.Loader.MonitoringTime)
	assert.Equal(t, 500, cfg.Splitter.ChunkSize)
	assert.Equal(t, 50, cfg.Splitter.ChunkOverlap)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
[server]
addr = ":9100"
body_limit_mb = 8

[store]
driver = "sqlite"
dir = "/var/lib/ragchat"

[embedding]
provider = "ollama"
model = "nomic-embed-text"
timeout = "30s"

[llm]
provider = "ollama"
model = "llama3"

[loader]
monitoring_time = "3s"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Server.BodyLimitMB)
	assert.Equal(t, "/var/lib/ragchat", cfg.Store.Dir)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Loader.MonitoringTime)
	// Untouched sections keep their defaults.
	assert.Equal(t, 1000, cfg.Splitter.ChunkSize)
	assert.Equal(t, "files/archive", cfg.Loader.ArchiveDir)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr = "), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadTOMLMatchesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
llm:
  provider: ollama
  model: llama3
embedding:
  provider: ollama
  model: nomic-embed-text
splitter:
  chunk_size: 800
  chunk_overlap: 80
loader:
  poll_interval: 250ms
`), 0o644))
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[llm]
provider = "ollama"
model = "llama3"

[embedding]
provider = "ollama"
model = "nomic-embed-text"

[splitter]
chunk_size = 800
chunk_overlap = 80

[loader]
poll_interval = "250ms"
`), 0o644))

	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)
	fromTOML, err := Load(tomlPath)
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromTOML)
	assert.Equal(t, 250*time.Millisecond, fromTOML.Loader.PollInterval)
}

func TestOpenAIKeyFillsOnlyEmptyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  api_key: sk-embed
`), 0o644))
	t.Setenv("OPENAI_API_KEY", "sk-shared")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-embed", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-shared", cfg.LLM.APIKey)
}

func TestProviderKeyBeatsFileKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  api_key: sk-embed
llm:
  api_key: sk-llm
`), 0o644))
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("LLM_API_KEY", "sk-env-llm")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-embed", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-env-llm", cfg.LLM.APIKey)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "openai without key", env: map[string]string{}},
		{name: "unknown store", env: map[string]string{"OPENAI_API_KEY": "k", "VECTOR_STORE": "chroma"}},
		{name: "unknown provider", env: map[string]string{"OPENAI_API_KEY": "k", "LLM_PROVIDER": "gemini"}},
		{name: "overlap too large", env: map[string]string{"OPENAI_API_KEY": "k", "CHUNK_OVERLAP": "1000"}},
		{name: "bad int", env: map[string]string{"OPENAI_API_KEY": "k", "CHUNK_SIZE": "big"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "rag"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=rag sslmode=disable", p.DSN())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}
