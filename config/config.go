// Package config loads the service configuration from an optional YAML or
// TOML file and the process environment. Environment values win over the
// file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ragchat/types"
)

type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	TempDir     string `yaml:"temp_dir" validate:"required"`
	BodyLimitMB int    `yaml:"body_limit_mb" validate:"gt=0"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
}

// DSN builds a libpq style connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.DBName)
}

type StoreConfig struct {
	Driver       string         `yaml:"driver" validate:"oneof=sqlite postgres"`
	Dir          string         `yaml:"dir" validate:"required_if=Driver sqlite"`
	EmbeddingDim int            `yaml:"embedding_dim" validate:"required_if=Driver postgres"`
	Postgres     PostgresConfig `yaml:"postgres"`
}

// ProviderConfig configures one model provider, either for embeddings or
// for text generation.
type ProviderConfig struct {
	Provider  string        `yaml:"provider" validate:"oneof=openai ollama"`
	Model     string        `yaml:"model" validate:"required"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key" validate:"required_if=Provider openai"`
	Timeout   time.Duration `yaml:"timeout"`
	BatchSize int           `yaml:"batch_size"`
}

type SplitterConfig struct {
	ChunkSize    int `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int `yaml:"chunk_overlap" validate:"gte=0"`
}

type LoaderConfig struct {
	SourceDir      string        `yaml:"source_dir"`
	ArchiveDir     string        `yaml:"archive_dir"`
	BadDir         string        `yaml:"bad_dir"`
	MonitoringTime time.Duration `yaml:"monitoring_time"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Store     StoreConfig    `yaml:"store"`
	Embedding ProviderConfig `yaml:"embedding"`
	LLM       ProviderConfig `yaml:"llm"`
	Splitter  SplitterConfig `yaml:"splitter"`
	Loader    LoaderConfig   `yaml:"loader"`
	Log       LogConfig      `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8000", TempDir: "temp", BodyLimitMB: 32},
		Store: StoreConfig{
			Driver:       "sqlite",
			Dir:          "data/vectorstore",
			EmbeddingDim: 1536,
			Postgres:     PostgresConfig{Host: "localhost", Port: 5432},
		},
		Embedding: ProviderConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Timeout:   60 * time.Second,
			BatchSize: 64,
		},
		LLM: ProviderConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  120 * time.Second,
		},
		Splitter: SplitterConfig{ChunkSize: 1000, ChunkOverlap: 100},
		Loader: LoaderConfig{
			SourceDir:      "files/source",
			ArchiveDir:     "files/archive",
			BadDir:         "files/bad",
			MonitoringTime: 5 * time.Second,
			PollInterval:   time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (a missing file means defaults), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode reads TOML when path ends in .toml and YAML otherwise. TOML is
// converted to YAML first so both formats share the yaml field tags.
func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return err
		}
		converted, err := yaml.Marshal(raw)
		if err != nil {
			return err
		}
		data = converted
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) Validate() error {
	if errs := types.ValidateStruct(c); len(errs) > 0 {
		return fmt.Errorf("invalid config: %v", errs)
	}
	if c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		return fmt.Errorf("invalid config: chunk overlap %d must be smaller than chunk size %d",
			c.Splitter.ChunkOverlap, c.Splitter.ChunkSize)
	}
	return nil
}

func (c *Config) applyEnv() error {
	envString("SERVER_ADDR", &c.Server.Addr)
	envString("UPLOAD_TEMP_DIR", &c.Server.TempDir)

	envString("VECTOR_STORE", &c.Store.Driver)
	envString("VECTOR_STORE_DIR", &c.Store.Dir)
	envString("PG_HOST", &c.Store.Postgres.Host)
	envString("PG_USER", &c.Store.Postgres.User)
	envString("PG_PASS", &c.Store.Postgres.Password)
	envString("PG_DB_NAME", &c.Store.Postgres.DBName)

	// OPENAI_API_KEY only fills keys left empty; provider specific keys win.
	if c.Embedding.APIKey == "" {
		envString("OPENAI_API_KEY", &c.Embedding.APIKey)
	}
	if c.LLM.APIKey == "" {
		envString("OPENAI_API_KEY", &c.LLM.APIKey)
	}

	envString("EMBEDDING_PROVIDER", &c.Embedding.Provider)
	envString("EMBEDDING_MODEL", &c.Embedding.Model)
	envString("EMBEDDING_URL", &c.Embedding.BaseURL)
	envString("EMBEDDING_API_KEY", &c.Embedding.APIKey)

	envString("LLM_PROVIDER", &c.LLM.Provider)
	envString("LLM_MODEL", &c.LLM.Model)
	envString("LLM_URL", &c.LLM.BaseURL)
	envString("LLM_API_KEY", &c.LLM.APIKey)

	envString("LOADER_SOURCE_DIR", &c.Loader.SourceDir)
	envString("LOADER_ARCHIVE_DIR", &c.Loader.ArchiveDir)
	envString("LOADER_BAD_DIR", &c.Loader.BadDir)

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	ints := []struct {
		key string
		dst *int
	}{
		{"BODY_LIMIT_MB", &c.Server.BodyLimitMB},
		{"EMBEDDING_DIM", &c.Store.EmbeddingDim},
		{"PG_PORT", &c.Store.Postgres.Port},
		{"EMBEDDING_BATCH_SIZE", &c.Embedding.BatchSize},
		{"CHUNK_SIZE", &c.Splitter.ChunkSize},
		{"CHUNK_OVERLAP", &c.Splitter.ChunkOverlap},
	}
	for _, i := range ints {
		if err := envInt(i.key, i.dst); err != nil {
			return err
		}
	}

	return envDuration("LOADER_MONITORING_TIME", &c.Loader.MonitoringTime)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = d
	return nil
}
