// Package config provides YAML-based configuration for carrierfit.
// Configuration is loaded with a layered precedence: defaults → YAML file →
// .env file → process environment. Environment variables always win.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. CARRIERFIT_CONFIG environment variable
//  3. ~/.carrierfit/config.yaml
//  4. ./carrierfit.yaml
//
// A .env file in the working directory (or CARRIERFIT_DOTENV) is applied
// after the YAML values are resolved but never overrides variables already
// present in the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
// Field names use yaml tags that mirror the env var naming (lowercase, underscored).
type Config struct {
	// Model configures the generative model used for carrier synthesis.
	Model ModelConfig `yaml:"model"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Vector configures the vector index backend.
	Vector VectorConfig `yaml:"vector"`

	// Source configures where underwriting guideline documents are read from.
	Source SourceConfig `yaml:"source"`

	// Ingest configures the ingestion caps and pacing.
	Ingest IngestConfig `yaml:"ingest"`

	// Recommend configures retrieval and synthesis for recommendations.
	Recommend RecommendConfig `yaml:"recommend"`

	// Timeouts configures per-external-call deadlines.
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Ledger configures the ingestion ledger database.
	Ledger LedgerConfig `yaml:"ledger"`

	// Tracing configures Langfuse tracing integration.
	Tracing TracingConfig `yaml:"tracing"`
}

// ModelConfig holds generative model settings.
type ModelConfig struct {
	// Provider selects the backend: ollama, openai, azure, gemini, ark.
	Provider string `yaml:"provider"`
	// Temperature controls response randomness (0.0 to 1.0).
	Temperature float32 `yaml:"temperature"`
	// Ollama holds Ollama-specific settings.
	Ollama OllamaConfig `yaml:"ollama"`
	// OpenAI holds OpenAI-specific settings.
	OpenAI OpenAIConfig `yaml:"openai"`
	// Azure holds Azure OpenAI-specific settings.
	Azure AzureConfig `yaml:"azure"`
	// Gemini holds Google Gemini-specific settings.
	Gemini GeminiConfig `yaml:"gemini"`
	// Ark holds Volcengine Ark-specific settings.
	Ark ArkConfig `yaml:"ark"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Prefer env var OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// AzureConfig holds Azure OpenAI provider settings.
type AzureConfig struct {
	// APIKey is the Azure OpenAI API key. Prefer env var AZURE_OPENAI_API_KEY.
	APIKey     string `yaml:"api_key"`
	Endpoint   string `yaml:"endpoint"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
}

// GeminiConfig holds Google Gemini provider settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ArkConfig holds Volcengine Ark provider settings.
type ArkConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend (ollama, openai, azure).
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Dimensions overrides the embedding vector size.
	Dimensions int `yaml:"dimensions"`
	// APIKey is the embedding API key. Prefer env var EMBEDDING_API_KEY.
	APIKey string `yaml:"api_key"`
	// Endpoint is the embedding API endpoint.
	Endpoint string `yaml:"endpoint"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	// Backend selects qdrant (default) or memory.
	Backend string `yaml:"backend"`
	// Qdrant holds the Qdrant connection.
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
	// APIKey is the Qdrant API key. Prefer env var QDRANT_API_KEY.
	APIKey string `yaml:"api_key"`
	TLS    bool   `yaml:"tls"`
}

// SourceConfig holds document source settings.
type SourceConfig struct {
	// Dir is the local directory holding guideline documents.
	Dir string `yaml:"dir"`
}

// IngestConfig holds ingestion caps and pacing.
type IngestConfig struct {
	MaxDocuments int `yaml:"max_documents"`
	MaxChunks    int `yaml:"max_chunks"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	// Extensions is the list of recognised document extensions (e.g. [".pdf"]).
	Extensions []string `yaml:"extensions"`
	// Pace is the minimum interval between documents (e.g. "1s").
	Pace string `yaml:"pace"`
}

// RecommendConfig holds retrieval and synthesis settings.
type RecommendConfig struct {
	TopK          int `yaml:"top_k"`
	MaxResults    int `yaml:"max_results"`
	EvidenceChars int `yaml:"evidence_chars"`
	Concurrency   int `yaml:"concurrency"`
	MaxTokens     int `yaml:"max_tokens"`
}

// TimeoutConfig holds per-call deadlines as Go duration strings.
type TimeoutConfig struct {
	Embed    string `yaml:"embed"`
	Query    string `yaml:"query"`
	Generate string `yaml:"generate"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIKey is the admin Bearer token for /api/ingest. Prefer env var CARRIERFIT_API_KEY.
	APIKey string `yaml:"api_key"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// LedgerConfig holds ingestion ledger settings.
type LedgerConfig struct {
	// DBPath is the SQLite database path. Set to "disabled" to disable.
	DBPath string `yaml:"db_path"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	PublicKey string `yaml:"public_key"`
	SecretKey string `yaml:"secret_key"`
	Host      string `yaml:"host"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"MODEL_PROVIDER", func(c *Config) string { return c.Model.Provider }},
	{"MODEL_TEMPERATURE", func(c *Config) string { return float32Str(c.Model.Temperature) }},
	{"OLLAMA_HOST", func(c *Config) string { return c.Model.Ollama.Host }},
	{"OLLAMA_MODEL", func(c *Config) string { return c.Model.Ollama.Model }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Model.OpenAI.APIKey }},
	{"OPENAI_MODEL", func(c *Config) string { return c.Model.OpenAI.Model }},
	{"AZURE_OPENAI_API_KEY", func(c *Config) string { return c.Model.Azure.APIKey }},
	{"AZURE_OPENAI_ENDPOINT", func(c *Config) string { return c.Model.Azure.Endpoint }},
	{"AZURE_OPENAI_DEPLOYMENT", func(c *Config) string { return c.Model.Azure.Deployment }},
	{"AZURE_OPENAI_API_VERSION", func(c *Config) string { return c.Model.Azure.APIVersion }},
	{"GOOGLE_API_KEY", func(c *Config) string { return c.Model.Gemini.APIKey }},
	{"GEMINI_MODEL", func(c *Config) string { return c.Model.Gemini.Model }},
	{"ARK_API_KEY", func(c *Config) string { return c.Model.Ark.APIKey }},
	{"ARK_MODEL", func(c *Config) string { return c.Model.Ark.Model }},
	{"ARK_BASE_URL", func(c *Config) string { return c.Model.Ark.BaseURL }},
	{"EMBEDDING_PROVIDER", func(c *Config) string { return c.Embedding.Provider }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Embedding.Model }},
	{"EMBEDDING_DIMENSIONS", func(c *Config) string { return intStr(c.Embedding.Dimensions) }},
	{"EMBEDDING_API_KEY", func(c *Config) string { return c.Embedding.APIKey }},
	{"EMBEDDING_ENDPOINT", func(c *Config) string { return c.Embedding.Endpoint }},
	{"VECTOR_BACKEND", func(c *Config) string { return c.Vector.Backend }},
	{"QDRANT_HOST", func(c *Config) string { return c.Vector.Qdrant.Host }},
	{"QDRANT_PORT", func(c *Config) string { return intStr(c.Vector.Qdrant.Port) }},
	{"QDRANT_COLLECTION", func(c *Config) string { return c.Vector.Qdrant.Collection }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.Vector.Qdrant.APIKey }},
	{"QDRANT_TLS", func(c *Config) string { return boolStr(c.Vector.Qdrant.TLS) }},
	{"SOURCE_DIR", func(c *Config) string { return c.Source.Dir }},
	{"INGEST_MAX_DOCUMENTS", func(c *Config) string { return intStr(c.Ingest.MaxDocuments) }},
	{"INGEST_MAX_CHUNKS", func(c *Config) string { return intStr(c.Ingest.MaxChunks) }},
	{"CHUNK_SIZE", func(c *Config) string { return intStr(c.Ingest.ChunkSize) }},
	{"CHUNK_OVERLAP", func(c *Config) string { return intStr(c.Ingest.ChunkOverlap) }},
	{"INGEST_EXTENSIONS", func(c *Config) string { return strings.Join(c.Ingest.Extensions, ",") }},
	{"INGEST_PACE", func(c *Config) string { return c.Ingest.Pace }},
	{"RECOMMEND_TOP_K", func(c *Config) string { return intStr(c.Recommend.TopK) }},
	{"RECOMMEND_MAX_RESULTS", func(c *Config) string { return intStr(c.Recommend.MaxResults) }},
	{"RECOMMEND_EVIDENCE_CHARS", func(c *Config) string { return intStr(c.Recommend.EvidenceChars) }},
	{"RECOMMEND_CONCURRENCY", func(c *Config) string { return intStr(c.Recommend.Concurrency) }},
	{"RECOMMEND_MAX_TOKENS", func(c *Config) string { return intStr(c.Recommend.MaxTokens) }},
	{"EMBED_TIMEOUT", func(c *Config) string { return c.Timeouts.Embed }},
	{"QUERY_TIMEOUT", func(c *Config) string { return c.Timeouts.Query }},
	{"GENERATE_TIMEOUT", func(c *Config) string { return c.Timeouts.Generate }},
	{"CARRIERFIT_HOST", func(c *Config) string { return c.Server.Host }},
	{"CARRIERFIT_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"CARRIERFIT_API_KEY", func(c *Config) string { return c.Server.APIKey }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"CARRIERFIT_LEDGER_DB", func(c *Config) string { return c.Ledger.DBPath }},
	{"LANGFUSE_PUBLIC_KEY", func(c *Config) string { return c.Tracing.PublicKey }},
	{"LANGFUSE_SECRET_KEY", func(c *Config) string { return c.Tracing.SecretKey }},
	{"LANGFUSE_HOST", func(c *Config) string { return c.Tracing.Host }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables, then loads the .env file. Existing env vars are never
// overwritten (env always wins). Returns the YAML path that was loaded, or
// empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
	} else {
		applied, err := applyYAML(path)
		if err != nil {
			return "", err
		}
		log.Info("config: loaded YAML config",
			slog.String("path", path),
			slog.Int("keys_applied", applied),
		)
	}

	if err := loadDotEnv(log); err != nil {
		return "", err
	}

	return path, nil
}

// applyYAML parses path and sets every non-empty mapped value that is not
// already present in the environment.
func applyYAML(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return 0, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" || yamlVal == "0" || yamlVal == "false" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue // env wins
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return applied, fmt.Errorf("config: set %s: %w", m.envKey, err)
		}
		applied++
	}
	return applied, nil
}

// loadDotEnv applies CARRIERFIT_DOTENV (or ./.env) if it exists.
// godotenv.Load never overrides variables that are already set.
func loadDotEnv(log *slog.Logger) error {
	path := os.Getenv("CARRIERFIT_DOTENV")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	log.Debug("config: loaded dotenv file", slog.String("path", path))
	return nil
}

// resolveConfigPath returns the first config file path that exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("CARRIERFIT_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".carrierfit", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("carrierfit.yaml"); err == nil {
		return "carrierfit.yaml"
	}

	return ""
}

// String returns the named env var or fallback when unset or empty.
func String(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Int returns the named env var parsed as an int, or fallback when unset or
// unparseable.
func Int(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// Duration returns the named env var parsed with [time.ParseDuration], or
// fallback when unset or unparseable.
func Duration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// List returns the named env var split on commas with blanks dropped, or
// fallback when unset.
func List(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// float32Str converts a float32 to string, returning "" for zero values.
func float32Str(v float32) string {
	if v == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
