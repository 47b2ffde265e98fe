// Package audit writes one structured record per carrierfit command so an
// operator can reconstruct which model, index and caps produced a given set
// of recommendations. Secrets are recorded as "set" or "unset" only.
package audit

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/54b3r/carrierfit/internal/version"
)

// groups lists the audited env vars by concern. Each concern becomes one
// slog group in the record.
var groups = []struct {
	name string
	keys []string
}{
	{"model", []string{
		"MODEL_PROVIDER", "OLLAMA_HOST", "OLLAMA_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL",
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT",
		"GOOGLE_API_KEY", "GEMINI_MODEL", "ARK_API_KEY", "ARK_MODEL", "ARK_BASE_URL", "MODEL_TEMPERATURE",
	}},
	{"embedding", []string{
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS", "EMBEDDING_ENDPOINT", "EMBEDDING_API_KEY", "EMBEDDING_BATCH_SIZE", "OLLAMA_KEEP_ALIVE",
	}},
	{"index", []string{
		"VECTOR_BACKEND", "QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION", "QDRANT_API_KEY", "QDRANT_TLS",
	}},
	{"ingest", []string{
		"SOURCE_DIR", "INGEST_MAX_DOCUMENTS", "INGEST_MAX_CHUNKS", "INGEST_EXTENSIONS", "INGEST_PACE",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "CARRIERFIT_LEDGER_DB",
	}},
	{"recommend", []string{
		"RECOMMEND_TOP_K", "RECOMMEND_MAX_RESULTS", "RECOMMEND_EVIDENCE_CHARS",
		"RECOMMEND_CONCURRENCY", "RECOMMEND_MAX_TOKENS",
	}},
	{"ops", []string{
		"CARRIERFIT_API_KEY", "LOG_LEVEL", "LOG_FORMAT", "LANGFUSE_HOST", "LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY",
	}},
}

// LogCommandStart records the command, its config file, the build version
// and the sanitised environment.
func LogCommandStart(ctx context.Context, log *slog.Logger, command string, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("version", version.Version),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}
	for _, g := range groups {
		members := make([]any, 0, len(g.keys))
		for _, k := range g.keys {
			members = append(members, slog.String(k, SanitiseKey(k, os.Getenv(k))))
		}
		attrs = append(attrs, slog.Group(g.name, members...))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// IsSecret reports whether key names a credential. Every credential in the
// carrierfit environment ends in _API_KEY, _SECRET_KEY or _PUBLIC_KEY.
func IsSecret(key string) bool {
	for _, suffix := range []string{"_API_KEY", "_SECRET_KEY", "_PUBLIC_KEY"} {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// SanitiseKey returns what may be logged for key: "set"/"unset" for secrets,
// otherwise the value with any URL credentials removed, or "unset".
func SanitiseKey(key, value string) string {
	if value == "" {
		return "unset"
	}
	if IsSecret(key) {
		return "set"
	}
	return redactURL(value)
}

// redactURL masks the userinfo of values that parse as absolute URLs.
func redactURL(v string) string {
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.User == nil {
		return v
	}
	return u.Redacted()
}

// sanitiseConfigPath returns the config path with the home directory
// abbreviated, or "none".
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
