package embedder

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/54b3r/carrierfit/internal/config"
)

// chatModelFamilies are name fragments of generative models. Pointing
// EMBEDDING_MODEL at one of them is a common misconfiguration when the chat
// and embedding settings are copied from the same template.
var chatModelFamilies = []string{
	"gpt-4", "gpt-3.5", "gpt-35", "o1", "o3",
	"llama3", "llama-3", "mistral", "mixtral", "gemma", "gemini",
	"phi3", "claude", "deepseek", "qwen", "doubao",
}

func looksLikeChatModel(model string) bool {
	m := strings.ToLower(model)
	if strings.Contains(m, "embed") {
		return false
	}
	for _, f := range chatModelFamilies {
		if strings.Contains(m, f) {
			return true
		}
	}
	return false
}

// requirement is a setting that may be given under either of two env names.
type requirement struct {
	what      string
	primary   string
	secondary string
}

func (r requirement) missing() error {
	if config.String(r.primary, config.String(r.secondary, "")) != "" {
		return nil
	}
	return fmt.Errorf("no %s found, set %s or %s", r.what, r.secondary, r.primary)
}

var requirements = map[string][]requirement{
	"ollama": nil,
	"openai": {
		{"OpenAI API key", "EMBEDDING_API_KEY", "OPENAI_API_KEY"},
	},
	"azure": {
		{"Azure API key", "EMBEDDING_API_KEY", "AZURE_OPENAI_API_KEY"},
		{"Azure endpoint", "EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT"},
	},
}

// Validate checks the embedding settings before any client is built. Every
// missing credential is reported at once; doubtful but usable settings are
// only logged.
func Validate(log *slog.Logger) error {
	backend := Backend()
	reqs, ok := requirements[backend]
	if !ok {
		return fmt.Errorf("embedder: unknown backend %q, valid values: ollama, openai, azure", backend)
	}

	var errs []error
	for _, r := range reqs {
		if err := r.missing(); err != nil {
			errs = append(errs, err)
		}
	}
	if d := config.Int("EMBEDDING_DIMENSIONS", 0); d < 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSIONS must not be negative, got %d", d))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("embedder: %s backend: %w", backend, err)
	}

	if mp := config.String("MODEL_PROVIDER", ""); mp != "" && config.String("EMBEDDING_PROVIDER", "") == "" && mp != backend {
		log.Warn("embedder: MODEL_PROVIDER has no embedding backend, using ollama",
			slog.String("model_provider", mp),
			slog.String("hint", "set EMBEDDING_PROVIDER to ollama, openai or azure"),
		)
	}
	if model := config.String("EMBEDDING_MODEL", ""); looksLikeChatModel(model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model",
			slog.String("model", model),
			slog.String("hint", "use an embedding model such as nomic-embed-text or text-embedding-3-small"),
		)
	}
	return nil
}
