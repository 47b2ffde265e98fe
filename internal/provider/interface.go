// Package provider constructs the generative model used for carrier
// synthesis and exposes it through the narrow Generator interface: a prompt
// goes in, free-form text comes out. Supported backends: Ollama, OpenAI,
// Azure OpenAI, Google Gemini, Volcengine Ark.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendArk selects Volcengine Ark.
	BackendArk Backend = "ark"
)

// Generator is the Generative Synthesis Client. Implementations return the
// model's raw text; no structure is guaranteed.
type Generator interface {
	// Complete sends prompt and returns the generated text, bounded by
	// maxTokens output tokens (0 = backend default).
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ProviderOllama holds Ollama settings.
type ProviderOllama struct {
	Host  string
	Model string
}

// ProviderOpenAI holds OpenAI settings.
type ProviderOpenAI struct {
	APIKey string
	Model  string
}

// ProviderAzureOpenAI holds Azure OpenAI settings.
type ProviderAzureOpenAI struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	APIKey string
	Model  string
}

// ProviderArk holds Volcengine Ark settings.
type ProviderArk struct {
	APIKey  string
	Model   string
	BaseURL string
}

// SharedTuning holds generation parameters common to every backend.
type SharedTuning struct {
	// MaxTokens caps the number of tokens generated per response.
	MaxTokens int
	// Temperature controls response randomness, within [0, 2].
	Temperature float32
	// Timeout bounds a single generate call (0 = DefaultGenerateTimeout).
	Timeout time.Duration
}

// Config holds all provider-level configuration. Only the section matching
// Backend is consulted.
type Config struct {
	Backend     Backend
	Ollama      ProviderOllama
	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Gemini      ProviderGemini
	Ark         ProviderArk
	Tuning      SharedTuning
}

// setting pairs a required value with the env var that supplies it.
type setting struct {
	env   string
	value string
}

// required returns the settings the selected backend cannot start without.
func (c *Config) required() ([]setting, bool) {
	switch c.Backend {
	case BackendOllama:
		return []setting{{"OLLAMA_HOST", c.Ollama.Host}, {"OLLAMA_MODEL", c.Ollama.Model}}, true
	case BackendOpenAI:
		return []setting{{"OPENAI_API_KEY", c.OpenAI.APIKey}, {"OPENAI_MODEL", c.OpenAI.Model}}, true
	case BackendAzure:
		return []setting{
			{"AZURE_OPENAI_API_KEY", c.AzureOpenAI.APIKey},
			{"AZURE_OPENAI_ENDPOINT", c.AzureOpenAI.Endpoint},
			{"AZURE_OPENAI_DEPLOYMENT", c.AzureOpenAI.Deployment},
		}, true
	case BackendGemini:
		return []setting{{"GOOGLE_API_KEY", c.Gemini.APIKey}, {"GEMINI_MODEL", c.Gemini.Model}}, true
	case BackendArk:
		return []setting{{"ARK_API_KEY", c.Ark.APIKey}, {"ARK_MODEL", c.Ark.Model}}, true
	}
	return nil, false
}

// Validate reports every missing setting of the selected backend at once,
// by env var name, and rejects out-of-range tuning.
func (c *Config) Validate() error {
	required, ok := c.required()
	if !ok {
		return fmt.Errorf("provider: unknown backend %q, valid values: ollama, openai, azure, gemini, ark", c.Backend)
	}
	var missing []string
	for _, s := range required {
		if strings.TrimSpace(s.value) == "" {
			missing = append(missing, s.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("provider: %s backend requires %s", c.Backend, strings.Join(missing, ", "))
	}
	if t := c.Tuning.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("provider: MODEL_TEMPERATURE must be within [0, 2], got %g", t)
	}
	if c.Tuning.MaxTokens < 0 {
		return fmt.Errorf("provider: RECOMMEND_MAX_TOKENS must not be negative, got %d", c.Tuning.MaxTokens)
	}
	return nil
}

// ModelName returns the model or deployment name for the selected backend.
func (c *Config) ModelName() string {
	switch c.Backend {
	case BackendOllama:
		return c.Ollama.Model
	case BackendOpenAI:
		return c.OpenAI.Model
	case BackendAzure:
		return c.AzureOpenAI.Deployment
	case BackendGemini:
		return c.Gemini.Model
	case BackendArk:
		return c.Ark.Model
	}
	return ""
}

// isAzureReasoningModel reports whether an Azure deployment name refers to an
// o-series or codex reasoning model. Those reject temperature and max_tokens.
func isAzureReasoningModel(deployment string) bool {
	d := strings.ToLower(deployment)
	for _, prefix := range []string{"o1", "o3", "o4", "codex"} {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}
