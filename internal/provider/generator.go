package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/carrierfit/internal/budget"
	"github.com/54b3r/carrierfit/internal/logging"
)

// DefaultGenerateTimeout bounds a single generate call when none is configured.
const DefaultGenerateTimeout = 60 * time.Second

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("provider: model returned an empty response")

// ChatGenerator adapts an eino chat model to the Generator interface.
// It is safe for concurrent use when the underlying model is.
type ChatGenerator struct {
	model       model.BaseChatModel
	name        string
	temperature float32
	tuning      bool
	timeout     time.Duration
}

// NewChatGenerator wraps m. cfg supplies the backend label, temperature and
// call timeout.
func NewChatGenerator(m model.BaseChatModel, cfg *Config) (*ChatGenerator, error) {
	if m == nil {
		return nil, fmt.Errorf("provider: model must not be nil")
	}
	if cfg == nil {
		cfg = &Config{Backend: BackendOllama}
	}
	timeout := cfg.Tuning.Timeout
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &ChatGenerator{
		model:       m,
		name:        string(cfg.Backend),
		temperature: cfg.Tuning.Temperature,
		tuning:      !(cfg.Backend == BackendAzure && isAzureReasoningModel(cfg.AzureOpenAI.Deployment)),
		timeout:     timeout,
	}, nil
}

// Name returns the backend label.
func (g *ChatGenerator) Name() string { return g.name }

// Complete sends prompt as a single user message and returns the response
// text. The call is bounded by the configured timeout.
func (g *ChatGenerator) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	log := logging.FromContext(ctx)

	msgs := []*schema.Message{schema.UserMessage(prompt)}
	if !budget.Fits(msgs, budget.DefaultMaxPromptTokens) {
		log.Warn("provider: prompt exceeds token budget",
			slog.String("backend", g.name),
			slog.Int("prompt_tokens_est", budget.EstimateMessages(msgs)),
			slog.Int("budget", budget.DefaultMaxPromptTokens),
		)
	}

	var opts []model.Option
	if g.tuning {
		opts = append(opts, model.WithTemperature(g.temperature))
		if maxTokens > 0 {
			opts = append(opts, model.WithMaxTokens(maxTokens))
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.model.Generate(callCtx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("provider: %s generate failed: %w", g.name, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyResponse
	}

	log.Debug("provider: generate complete",
		slog.String("backend", g.name),
		slog.Int("prompt_tokens_est", budget.EstimateMessages(msgs)),
		slog.Int("response_tokens_est", budget.Estimate(resp.Content)),
		slog.Duration("duration", time.Since(start)),
	)
	return resp.Content, nil
}
