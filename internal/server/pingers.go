package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/54b3r/carrierfit/internal/logging"
	"github.com/54b3r/carrierfit/internal/provider"
)

// LLMPinger probes the generative backend for GET /api/ready.
type LLMPinger struct {
	// healthCheck is the zero-token probe; nil for backends without one.
	healthCheck provider.HealthCheckConfig
	// gen is the fallback probe. It consumes tokens.
	gen provider.Generator
	// name identifies the backend in readiness responses (e.g. "ollama").
	name string
}

// NewLLMPinger constructs an LLMPinger. hc may be nil, in which case gen
// is asked for a one-token completion.
func NewLLMPinger(hc provider.HealthCheckConfig, gen provider.Generator, name string) *LLMPinger {
	return &LLMPinger{healthCheck: hc, gen: gen, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *LLMPinger) Name() string { return p.name }

// Ping probes the LLM backend for readiness.
func (p *LLMPinger) Ping(ctx context.Context) error {
	if p.healthCheck != nil {
		if err := p.healthCheck.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s health check failed: %w", p.name, err)
		}
		return nil
	}
	if p.gen == nil {
		return fmt.Errorf("%s: no health check available", p.name)
	}

	logging.FromContext(ctx).Debug("pinger: no zero-token health check, probing with a completion",
		slog.String("backend", p.name),
	)
	if _, err := p.gen.Complete(ctx, "ping", 1); err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}
	return nil
}

// healthChecker is satisfied by *rag.QdrantStore.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// QdrantPinger probes the vector index for GET /api/ready.
type QdrantPinger struct {
	store healthChecker
}

// NewQdrantPinger constructs a QdrantPinger for the given store.
func NewQdrantPinger(store healthChecker) *QdrantPinger {
	return &QdrantPinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if err := p.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
