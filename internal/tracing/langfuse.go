// Package tracing wires optional Langfuse tracing into every eino generate
// call made while synthesising carrier recommendations.
package tracing

import (
	"log/slog"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/carrierfit/internal/config"
)

// Setup builds the Langfuse callback handler if LANGFUSE_PUBLIC_KEY and
// LANGFUSE_SECRET_KEY are set. It returns the handler, a flush function that
// must run before process exit, and whether tracing is enabled.
func Setup() (callbacks.Handler, func(), bool) {
	publicKey := config.String("LANGFUSE_PUBLIC_KEY", "")
	secretKey := config.String("LANGFUSE_SECRET_KEY", "")
	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      config.String("LANGFUSE_HOST", "http://localhost:3000"),
		PublicKey: publicKey,
		SecretKey: secretKey,
	})

	return handler, flusher, true
}

// Enable registers the Langfuse handler globally when configured and returns
// the flush function. The returned func is always safe to call.
func Enable(log *slog.Logger) func() {
	handler, flush, ok := Setup()
	if !ok {
		log.Debug("tracing: langfuse not configured")
		return func() {}
	}
	callbacks.AppendGlobalHandlers(handler)
	log.Info("tracing: langfuse enabled", slog.String("host", config.String("LANGFUSE_HOST", "http://localhost:3000")))
	return flush
}
