package tracing

import (
	"log/slog"
	"testing"
)

func TestSetup_DisabledWithoutKeys(t *testing.T) {
	t.Setenv("LANGFUSE_PUBLIC_KEY", "")
	t.Setenv("LANGFUSE_SECRET_KEY", "sk-lf-test")

	handler, flush, ok := Setup()
	if ok || handler != nil || flush != nil {
		t.Fatal("tracing must be disabled when the public key is missing")
	}

	// Enable always returns a callable flush.
	Enable(slog.Default())()
}
