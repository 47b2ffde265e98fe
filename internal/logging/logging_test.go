package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected slog.Default when no logger is stored")
	}
}

func TestWithLogger_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_FORMAT", "text")
	log := NewWithWriter(&buf)

	ctx := WithLogger(context.Background(), log)
	FromContext(ctx).Info("hello", slog.String("carrier_id", "acme"))

	if !strings.Contains(buf.String(), "carrier_id=acme") {
		t.Errorf("expected text-format attribute in output, got %q", buf.String())
	}
}

func TestWith_StoresChildLogger(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_FORMAT", "text")
	ctx := WithLogger(context.Background(), NewWithWriter(&buf))

	ctx, log := With(ctx, slog.String("source_key", "acme_term.pdf"))
	log.Info("first")
	FromContext(ctx).Info("second")

	out := buf.String()
	if got := strings.Count(out, "source_key=acme_term.pdf"); got != 2 {
		t.Errorf("expected both records to carry source_key, got %d in %q", got, out)
	}
}

func TestNewWithWriter_Source(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SOURCE", "true")

	NewWithWriter(&buf).Info("hello")
	if !strings.Contains(buf.String(), `"source"`) {
		t.Errorf("expected source attribute, got %q", buf.String())
	}
}
