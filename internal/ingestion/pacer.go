package ingestion

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPace is the minimum interval between two documents.
const DefaultPace = time.Second

// Pacer spaces out per-document work to respect downstream rate limits.
// *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewRatePacer returns a limiter allowing one document per interval. The
// initial token is spent at construction, so the first Wait already blocks
// for a full interval. A non-positive interval disables pacing.
func NewRatePacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return NoPacer{}
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	l.Allow()
	return l
}

// NoPacer never waits. It still honours cancellation.
type NoPacer struct{}

// Wait returns ctx.Err().
func (NoPacer) Wait(ctx context.Context) error { return ctx.Err() }
