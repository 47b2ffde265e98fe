// Package recommend turns a client profile into ranked, evidence-cited
// carrier recommendations. It retrieves guideline chunks nearest to the
// rendered profile, groups them by carrier, asks the generative model for
// a JSON assessment per carrier, and parses that output through three
// tiers (JSON, field extraction, retrieval heuristic) so every carrier
// with evidence yields a recommendation.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/54b3r/carrierfit/internal/logging"
	"github.com/54b3r/carrierfit/internal/provider"
	"github.com/54b3r/carrierfit/internal/rag"
)

// Defaults for Config fields left at zero.
const (
	DefaultTopK          = 15
	DefaultMaxResults    = 10
	DefaultEvidenceChars = 2000
	DefaultConcurrency   = 1
	DefaultMaxTokens     = 1024
)

// Config tunes retrieval and synthesis.
type Config struct {
	// TopK is the number of nearest chunks retrieved per request.
	TopK int
	// MaxResults caps the ranked output.
	MaxResults int
	// EvidenceChars caps the evidence text placed in each prompt.
	EvidenceChars int
	// Concurrency is the number of carrier groups synthesized at once.
	Concurrency int
	// MaxTokens is passed to the generator for each completion.
	MaxTokens int
}

func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.EvidenceChars <= 0 {
		c.EvidenceChars = DefaultEvidenceChars
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// Recommender runs the recommendation pipeline. It is safe for concurrent
// use and holds no per-request state: each Recommend call sizes its own
// worker pool.
type Recommender struct {
	embed *rag.EmbeddingClient
	index *rag.IndexClient
	gen   provider.Generator
	cfg   Config
}

// New constructs a Recommender.
func New(embed *rag.EmbeddingClient, index *rag.IndexClient, gen provider.Generator, cfg Config) (*Recommender, error) {
	if embed == nil {
		return nil, fmt.Errorf("recommend: embedding client must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("recommend: index must not be nil")
	}
	if gen == nil {
		return nil, fmt.Errorf("recommend: generator must not be nil")
	}
	cfg.applyDefaults()
	return &Recommender{embed: embed, index: index, gen: gen, cfg: cfg}, nil
}

// Recommend scores profile against the indexed carrier guidelines. It
// returns an empty response, not an error, when the query cannot be
// embedded or nothing is retrieved. The only error is ctx cancellation.
func (r *Recommender) Recommend(ctx context.Context, profile ClientProfile) (*Response, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	query := profile.Query()
	vec := r.embed.Embed(ctx, query)
	if len(vec) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Warn("recommend: query embedding unavailable, returning no recommendations")
		return Rank(nil, r.cfg.MaxResults, 0), nil
	}

	matches := r.index.Query(ctx, vec, r.cfg.TopK)
	if len(matches) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info("recommend: no guideline evidence retrieved")
		return Rank(nil, r.cfg.MaxResults, 0), nil
	}

	groups := GroupMatches(matches)
	log.Debug("recommend: retrieved evidence",
		slog.Int("matches", len(matches)),
		slog.Int("carriers", len(groups)),
	)

	results, err := r.assessAll(ctx, query, groups)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	resp := Rank(recs, r.cfg.MaxResults, len(groups))
	log.Info("recommend: complete",
		slog.Int("carriers", len(groups)),
		slog.Int("recommendations", len(resp.Recommendations)),
		slog.String("top_carrier", resp.Summary.TopCarrierID),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// assessAll assesses groups on a pool owned by this call, so a slow carrier
// in one request never delays another request. Once ctx is done no further
// groups are submitted.
func (r *Recommender) assessAll(ctx context.Context, query string, groups []Group) ([]*Recommendation, error) {
	pool, err := ants.NewPool(min(r.cfg.Concurrency, len(groups)))
	if err != nil {
		return nil, fmt.Errorf("recommend: create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]*Recommendation, len(groups))
	var wg sync.WaitGroup
	for i, g := range groups {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			results[i] = r.assessSafe(ctx, query, g)
		}); err != nil {
			wg.Done()
			logging.FromContext(ctx).Warn("recommend: carrier skipped, worker pool unavailable",
				slog.String("carrier_id", g.CarrierID),
				slog.String("error", err.Error()),
			)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// assessSafe isolates one carrier: a panic is logged and the carrier is
// omitted.
func (r *Recommender) assessSafe(ctx context.Context, query string, g Group) (rec *Recommendation) {
	defer func() {
		if p := recover(); p != nil {
			logging.FromContext(ctx).Error("recommend: carrier assessment panicked",
				slog.String("carrier_id", g.CarrierID),
				slog.Any("panic", p),
			)
			rec = nil
		}
	}()
	out := r.assess(ctx, query, g)
	return &out
}

func (r *Recommender) assess(ctx context.Context, query string, g Group) Recommendation {
	ctx, log := logging.With(ctx, slog.String("carrier_id", g.CarrierID))

	prompt := BuildPrompt(query, g.CarrierID, g.Evidence(r.cfg.EvidenceChars), g.Sources())
	raw, err := r.gen.Complete(ctx, prompt, r.cfg.MaxTokens)
	if err != nil {
		log.Warn("recommend: generation failed, using retrieval heuristic", slog.String("error", err.Error()))
		raw = ""
	}

	a := Analyze(raw, g.Top.Score)
	if a.Source != SourceModel && err == nil {
		log.Warn("recommend: model output was not valid JSON", slog.String("analysis_source", string(a.Source)))
	}
	return Normalize(g, a)
}
