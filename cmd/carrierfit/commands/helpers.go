package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/54b3r/carrierfit/internal/chunker"
	"github.com/54b3r/carrierfit/internal/config"
	"github.com/54b3r/carrierfit/internal/embedder"
	"github.com/54b3r/carrierfit/internal/extract"
	"github.com/54b3r/carrierfit/internal/ingestion"
	"github.com/54b3r/carrierfit/internal/provider"
	"github.com/54b3r/carrierfit/internal/rag"
	"github.com/54b3r/carrierfit/internal/recommend"
	"github.com/54b3r/carrierfit/internal/server"
	"github.com/54b3r/carrierfit/internal/source"
	"github.com/54b3r/carrierfit/internal/store"
)

const defaultCollection = "carrier-guidelines"

// backend bundles the retrieval collaborators shared by every command.
type backend struct {
	embed  *rag.EmbeddingClient
	index  *rag.IndexClient
	qdrant *rag.QdrantStore
	close  func()
}

// buildBackend wires the embedder and the vector index.
// VECTOR_BACKEND selects the index: "qdrant" (default) or "memory". The
// memory index lives only as long as the process, so it is only useful for
// serve, where ingest and recommend share one process.
func buildBackend(ctx context.Context, log *slog.Logger) (*backend, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, err
	}
	embed, err := rag.NewEmbeddingClient(emb, config.Duration("EMBED_TIMEOUT", rag.DefaultEmbedTimeout))
	if err != nil {
		return nil, err
	}

	var (
		vs     rag.VectorStore
		qdrant *rag.QdrantStore
	)
	switch kind := strings.ToLower(config.String("VECTOR_BACKEND", "qdrant")); kind {
	case "memory":
		vs = rag.NewMemoryStore()
		log.Warn("vector index: in-memory store, vectors are lost on exit")
	case "qdrant":
		qdrant, err = rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:       config.String("QDRANT_HOST", "localhost"),
			Port:       config.Int("QDRANT_PORT", 6334),
			Collection: config.String("QDRANT_COLLECTION", defaultCollection),
			VectorSize: uint64(embedder.DefaultDimensions(embedder.Backend())),
			APIKey:     config.String("QDRANT_API_KEY", ""),
			UseTLS:     config.String("QDRANT_TLS", "") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("vector index: %w", err)
		}
		vs = qdrant
		log.Info("vector index: qdrant",
			slog.String("host", config.String("QDRANT_HOST", "localhost")),
			slog.String("collection", config.String("QDRANT_COLLECTION", defaultCollection)),
		)
	default:
		return nil, fmt.Errorf("vector index: unknown VECTOR_BACKEND %q, valid values: qdrant, memory", kind)
	}

	index, err := rag.NewIndexClient(vs, config.Duration("QUERY_TIMEOUT", rag.DefaultQueryTimeout))
	if err != nil {
		_ = vs.Close()
		return nil, err
	}

	return &backend{
		embed:  embed,
		index:  index,
		qdrant: qdrant,
		close: func() {
			if err := vs.Close(); err != nil {
				log.Warn("vector index: close failed", slog.Any("error", err))
			}
		},
	}, nil
}

// buildLedger opens the ingestion ledger. CARRIERFIT_LEDGER_DB overrides the
// default path (~/.carrierfit/ledger.db); "disabled" turns it off. Failures
// are logged and disable the ledger rather than aborting the command.
func buildLedger(log *slog.Logger) (store.Ledger, func()) {
	dbPath := config.String("CARRIERFIT_LEDGER_DB", "")
	if dbPath == "disabled" {
		log.Info("ledger: disabled via CARRIERFIT_LEDGER_DB=disabled")
		return nil, func() {}
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("ledger: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}
	ledger, err := store.Open(dbPath)
	if err != nil {
		log.Warn("ledger: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("ledger: store opened", slog.String("path", dbPath))
	return ledger, func() { _ = ledger.Close() }
}

// buildSource picks the document source and the ledger scope naming it.
// URLs win over a directory when both are given.
func buildSource(dir string, urls []string) (source.Store, string, error) {
	if len(urls) > 0 {
		s, err := source.NewURLStore(urls, config.Duration("FETCH_TIMEOUT", 60*time.Second))
		if err != nil {
			return nil, "", err
		}
		return s, "urls:" + strings.Join(urls, ","), nil
	}
	if dir == "" {
		return nil, "", fmt.Errorf("no document source: set --dir, --url or SOURCE_DIR")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	s, err := source.NewDirStore(abs)
	if err != nil {
		return nil, "", err
	}
	return s, "dir:" + abs, nil
}

// buildPipeline assembles the ingestion pipeline from the environment.
func buildPipeline(src source.Store, scope string, b *backend, ledger store.Ledger) (*ingestion.Pipeline, error) {
	ch, err := chunker.New(
		config.Int("CHUNK_SIZE", chunker.DefaultSize),
		config.Int("CHUNK_OVERLAP", chunker.DefaultOverlap),
	)
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(ingestion.Deps{
		Source:    src,
		Extractor: extract.NewRegistry(),
		Chunker:   ch,
		Embed:     b.embed,
		Index:     b.index,
		Pacer:     ingestion.NewRatePacer(config.Duration("INGEST_PACE", ingestion.DefaultPace)),
		Ledger:    ledger,
	}, ingestion.Config{
		MaxDocuments: config.Int("INGEST_MAX_DOCUMENTS", ingestion.DefaultMaxDocuments),
		MaxChunks:    config.Int("INGEST_MAX_CHUNKS", ingestion.DefaultMaxChunks),
		Extensions:   config.List("INGEST_EXTENSIONS", ingestion.DefaultExtensions),
		Scope:        scope,
	})
}

// buildRecommender initialises the chat provider and the recommender.
func buildRecommender(ctx context.Context, b *backend, log *slog.Logger) (*recommend.Recommender, *provider.ChatGenerator, *provider.Config, error) {
	gen, providerCfg, err := provider.NewGeneratorFromEnv(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	rec, err := recommend.New(b.embed, b.index, gen, recommend.Config{
		TopK:          config.Int("RECOMMEND_TOP_K", recommend.DefaultTopK),
		MaxResults:    config.Int("RECOMMEND_MAX_RESULTS", recommend.DefaultMaxResults),
		EvidenceChars: config.Int("RECOMMEND_EVIDENCE_CHARS", recommend.DefaultEvidenceChars),
		Concurrency:   config.Int("RECOMMEND_CONCURRENCY", recommend.DefaultConcurrency),
		MaxTokens:     config.Int("RECOMMEND_MAX_TOKENS", recommend.DefaultMaxTokens),
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return rec, gen, providerCfg, nil
}

// buildPingers constructs the ordered list of readiness probes.
func buildPingers(b *backend, gen provider.Generator, providerCfg *provider.Config) []server.Pinger {
	var pingers []server.Pinger
	if b.qdrant != nil {
		pingers = append(pingers, server.NewQdrantPinger(b.qdrant))
	}
	pingers = append(pingers, server.NewLLMPinger(provider.NewHealthCheck(providerCfg), gen, string(providerCfg.Backend)))
	return pingers
}
