// Package ingestion implements the guideline ingestion pipeline: it lists
// source documents, extracts their text, chunks it, embeds each chunk and
// upserts the resulting vector records, tagged with the carrier id derived
// from the document key. It is invoked by `carrierfit ingest` and by
// POST /api/ingest.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/54b3r/carrierfit/internal/carrier"
	"github.com/54b3r/carrierfit/internal/chunker"
	"github.com/54b3r/carrierfit/internal/extract"
	"github.com/54b3r/carrierfit/internal/logging"
	"github.com/54b3r/carrierfit/internal/rag"
	"github.com/54b3r/carrierfit/internal/source"
	"github.com/54b3r/carrierfit/internal/store"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxDocuments = 5
	DefaultMaxChunks    = 10
)

// DefaultExtensions are the recognised document types.
var DefaultExtensions = []string{".pdf"}

// Config holds the ingestion caps.
type Config struct {
	// MaxDocuments is the page size when Options.Limit is zero.
	MaxDocuments int
	// MaxChunks is how many chunks per document are embedded and indexed.
	MaxChunks int
	// Extensions lists recognised document extensions, matched
	// case-insensitively.
	Extensions []string
	// Scope names the source for the ledger cursor (e.g. "dir:/srv/guides").
	Scope string
}

// Options selects the page of recognised documents to ingest.
type Options struct {
	// Offset is the index of the first recognised document to process.
	Offset int
	// Limit is the maximum number of documents to process (0 = MaxDocuments).
	Limit int
	// Progress, when set, receives one human-readable line per document.
	Progress func(msg string)
}

// Result summarises one ingestion page.
type Result struct {
	// Inserted is the number of vectors upserted.
	Inserted int `json:"insertedVectorCount"`
	// Documents is the number of documents processed in this page.
	Documents int `json:"documents"`
	// Failed is the number of documents for which nothing was upserted.
	Failed int `json:"failed"`
	// Placeholders is the number of documents indexed with placeholder text.
	Placeholders int `json:"placeholders"`
	// Total is the number of recognised documents in the source.
	Total int `json:"total"`
	// NextOffset is the offset of the first unprocessed document.
	NextOffset int `json:"nextOffset"`
	// Done is true when no recognised documents remain after this page.
	Done bool `json:"done"`
}

// Pipeline orchestrates fetch → extract → chunk → embed → upsert.
type Pipeline struct {
	source    source.Store
	extractor extract.Extractor
	chunker   *chunker.Chunker
	embed     *rag.EmbeddingClient
	index     *rag.IndexClient
	pacer     Pacer
	ledger    store.Ledger
	cfg       Config
}

// Deps are the collaborators of a Pipeline. Ledger and Pacer are optional.
type Deps struct {
	Source    source.Store
	Extractor extract.Extractor
	Chunker   *chunker.Chunker
	Embed     *rag.EmbeddingClient
	Index     *rag.IndexClient
	Pacer     Pacer
	Ledger    store.Ledger
}

// NewPipeline validates deps and applies defaults to cfg.
func NewPipeline(deps Deps, cfg Config) (*Pipeline, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("ingestion: source must not be nil")
	}
	if deps.Embed == nil {
		return nil, fmt.Errorf("ingestion: embedding client must not be nil")
	}
	if deps.Index == nil {
		return nil, fmt.Errorf("ingestion: index client must not be nil")
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.NewRegistry()
	}
	if deps.Chunker == nil {
		deps.Chunker = chunker.Default()
	}
	if deps.Pacer == nil {
		deps.Pacer = NewRatePacer(DefaultPace)
	}
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = DefaultMaxDocuments
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultMaxChunks
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	exts := make([]string, 0, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	cfg.Extensions = exts
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}

	return &Pipeline{
		source:    deps.Source,
		extractor: deps.Extractor,
		chunker:   deps.Chunker,
		embed:     deps.Embed,
		index:     deps.Index,
		pacer:     deps.Pacer,
		ledger:    deps.Ledger,
		cfg:       cfg,
	}, nil
}

// Scope returns the ledger scope of this pipeline.
func (p *Pipeline) Scope() string { return p.cfg.Scope }

// Cursor returns the ledger's resume offset, or 0 without a ledger.
func (p *Pipeline) Cursor(ctx context.Context) (int, error) {
	if p.ledger == nil {
		return 0, nil
	}
	return p.ledger.Cursor(ctx, p.cfg.Scope)
}

// Ingest processes one page of recognised documents. Per-document failures
// are logged and counted; only listing failures and cancellation are
// returned as errors.
func (p *Pipeline) Ingest(ctx context.Context, opts Options) (*Result, error) {
	log := logging.FromContext(ctx)
	progress := opts.Progress
	if progress == nil {
		progress = func(string) {}
	}
	started := time.Now()

	all, err := p.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingestion: list documents: %w", err)
	}
	docs := p.recognised(all)

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(docs) {
		offset = len(docs)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = p.cfg.MaxDocuments
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	page := docs[offset:end]

	log.Info("ingestion: starting",
		slog.Int("recognised", len(docs)),
		slog.Int("offset", offset),
		slog.Int("page_size", len(page)),
	)

	res := &Result{Total: len(docs), NextOffset: offset}
	for i, doc := range page {
		if i > 0 {
			if err := p.pacer.Wait(ctx); err != nil {
				return res, fmt.Errorf("ingestion: interrupted before %s: %w", doc.Key, err)
			}
		}

		rec := p.ingestDocument(ctx, doc)
		res.Documents++
		res.NextOffset++
		res.Inserted += rec.Vectors
		switch rec.Status {
		case store.StatusFailed:
			res.Failed++
			progress(fmt.Sprintf("failed %s: %s", doc.Key, rec.Error))
		case store.StatusPlaceholder:
			res.Placeholders++
			progress(fmt.Sprintf("indexed %s (placeholder text, %d vectors)", doc.Key, rec.Vectors))
		default:
			progress(fmt.Sprintf("indexed %s (%d vectors)", doc.Key, rec.Vectors))
		}

		if p.ledger != nil {
			if err := p.ledger.RecordDocument(ctx, rec); err != nil {
				log.Warn("ingestion: ledger write failed", slog.String("source_key", doc.Key), slog.Any("error", err))
			}
		}
	}
	res.Done = res.NextOffset >= len(docs)

	if p.ledger != nil {
		run := store.Run{
			Scope:      p.cfg.Scope,
			Offset:     offset,
			Documents:  res.Documents,
			Inserted:   res.Inserted,
			Failed:     res.Failed,
			NextOffset: res.NextOffset,
			Done:       res.Done,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if err := p.ledger.RecordRun(ctx, run); err != nil {
			log.Warn("ingestion: ledger run write failed", slog.Any("error", err))
		}
	}

	log.Info("ingestion: complete",
		slog.Int("inserted", res.Inserted),
		slog.Int("documents", res.Documents),
		slog.Int("failed", res.Failed),
		slog.Int("next_offset", res.NextOffset),
		slog.Bool("done", res.Done),
		slog.Duration("duration", time.Since(started)),
	)
	return res, nil
}

// IngestAll runs pages from opts.Offset until the source is exhausted,
// summing the results.
func (p *Pipeline) IngestAll(ctx context.Context, opts Options) (*Result, error) {
	total := &Result{NextOffset: opts.Offset}
	for {
		res, err := p.Ingest(ctx, opts)
		if res != nil {
			total.Inserted += res.Inserted
			total.Documents += res.Documents
			total.Failed += res.Failed
			total.Placeholders += res.Placeholders
			total.Total = res.Total
			total.NextOffset = res.NextOffset
			total.Done = res.Done
		}
		if err != nil {
			return total, err
		}
		if res.Done || res.Documents == 0 {
			return total, nil
		}
		if err := p.pacer.Wait(ctx); err != nil {
			return total, fmt.Errorf("ingestion: interrupted between pages: %w", err)
		}
		opts.Offset = res.NextOffset
	}
}

// recognised filters docs to the configured extensions, preserving order.
func (p *Pipeline) recognised(docs []source.Document) []source.Document {
	out := make([]source.Document, 0, len(docs))
	for _, d := range docs {
		ext := strings.ToLower(path.Ext(d.Key))
		for _, want := range p.cfg.Extensions {
			if ext == want {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// ingestDocument runs one document through the pipeline and reports its
// outcome. It never returns an error: failures are logged and recorded.
func (p *Pipeline) ingestDocument(ctx context.Context, doc source.Document) store.DocumentRecord {
	ctx, log := logging.With(ctx, slog.String("source_key", doc.Key))
	carrierID := carrier.ID(doc.Key)
	rec := store.DocumentRecord{SourceKey: doc.Key, CarrierID: carrierID, Status: store.StatusIndexed}

	data, err := p.source.Fetch(ctx, doc.Key)
	if err != nil {
		log.Warn("ingestion: fetch failed", slog.Any("error", err))
		rec.Status, rec.Error = store.StatusFailed, err.Error()
		return rec
	}

	text, err := p.extractor.Extract(ctx, doc.Key, data)
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn("ingestion: extraction yielded no text, using placeholder", slog.Any("error", err))
		text = carrier.PlaceholderText(doc.Key)
		rec.Status = store.StatusPlaceholder
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) > p.cfg.MaxChunks {
		chunks = chunks[:p.cfg.MaxChunks]
	}
	rec.Chunks = len(chunks)

	records := make([]rag.VectorRecord, 0, len(chunks))
	for ordinal, chunk := range chunks {
		vec := p.embed.Embed(ctx, chunk)
		if len(vec) == 0 {
			continue
		}
		records = append(records, rag.VectorRecord{
			ID:     carrier.RecordID(doc.Key, ordinal),
			Vector: vec,
			Metadata: rag.Metadata{
				CarrierID: carrierID,
				SourceKey: doc.Key,
				Text:      chunk,
			},
		})
	}

	if len(records) == 0 {
		err := errors.New("no chunk could be embedded")
		log.Warn("ingestion: skipping document", slog.Any("error", err))
		rec.Status, rec.Error = store.StatusFailed, err.Error()
		return rec
	}

	if err := p.index.Upsert(ctx, records); err != nil {
		log.Error("ingestion: upsert failed", slog.Int("records", len(records)), slog.Any("error", err))
		rec.Status, rec.Error = store.StatusFailed, err.Error()
		return rec
	}

	rec.Vectors = len(records)
	log.Debug("ingestion: document indexed",
		slog.String("carrier_id", carrierID),
		slog.Int("chunks", rec.Chunks),
		slog.Int("vectors", rec.Vectors),
	)
	return rec
}
