package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/carrierfit/internal/config"
	"github.com/54b3r/carrierfit/internal/ingestion"
	"github.com/54b3r/carrierfit/internal/logging"
)

// NewIngestCmd constructs the `carrierfit ingest` command, which indexes one
// page (or, with --all, every page) of carrier guideline documents.
func NewIngestCmd() *cobra.Command {
	var (
		dir    string
		urls   []string
		offset int
		limit  int
		resume bool
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index carrier underwriting guidelines into the vector index",
		Long: `Extract, chunk, embed and index carrier guideline documents.

Documents are read from a directory (--dir or SOURCE_DIR) or from a list of
URLs (--url, repeatable). The carrier id of each document is derived from its
file name, e.g. "acme-life_term-guide.pdf" belongs to carrier "acme-life".

Documents are processed in pages of INGEST_MAX_DOCUMENTS. Use --offset to
pick a page, --resume to continue where the previous run stopped, or --all to
process every remaining page.

Environment:
  SOURCE_DIR             Default document directory
  VECTOR_BACKEND         qdrant (default) or memory
  QDRANT_HOST/PORT       Qdrant gRPC endpoint (default: localhost:6334)
  QDRANT_COLLECTION      Collection name (default: carrier-guidelines)
  EMBEDDING_*            Embedding backend overrides
  INGEST_MAX_DOCUMENTS   Page size (default: 5)
  INGEST_MAX_CHUNKS      Chunks indexed per document (default: 10)
  INGEST_PACE            Minimum interval between documents (default: 1s)
  CARRIERFIT_LEDGER_DB   Ledger path, or "disabled"

Examples:
  carrierfit ingest --dir ./guides
  carrierfit ingest --dir ./guides --resume
  carrierfit ingest --url https://example.com/acme-life_term.pdf --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log := logging.FromContext(ctx)

			if offset < 0 || limit < 0 {
				return fmt.Errorf("ingest: --offset and --limit must not be negative")
			}
			if dir == "" {
				dir = config.String("SOURCE_DIR", "")
			}
			src, scope, err := buildSource(dir, urls)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			b, err := buildBackend(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer b.close()

			ledger, closeLedger := buildLedger(log)
			defer closeLedger()

			pipeline, err := buildPipeline(src, scope, b, ledger)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			if resume && !cmd.Flags().Changed("offset") {
				offset, err = pipeline.Cursor(ctx)
				if err != nil {
					return fmt.Errorf("ingest: read ledger cursor: %w", err)
				}
				log.Info("ingest: resuming", slog.String("scope", scope), slog.Int("offset", offset))
			}

			opts := ingestion.Options{
				Offset: offset,
				Limit:  limit,
				Progress: func(msg string) {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				},
			}
			run := pipeline.Ingest
			if all {
				run = pipeline.IngestAll
			}
			res, err := run(ctx, opts)
			if err != nil && res == nil {
				return fmt.Errorf("ingest: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(res); encErr != nil {
				return encErr
			}
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			if res.Documents > 0 && res.Failed == res.Documents {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: every document in this page failed, see the log for details")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory of guideline documents (default: SOURCE_DIR)")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "Guideline document URL (repeatable)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Index of the first recognised document to process")
	cmd.Flags().IntVar(&limit, "limit", 0, "Documents per page (default: INGEST_MAX_DOCUMENTS)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Start from the ledger cursor of this source")
	cmd.Flags().BoolVar(&all, "all", false, "Process every remaining page")

	return cmd
}
