package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/carrierfit/internal/logging"
)

// NewLedgerCmd constructs the `carrierfit ledger` command, which prints the
// ingestion ledger: per-document outcomes and the recent runs of a source.
func NewLedgerCmd() *cobra.Command {
	var dir string
	var runs int

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show ingested documents and recent ingestion runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			ledger, closeLedger := buildLedger(log)
			defer closeLedger()
			if ledger == nil {
				return fmt.Errorf("ledger: not available")
			}

			docs, err := ledger.Documents(ctx)
			if err != nil {
				return fmt.Errorf("ledger: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DOCUMENT\tCARRIER\tSTATUS\tCHUNKS\tVECTORS\tINGESTED")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					d.SourceKey, d.CarrierID, d.Status, d.Chunks, d.Vectors, d.IngestedAt.Format(time.RFC3339))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if dir == "" {
				return nil
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("ledger: %w", err)
			}
			scope := "dir:" + abs
			recent, err := ledger.RecentRuns(ctx, scope, runs)
			if err != nil {
				return fmt.Errorf("ledger: %w", err)
			}
			cursor, err := ledger.Cursor(ctx, scope)
			if err != nil {
				return fmt.Errorf("ledger: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%s (next offset %d)\n", scope, cursor)
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tOFFSET\tDOCS\tVECTORS\tFAILED\tNEXT\tDONE")
			for _, r := range recent {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%t\n",
					r.StartedAt.Format(time.RFC3339), r.Offset, r.Documents, r.Inserted, r.Failed, r.NextOffset, r.Done)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Also show recent runs for this source directory")
	cmd.Flags().IntVar(&runs, "runs", 10, "Number of recent runs to show")

	return cmd
}
