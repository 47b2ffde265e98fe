package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/54b3r/carrierfit/internal/logging"
	"github.com/54b3r/carrierfit/internal/recommend"
	"github.com/54b3r/carrierfit/internal/tracing"
)

// NewRecommendCmd constructs the `carrierfit recommend` command, which scores
// one client profile against the indexed guidelines and prints the ranked
// recommendations as JSON.
func NewRecommendCmd() *cobra.Command {
	var profilePath string

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Score a client profile against the indexed carrier guidelines",
		Long: `Read a client profile (JSON) and print ranked carrier recommendations.

Example profile:
  {"age": 52, "state": "TX", "nicotine": "no", "diabetes": "type 2, controlled",
   "coverageAmount": 500000, "coverageType": "term", "termYears": 20}

Examples:
  carrierfit recommend --profile client.json
  cat client.json | carrierfit recommend --profile -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			profile, err := readProfile(profilePath, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			flush := tracing.Enable(log)
			defer flush()

			b, err := buildBackend(ctx, log)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}
			defer b.close()

			rec, _, _, err := buildRecommender(ctx, b, log)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			resp, err := rec.Recommend(ctx, profile)
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "f", "", `Client profile JSON file, or "-" for stdin`)
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

// readProfile decodes a ClientProfile from path, or from stdin when path is "-".
func readProfile(path string, stdin io.Reader) (recommend.ClientProfile, error) {
	var p recommend.ClientProfile
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return p, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return p, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}
