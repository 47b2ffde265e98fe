package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/carrierfit/internal/config"
	"github.com/54b3r/carrierfit/internal/logging"
	"github.com/54b3r/carrierfit/internal/server"
	"github.com/54b3r/carrierfit/internal/tracing"
)

// startupCheckTimeout bounds the dependency probe run before listening.
const startupCheckTimeout = 10 * time.Second

// NewServeCmd constructs the `carrierfit serve` command, which starts the
// HTTP API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the carrierfit HTTP API",
		Long: `Start the carrierfit HTTP API.

Endpoints:
  POST /api/recommend   Score a client profile (rate limited per client IP)
  POST /api/ingest      Index one page of guidelines from SOURCE_DIR
                        (Bearer CARRIERFIT_API_KEY when set)
  GET  /api/health      Liveness
  GET  /api/ready       Readiness of the model provider and Qdrant
  GET  /metrics         Prometheus metrics

POST /api/ingest is only enabled when SOURCE_DIR is set.

Examples:
  carrierfit serve
  carrierfit serve --port 9090
  SOURCE_DIR=./guides VECTOR_BACKEND=memory carrierfit serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log := logging.FromContext(ctx)

			flush := tracing.Enable(log)
			defer flush()

			b, err := buildBackend(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer b.close()

			rec, gen, providerCfg, err := buildRecommender(ctx, b, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := buildPingers(b, gen, providerCfg)
			checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
			if err := server.NewMultiPinger(pingers...).Ping(checkCtx); err != nil {
				log.Warn("serve: dependency check failed, /api/ready will report not ready", slog.Any("error", err))
			}
			cancel()

			if !cmd.Flags().Changed("host") {
				host = config.String("CARRIERFIT_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = config.Int("CARRIERFIT_PORT", port)
			}
			srvCfg := &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  config.String("CARRIERFIT_API_KEY", ""),
			}

			var srv *server.Server
			if dir := config.String("SOURCE_DIR", ""); dir != "" {
				src, scope, err := buildSource(dir, nil)
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				ledger, closeLedger := buildLedger(log)
				defer closeLedger()

				pipeline, err := buildPipeline(src, scope, b, ledger)
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				log.Info("serve: ingestion enabled", slog.String("scope", scope))
				srv, err = server.New(rec, pipeline, srvCfg)
				if err != nil {
					return fmt.Errorf("serve: failed to create server: %w", err)
				}
			} else {
				log.Info("serve: ingestion disabled, SOURCE_DIR not set")
				srv, err = server.New(rec, nil, srvCfg)
				if err != nil {
					return fmt.Errorf("serve: failed to create server: %w", err)
				}
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (default: CARRIERFIT_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on (default: CARRIERFIT_PORT)")

	return cmd
}
