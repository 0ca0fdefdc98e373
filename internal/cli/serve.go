package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/redactd/internal/metrics"
	"github.com/Dicklesworthstone/redactd/internal/serve"
)

var flagServeAddr string

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the redaction HTTP server",
	Long: `Start the HTTP API: POST /api/redact and /api/restore, health probes
under /api/health, and Prometheus metrics at /metrics. The server stops
gracefully on SIGINT/SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagServeAddr != "" {
			cfg.Server.ListenAddr = flagServeAddr
		}

		logger := newLogger(cfg, "serve")
		col := metrics.NewCollector()

		eng, loader, err := buildEngine(cfg, logger, col)
		if err != nil {
			return err
		}
		if loader != nil {
			defer loader.Reset()
		}

		var wordlists *serve.WordlistStore
		if cfg.Wordlists.AlwaysRedactFile != "" || cfg.Wordlists.AlwaysIgnoreFile != "" {
			wordlists, err = serve.NewWordlistStore(
				cfg.Wordlists.AlwaysRedactFile, cfg.Wordlists.AlwaysIgnoreFile, logger)
			if err != nil {
				return err
			}
			if cfg.Wordlists.Watch {
				if err := wordlists.Watch(); err != nil {
					logger.Warn("wordlist watching disabled", "err", err)
				}
				defer wordlists.Close()
			}
		}

		var modelLoaded func() bool
		if loader != nil {
			modelLoaded = loader.Loaded
		}

		srv := serve.New(serve.Config{
			Engine:             eng,
			ListenAddr:         cfg.Server.ListenAddr,
			Version:            Version,
			RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
			CacheSize:          cfg.Server.CacheSize,
			CacheTTL:           time.Duration(cfg.Server.CacheTTLMinutes) * time.Minute,
			Wordlists:          wordlists,
			ModelLoaded:        modelLoaded,
			Logger:             logger,
			Metrics:            col,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if loader != nil {
			go func() {
				warmCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				defer cancel()
				srv.Warmup(warmCtx)
			}()
		}

		return srv.ListenAndServe(ctx)
	},
}
