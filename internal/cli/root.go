// Package cli implements the redactd command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/redactd/internal/config"
	"github.com/Dicklesworthstone/redactd/internal/detect"
	"github.com/Dicklesworthstone/redactd/internal/detect/model"
	"github.com/Dicklesworthstone/redactd/internal/engine"
	"github.com/Dicklesworthstone/redactd/internal/entity"
	"github.com/Dicklesworthstone/redactd/internal/logging"
	"github.com/Dicklesworthstone/redactd/internal/metrics"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	flagConfigPath string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "redactd",
	Short: "Reversible PII redaction for text",
	Long: `redactd detects personally identifiable information in text and replaces
it with placeholder tokens that can later be swapped back for the originals.

Detection combines a fixed pattern table (emails, phone numbers, card
numbers, ...) with optional ONNX token-classification models for names,
organizations, and locations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to config file (default: .redactd/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig applies the global flags on top of the layered config.
func loadConfig() (config.Config, error) {
	overrides := map[string]any{}
	if flagLogLevel != "" {
		overrides["logging.level"] = flagLogLevel
	}
	return config.Load(config.LoadOptions{
		ConfigPath:    flagConfigPath,
		FlagOverrides: overrides,
	})
}

func newLogger(cfg config.Config, prefix string) *log.Logger {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Prefix: prefix,
	})
}

// buildEngine assembles the pipeline from config. The returned loader is nil
// when no models are configured; callers use it for health reporting and
// shutdown.
func buildEngine(cfg config.Config, logger *log.Logger, col *metrics.Collector) (*engine.Engine, *model.Loader, error) {
	var (
		loader      *model.Loader
		specialized detect.Detector
		general     detect.Detector
	)
	if cfg.Models.SpecializedPath != "" {
		loader = model.NewLoader(model.Config{
			SpecializedPath: cfg.Models.SpecializedPath,
			GeneralPath:     cfg.Models.GeneralPath,
			OnnxFilename:    cfg.Models.OnnxFilename,
		})
		specialized = model.NewSpecialized(loader)
		if cfg.Models.GeneralPath != "" {
			general = model.NewGeneral(loader)
		}
	}

	normalizer := entity.NewNormalizer()
	if cfg.Models.LabelOverrides != "" {
		overrides, err := entity.LoadLabelOverrides(cfg.Models.LabelOverrides)
		if err != nil {
			return nil, nil, fmt.Errorf("load label overrides: %w", err)
		}
		normalizer = entity.NewNormalizerWithOverrides(overrides)
	}

	eng := engine.New(engine.Options{
		Specialized:   specialized,
		General:       general,
		Normalizer:    normalizer,
		MaxTokens:     cfg.Engine.ChunkMaxTokens,
		OverlapTokens: cfg.Engine.ChunkOverlapTokens,
		Workers:       cfg.Engine.Workers,
		DetectTimeout: time.Duration(cfg.Engine.DetectTimeoutSecs) * time.Second,
		MaxInputLen:   cfg.Engine.MaxInputChars,
		Logger:        logger,
		Metrics:       col,
	})
	return eng, loader, nil
}
