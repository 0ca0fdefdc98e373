package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for semantic errors.
func Validate(cfg Config) error {
	var errs []string

	if cfg.Server.ListenAddr == "" {
		errs = append(errs, "server.listen_addr must not be empty")
	}
	if cfg.Server.RateLimitPerMinute < 0 {
		errs = append(errs, "server.rate_limit_per_minute cannot be negative")
	}
	if cfg.Server.CacheSize < 0 {
		errs = append(errs, "server.cache_size cannot be negative")
	}
	if cfg.Server.CacheTTLMinutes < 0 {
		errs = append(errs, "server.cache_ttl_minutes cannot be negative")
	}

	if cfg.Engine.Threshold < 0 || cfg.Engine.Threshold > 1 {
		errs = append(errs, "engine.threshold must be in [0, 1]")
	}
	if cfg.Engine.MaxInputChars <= 0 {
		errs = append(errs, "engine.max_input_chars must be > 0")
	}
	if cfg.Engine.Workers <= 0 {
		errs = append(errs, "engine.workers must be > 0")
	}
	if cfg.Engine.DetectTimeoutSecs <= 0 {
		errs = append(errs, "engine.detect_timeout_seconds must be > 0")
	}
	if cfg.Engine.ChunkMaxTokens <= 0 {
		errs = append(errs, "engine.chunk_max_tokens must be > 0")
	}
	if cfg.Engine.ChunkOverlapTokens < 0 {
		errs = append(errs, "engine.chunk_overlap_tokens cannot be negative")
	}
	if cfg.Engine.ChunkOverlapTokens >= cfg.Engine.ChunkMaxTokens {
		errs = append(errs, "engine.chunk_overlap_tokens must be smaller than engine.chunk_max_tokens")
	}

	if cfg.Models.GeneralPath != "" && cfg.Models.SpecializedPath == "" {
		errs = append(errs, "models.general_path requires models.specialized_path")
	}
	if (cfg.Models.SpecializedPath != "" || cfg.Models.GeneralPath != "") && cfg.Models.OnnxFilename == "" {
		errs = append(errs, "models.onnx_filename must not be empty when model paths are set")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		errs = append(errs, "logging.level must be one of debug|info|warn|error|fatal")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
