package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/redactd/internal/util"
)

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ProjectDir is used to locate .redactd/config.toml. Defaults to CWD when empty.
	ProjectDir string
	// ConfigPath overrides the project config path if provided.
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dot-notated keys).
	FlagOverrides map[string]any
}

// Load returns the effective configuration after applying precedence:
// defaults < user (~/.redactd/config.toml) < project (.redactd/config.toml) < env (REDACTD_*) < flags.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	projectDir := opts.ProjectDir
	if projectDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectDir = cwd
		}
	}

	// 1) User config
	if err := mergeConfigFile(v, userConfigPath()); err != nil {
		return Config{}, err
	}
	// 2) Project config, with strict key checking so typos fail loudly
	projectPath := projectConfigPath(projectDir, opts.ConfigPath)
	if err := checkUnknownKeys(projectPath); err != nil {
		return Config{}, err
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return Config{}, err
	}
	// 3) Environment variables
	if err := applyEnvOverrides(v); err != nil {
		return Config{}, err
	}
	// 4) CLI flags (highest)
	for k, val := range opts.FlagOverrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	expandPaths(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// expandPaths resolves "~/" in every path-valued setting.
func expandPaths(cfg *Config) {
	cfg.Models.SpecializedPath = util.ExpandPath(cfg.Models.SpecializedPath)
	cfg.Models.GeneralPath = util.ExpandPath(cfg.Models.GeneralPath)
	cfg.Models.LabelOverrides = util.ExpandPath(cfg.Models.LabelOverrides)
	cfg.Wordlists.AlwaysRedactFile = util.ExpandPath(cfg.Wordlists.AlwaysRedactFile)
	cfg.Wordlists.AlwaysIgnoreFile = util.ExpandPath(cfg.Wordlists.AlwaysIgnoreFile)
}

// setDefaults seeds viper with built-in defaults.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("server.listen_addr", def.Server.ListenAddr)
	v.SetDefault("server.rate_limit_per_minute", def.Server.RateLimitPerMinute)
	v.SetDefault("server.cache_size", def.Server.CacheSize)
	v.SetDefault("server.cache_ttl_minutes", def.Server.CacheTTLMinutes)

	v.SetDefault("engine.threshold", def.Engine.Threshold)
	v.SetDefault("engine.max_input_chars", def.Engine.MaxInputChars)
	v.SetDefault("engine.workers", def.Engine.Workers)
	v.SetDefault("engine.detect_timeout_seconds", def.Engine.DetectTimeoutSecs)
	v.SetDefault("engine.chunk_max_tokens", def.Engine.ChunkMaxTokens)
	v.SetDefault("engine.chunk_overlap_tokens", def.Engine.ChunkOverlapTokens)

	v.SetDefault("models.specialized_path", def.Models.SpecializedPath)
	v.SetDefault("models.general_path", def.Models.GeneralPath)
	v.SetDefault("models.onnx_filename", def.Models.OnnxFilename)
	v.SetDefault("models.label_overrides", def.Models.LabelOverrides)

	v.SetDefault("wordlists.always_redact_file", def.Wordlists.AlwaysRedactFile)
	v.SetDefault("wordlists.always_ignore_file", def.Wordlists.AlwaysIgnoreFile)
	v.SetDefault("wordlists.watch", def.Wordlists.Watch)

	v.SetDefault("logging.level", def.Logging.Level)
}

// mergeConfigFile merges the TOML config file if it exists.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// checkUnknownKeys decodes the project config against the Config struct and
// rejects keys it does not define.
func checkUnknownKeys(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(names, ", "))
	}
	return nil
}

// applyEnvOverrides reads REDACTD_* env vars and applies them.
func applyEnvOverrides(v *viper.Viper) error {
	for _, binding := range envBindings {
		val := os.Getenv(binding.Env)
		if val == "" {
			continue
		}
		parsed, err := parseValueByKind(val, binding.Kind)
		if err != nil {
			return fmt.Errorf("env %s: %w", binding.Env, err)
		}
		v.Set(binding.Key, parsed)
	}
	return nil
}

// ConfigPaths returns the user and project config file paths.
func ConfigPaths(projectDir, configOverride string) (string, string) {
	return userConfigPath(), projectConfigPath(projectDir, configOverride)
}

func userConfigPath() string {
	dir, err := util.RedactdDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	if projectDir == "" {
		return ".redactd/config.toml"
	}
	return filepath.Join(projectDir, ".redactd", "config.toml")
}

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindFloat
)

var envBindings = []struct {
	Env  string
	Key  string
	Kind valueKind
}{
	{"REDACTD_LISTEN_ADDR", "server.listen_addr", kindString},
	{"REDACTD_RATE_LIMIT_PER_MINUTE", "server.rate_limit_per_minute", kindInt},
	{"REDACTD_CACHE_SIZE", "server.cache_size", kindInt},
	{"REDACTD_CACHE_TTL_MINUTES", "server.cache_ttl_minutes", kindInt},

	{"REDACTD_THRESHOLD", "engine.threshold", kindFloat},
	{"REDACTD_MAX_INPUT_CHARS", "engine.max_input_chars", kindInt},
	{"REDACTD_WORKERS", "engine.workers", kindInt},
	{"REDACTD_DETECT_TIMEOUT_SECONDS", "engine.detect_timeout_seconds", kindInt},
	{"REDACTD_CHUNK_MAX_TOKENS", "engine.chunk_max_tokens", kindInt},
	{"REDACTD_CHUNK_OVERLAP_TOKENS", "engine.chunk_overlap_tokens", kindInt},

	{"REDACTD_MODEL_SPECIALIZED_PATH", "models.specialized_path", kindString},
	{"REDACTD_MODEL_GENERAL_PATH", "models.general_path", kindString},
	{"REDACTD_MODEL_ONNX_FILENAME", "models.onnx_filename", kindString},
	{"REDACTD_LABEL_OVERRIDES", "models.label_overrides", kindString},

	{"REDACTD_ALWAYS_REDACT_FILE", "wordlists.always_redact_file", kindString},
	{"REDACTD_ALWAYS_IGNORE_FILE", "wordlists.always_ignore_file", kindString},
	{"REDACTD_WORDLISTS_WATCH", "wordlists.watch", kindBool},

	{"REDACTD_LOG_LEVEL", "logging.level", kindString},
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected boolean: %w", err)
		}
		return v, nil
	case kindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected integer: %w", err)
		}
		return v, nil
	case kindFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("expected number: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value kind")
	}
}
