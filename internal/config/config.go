// Package config implements hierarchical configuration for redactd.
// Precedence: defaults < user (~/.redactd/config.toml) < project
// (.redactd/config.toml) < env (REDACTD_*) < flags.
package config

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server" mapstructure:"server"`
	Engine    EngineConfig    `toml:"engine" mapstructure:"engine"`
	Models    ModelsConfig    `toml:"models" mapstructure:"models"`
	Wordlists WordlistsConfig `toml:"wordlists" mapstructure:"wordlists"`
	Logging   LoggingConfig   `toml:"logging" mapstructure:"logging"`
}

// ServerConfig holds HTTP serving settings.
type ServerConfig struct {
	ListenAddr         string `toml:"listen_addr" mapstructure:"listen_addr"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	CacheSize          int    `toml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMinutes    int    `toml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// EngineConfig holds pipeline knobs.
type EngineConfig struct {
	Threshold            float64 `toml:"threshold" mapstructure:"threshold"`
	MaxInputChars        int     `toml:"max_input_chars" mapstructure:"max_input_chars"`
	Workers              int     `toml:"workers" mapstructure:"workers"`
	DetectTimeoutSecs    int     `toml:"detect_timeout_seconds" mapstructure:"detect_timeout_seconds"`
	ChunkMaxTokens       int     `toml:"chunk_max_tokens" mapstructure:"chunk_max_tokens"`
	ChunkOverlapTokens   int     `toml:"chunk_overlap_tokens" mapstructure:"chunk_overlap_tokens"`
}

// ModelsConfig points at the ONNX models on disk. Empty paths disable the
// statistical detectors; the engine then runs pattern-only.
type ModelsConfig struct {
	SpecializedPath string `toml:"specialized_path" mapstructure:"specialized_path"`
	GeneralPath     string `toml:"general_path" mapstructure:"general_path"`
	OnnxFilename    string `toml:"onnx_filename" mapstructure:"onnx_filename"`
	LabelOverrides  string `toml:"label_overrides" mapstructure:"label_overrides"` // yaml file: provider label -> category
}

// WordlistsConfig points at user word list files (one word per line, yaml
// list, or comma separated — see wordlist loader).
type WordlistsConfig struct {
	AlwaysRedactFile string `toml:"always_redact_file" mapstructure:"always_redact_file"`
	AlwaysIgnoreFile string `toml:"always_ignore_file" mapstructure:"always_ignore_file"`
	Watch            bool   `toml:"watch" mapstructure:"watch"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `toml:"level" mapstructure:"level"` // debug | info | warn | error
}
