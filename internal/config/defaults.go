package config

// DefaultConfig returns the built-in defaults applied before any file, env,
// or flag overrides.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:         ":8742",
			RateLimitPerMinute: 60,
			CacheSize:          100,
			CacheTTLMinutes:    60,
		},
		Engine: EngineConfig{
			Threshold:          0.5,
			MaxInputChars:      50000,
			Workers:            4,
			DetectTimeoutSecs:  30,
			ChunkMaxTokens:     500,
			ChunkOverlapTokens: 50,
		},
		Models: ModelsConfig{
			OnnxFilename: "model.onnx",
		},
		Wordlists: WordlistsConfig{
			Watch: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
