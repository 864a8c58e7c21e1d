package config

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// NewDefaultConfig returns the configuration used when no file, env var,
// or flag overrides a value.
func NewDefaultConfig() Config {
	return Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: "sqlite",
		},
		Graph: GraphConfig{
			TimeoutSeconds: 10,
		},
		Dedup: DedupConfig{
			Window:           100,
			Threshold:        0.8,
			ShortQueryTokens: 3,
		},
		Memory: MemoryConfig{
			MaxContentLen: 500,
		},
		API: APIConfig{
			Listen:    ":8450",
			MCPListen: ":8451",
		},
		Events: EventsConfig{
			Topic: "keepsake.memory.events",
		},
	}
}
