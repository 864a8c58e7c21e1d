package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/keepsakehq/keepsake/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the KEEPSAKE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (KEEPSAKE_GRAPH_URL, KEEPSAKE_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: KEEPSAKE_STORAGE_PROVIDER, KEEPSAKE_GRAPH_URL, etc.
	v.SetEnvPrefix("KEEPSAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_url", d.Storage.PostgresURL)

	// Graph
	v.SetDefault("graph.url", d.Graph.URL)
	v.SetDefault("graph.timeout_seconds", d.Graph.TimeoutSeconds)

	// Dedup
	v.SetDefault("dedup.window", d.Dedup.Window)
	v.SetDefault("dedup.threshold", d.Dedup.Threshold)
	v.SetDefault("dedup.short_query_tokens", d.Dedup.ShortQueryTokens)

	// Memory
	v.SetDefault("memory.max_content_len", d.Memory.MaxContentLen)
	v.SetDefault("memory.topic_rules_path", d.Memory.TopicRulesPath)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.mcp_listen", d.API.MCPListen)

	// Events
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}

// FromViper materializes a Config from a configured viper instance.
// Values are read key by key so the TOML tags on Config stay the single
// naming authority.
func FromViper(v *viper.Viper) Config {
	return Config{
		Version: v.GetInt("version"),
		Storage: StorageConfig{
			Provider:    v.GetString("storage.provider"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresURL: v.GetString("storage.postgres_url"),
		},
		Graph: GraphConfig{
			URL:            v.GetString("graph.url"),
			TimeoutSeconds: v.GetInt("graph.timeout_seconds"),
		},
		Dedup: DedupConfig{
			Window:           v.GetInt("dedup.window"),
			Threshold:        v.GetFloat64("dedup.threshold"),
			ShortQueryTokens: v.GetInt("dedup.short_query_tokens"),
		},
		Memory: MemoryConfig{
			MaxContentLen:  v.GetInt("memory.max_content_len"),
			TopicRulesPath: v.GetString("memory.topic_rules_path"),
		},
		API: APIConfig{
			Listen:    v.GetString("api.listen"),
			MCPListen: v.GetString("api.mcp_listen"),
		},
		Events: EventsConfig{
			Brokers: v.GetStringSlice("events.brokers"),
			Topic:   v.GetString("events.topic"),
		},
	}
}
