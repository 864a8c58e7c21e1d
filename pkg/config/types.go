// Package config defines the persistent keepsake configuration and its
// layering: defaults, the config.toml file in the dot directory,
// KEEPSAKE_* environment variables, and CLI flags, in ascending
// precedence.
package config

// Config represents the persistent keepsake configuration stored as
// config.toml in the .keepsake/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	Graph   GraphConfig   `toml:"graph"`
	Dedup   DedupConfig   `toml:"dedup"`
	Memory  MemoryConfig  `toml:"memory"`
	API     APIConfig     `toml:"api"`
	Events  EventsConfig  `toml:"events"`
}

// StorageConfig selects and targets the local store driver.
type StorageConfig struct {
	// Provider is one of "sqlite", "postgres", "inmemory".
	Provider string `toml:"provider,omitempty"`

	// SQLitePath is the database file path for the sqlite provider.
	// Empty means <dotdir>/keepsake.db.
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// PostgresURL is the connection string for the postgres provider.
	PostgresURL string `toml:"postgres_url,omitempty"`
}

// GraphConfig targets the graph-memory service.
type GraphConfig struct {
	// URL is the service base URL. Empty disables graph sync entirely.
	URL string `toml:"url,omitempty"`

	// TimeoutSeconds bounds each graph request.
	TimeoutSeconds int `toml:"timeout_seconds,omitempty"`
}

// DedupConfig exposes the duplicate-detection tunables.
type DedupConfig struct {
	Window           int     `toml:"window,omitempty"`
	Threshold        float64 `toml:"threshold,omitempty"`
	ShortQueryTokens int     `toml:"short_query_tokens,omitempty"`
}

// MemoryConfig holds content and classification settings.
type MemoryConfig struct {
	// MaxContentLen caps memory content length in characters.
	MaxContentLen int `toml:"max_content_len,omitempty"`

	// TopicRulesPath optionally replaces the built-in topic rule table
	// with a TOML rule file.
	TopicRulesPath string `toml:"topic_rules_path,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen    string `toml:"listen,omitempty"`
	MCPListen string `toml:"mcp_listen,omitempty"`
}

// EventsConfig targets the optional Kafka event stream.
type EventsConfig struct {
	// Brokers lists Kafka broker addresses. Empty disables publishing.
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}
