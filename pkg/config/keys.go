package config

import (
	"fmt"
	"strconv"
	"strings"
)

type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case "sqlite", "postgres", "inmemory":
				c.Storage.Provider = v
				return nil
			}
			return fmt.Errorf("invalid storage.provider %q: expected sqlite, postgres or inmemory", v)
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_url": {
		get: func(c *Config) string { return c.Storage.PostgresURL },
		set: func(c *Config, v string) error { c.Storage.PostgresURL = v; return nil },
	},
	"graph.url": {
		get: func(c *Config) string { return c.Graph.URL },
		set: func(c *Config, v string) error { c.Graph.URL = v; return nil },
	},
	"graph.timeout_seconds": {
		get: func(c *Config) string {
			if c.Graph.TimeoutSeconds == 0 {
				return ""
			}
			return strconv.Itoa(c.Graph.TimeoutSeconds)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for graph.timeout_seconds: %q", v)
			}
			c.Graph.TimeoutSeconds = n
			return nil
		},
	},
	"dedup.window": {
		get: func(c *Config) string {
			if c.Dedup.Window == 0 {
				return ""
			}
			return strconv.Itoa(c.Dedup.Window)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for dedup.window: %q", v)
			}
			c.Dedup.Window = n
			return nil
		},
	},
	"dedup.threshold": {
		get: func(c *Config) string {
			if c.Dedup.Threshold == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Dedup.Threshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 || f > 1 {
				return fmt.Errorf("invalid value for dedup.threshold: %q (expected 0 < t <= 1)", v)
			}
			c.Dedup.Threshold = f
			return nil
		},
	},
	"dedup.short_query_tokens": {
		get: func(c *Config) string {
			if c.Dedup.ShortQueryTokens == 0 {
				return ""
			}
			return strconv.Itoa(c.Dedup.ShortQueryTokens)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for dedup.short_query_tokens: %q", v)
			}
			c.Dedup.ShortQueryTokens = n
			return nil
		},
	},
	"memory.max_content_len": {
		get: func(c *Config) string {
			if c.Memory.MaxContentLen == 0 {
				return ""
			}
			return strconv.Itoa(c.Memory.MaxContentLen)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid value for memory.max_content_len: %q", v)
			}
			c.Memory.MaxContentLen = n
			return nil
		},
	},
	"memory.topic_rules_path": {
		get: func(c *Config) string { return c.Memory.TopicRulesPath },
		set: func(c *Config, v string) error { c.Memory.TopicRulesPath = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.mcp_listen": {
		get: func(c *Config) string { return c.API.MCPListen },
		set: func(c *Config, v string) error { c.API.MCPListen = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			if v == "" {
				c.Events.Brokers = nil
				return nil
			}
			parts := strings.Split(v, ",")
			brokers := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					brokers = append(brokers, p)
				}
			}
			c.Events.Brokers = brokers
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable order matching the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"storage.provider",
		"storage.sqlite_path",
		"storage.postgres_url",
		"graph.url",
		"graph.timeout_seconds",
		"dedup.window",
		"dedup.threshold",
		"dedup.short_query_tokens",
		"memory.max_content_len",
		"memory.topic_rules_path",
		"api.listen",
		"api.mcp_listen",
		"events.brokers",
		"events.topic",
	}

	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(&cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(&cfg), nil
}
