package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/keepsakehq/keepsake/pkg/dotdir"
)

const configFile = "config.toml"

// Configer loads and saves the persistent config.toml in the resolved
// .keepsake/ directory.
type Configer struct {
	targetPath string
}

// NewConfiger resolves the dot directory (honoring the override) and
// prepares a Configer for it.
func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	ddm := dotdir.NewManager()
	target, err := ddm.Target(override)
	if err != nil {
		return nil, err
	}

	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// GetTarget returns the resolved config.toml path, or "" when no
// .keepsake directory was found.
func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig reads config.toml, returning defaults when no file exists.
func (c *Configer) LoadConfig() (Config, error) {
	cfg := NewDefaultConfig()

	if c.targetPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(c.targetPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", c.targetPath, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", c.targetPath, err)
	}

	return cfg, nil
}

// SaveConfig writes the config back as TOML.
func (c *Configer) SaveConfig(cfg Config) error {
	if c.targetPath == "" {
		return errors.New("no .keepsake directory resolved; cannot save config")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.targetPath, err)
	}

	return nil
}
