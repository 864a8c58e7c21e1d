// Package dotdir manages the .keepsake/ and ~/.keepsake directories.
//
// The dot directory holds the config file, the default SQLite database,
// and the raw-input staging area.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the keepsake directory.
	dirName = ".keepsake"

	// StagingDirName is the staging subdirectory for raw input artifacts.
	StagingDirName = "staging"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .keepsake/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.keepsake/ dir
//  3. Home ~/.keepsake/ dir
//  4. If none found, attempt to create ~/.keepsake/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating keepsake directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// StagingDir resolves (and creates) the staging subdirectory under the
// target dot directory.
func (m *Manager) StagingDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, StagingDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory %s: %w", dir, err)
	}

	return dir, nil
}

// localDirExists checks whether a .keepsake/ directory exists in the
// current working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
