// Package staging manages the directory of raw input artifacts awaiting
// ingestion.
//
// Capture tooling (transcribers, importers) drops one file per statement
// into the staging directory rather than calling the coordinator directly.
// A watcher feeds new artifacts into the store path and removes them once
// processed. A user-level clear must also purge that user's staged
// artifacts — otherwise a wiped memory could be resurrected by a stale
// file nobody processed yet.
//
// Artifact files are named "<owner_id>__<artifact_id>.txt" and contain the
// raw statement text.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const artifactExt = ".txt"

// ownerSep separates the owner id from the artifact id in file names.
// Owner ids must not contain it.
const ownerSep = "__"

// Stager stages and purges raw input artifacts in one directory.
type Stager struct {
	dir string
}

// NewStager creates the staging directory if needed.
func NewStager(dir string) (*Stager, error) {
	if dir == "" {
		return nil, fmt.Errorf("staging directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory %s: %w", dir, err)
	}

	return &Stager{dir: dir}, nil
}

// Dir returns the staging directory path.
func (s *Stager) Dir() string {
	return s.dir
}

// Stage writes a raw statement for an owner and returns the artifact path.
func (s *Stager) Stage(ownerID, text string) (string, error) {
	if strings.Contains(ownerID, ownerSep) {
		return "", fmt.Errorf("owner id %q must not contain %q", ownerID, ownerSep)
	}

	name := ownerID + ownerSep + uuid.NewString() + artifactExt
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing artifact %s: %w", name, err)
	}

	return path, nil
}

// Pending returns the owner's staged artifact paths, unordered.
func (s *Stager) Pending(ownerID string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading staging directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if owner, ok := ownerOf(entry.Name()); ok && owner == ownerID {
			paths = append(paths, filepath.Join(s.dir, entry.Name()))
		}
	}

	return paths, nil
}

// Purge removes every staged artifact belonging to the owner and returns
// the number removed.
func (s *Stager) Purge(ownerID string) (int, error) {
	paths, err := s.Pending(ownerID)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return purged, fmt.Errorf("removing artifact %s: %w", path, err)
		}
		purged++
	}

	return purged, nil
}

// Remove deletes a single processed artifact.
func (s *Stager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing artifact %s: %w", path, err)
	}
	return nil
}

// ownerOf extracts the owner id from an artifact file name.
func ownerOf(name string) (string, bool) {
	if !strings.HasSuffix(name, artifactExt) {
		return "", false
	}
	base := strings.TrimSuffix(name, artifactExt)

	owner, _, ok := strings.Cut(base, ownerSep)
	if !ok || owner == "" {
		return "", false
	}

	return owner, true
}
