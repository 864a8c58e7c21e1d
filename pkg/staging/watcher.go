package staging

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// IngestFunc processes one staged statement. A nil return means the
// artifact has been absorbed and may be removed; an error leaves the
// artifact staged for a later pass.
type IngestFunc func(ctx context.Context, ownerID, text string) error

// Watcher ingests artifacts as capture tooling drops them into the
// staging directory.
type Watcher struct {
	stager *Stager
	ingest IngestFunc
	logger *zap.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher creates a watcher over the stager's directory. Call Run to
// start processing.
func NewWatcher(stager *Stager, ingest IngestFunc, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(stager.Dir()); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		stager: stager,
		ingest: ingest,
		logger: logger,
		fsw:    fsw,
		done:   make(chan struct{}),
	}, nil
}

// Run processes existing artifacts, then blocks ingesting new ones until
// the context is canceled or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	// Artifacts staged before the watcher started still need a pass.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-w.done:
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.process(ctx, event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("staging watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

// sweep processes every artifact currently staged.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.stager.Dir())
	if err != nil {
		w.logger.Warn("reading staging directory", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.process(ctx, filepath.Join(w.stager.Dir(), entry.Name()))
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	owner, ok := ownerOf(filepath.Base(path))
	if !ok {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("reading staged artifact", zap.String("path", path), zap.Error(err))
		}
		return
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		// Empty artifacts are noise; drop them.
		if err := w.stager.Remove(path); err != nil {
			w.logger.Warn("removing empty artifact", zap.String("path", path), zap.Error(err))
		}
		return
	}

	if err := w.ingest(ctx, owner, text); err != nil {
		w.logger.Warn("ingesting staged artifact",
			zap.String("path", path),
			zap.String("owner_id", owner),
			zap.Error(err),
		)
		return
	}

	if err := w.stager.Remove(path); err != nil {
		w.logger.Warn("removing processed artifact", zap.String("path", path), zap.Error(err))
	}
}
