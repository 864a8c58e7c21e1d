// Package engine assembles a running memory engine from configuration:
// local store, graph client, classifier, duplicate detector, event
// publisher, staging area and the coordinator that ties them together.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/config"
	"github.com/keepsakehq/keepsake/pkg/coordinator"
	"github.com/keepsakehq/keepsake/pkg/dedup"
	"github.com/keepsakehq/keepsake/pkg/dotdir"
	"github.com/keepsakehq/keepsake/pkg/eventstream"
	"github.com/keepsakehq/keepsake/pkg/eventstream/kafka"
	"github.com/keepsakehq/keepsake/pkg/eventstream/nop"
	"github.com/keepsakehq/keepsake/pkg/graph"
	"github.com/keepsakehq/keepsake/pkg/record"
	"github.com/keepsakehq/keepsake/pkg/staging"
	"github.com/keepsakehq/keepsake/pkg/store"
	"github.com/keepsakehq/keepsake/pkg/store/inmemory"
	"github.com/keepsakehq/keepsake/pkg/store/postgres"
	"github.com/keepsakehq/keepsake/pkg/store/sqlite"
	"github.com/keepsakehq/keepsake/pkg/topic"
)

const sqliteFile = "keepsake.db"

// Engine bundles the assembled components. Callers interact through the
// Coordinator; the rest is exposed for lifecycle management.
type Engine struct {
	Coordinator *coordinator.Coordinator
	Local       store.Driver
	Graph       graph.Driver
	Publisher   eventstream.Publisher
	Stager      *staging.Stager

	logger *zap.Logger
}

// Build assembles an Engine from the resolved configuration. configDir
// overrides the .keepsake/ directory lookup when non-empty.
func Build(ctx context.Context, cfg config.Config, configDir string, logger *zap.Logger) (*Engine, error) {
	e := &Engine{logger: logger}

	detector := dedup.NewDetector(dedup.Config{
		Window:           cfg.Dedup.Window,
		Threshold:        cfg.Dedup.Threshold,
		ShortQueryTokens: cfg.Dedup.ShortQueryTokens,
	})

	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}

	ddm := dotdir.NewManager()

	local, err := newLocalStore(ctx, cfg, configDir, ddm, detector, logger)
	if err != nil {
		return nil, err
	}
	e.Local = local

	if cfg.Graph.URL != "" {
		client, err := graph.NewClient(graph.Config{
			URL:     cfg.Graph.URL,
			Timeout: time.Duration(cfg.Graph.TimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			local.Close()
			return nil, fmt.Errorf("creating graph client: %w", err)
		}
		e.Graph = client
		logger.Info("graph sync enabled", zap.String("url", cfg.Graph.URL))
	} else {
		logger.Info("graph sync disabled; running local-only")
	}

	e.Publisher = newPublisher(cfg, logger)

	stagingDir, err := ddm.StagingDir(configDir)
	if err != nil {
		local.Close()
		return nil, err
	}
	stager, err := staging.NewStager(stagingDir)
	if err != nil {
		local.Close()
		return nil, err
	}
	e.Stager = stager

	coord, err := coordinator.NewCoordinator(coordinator.Config{
		Local:         local,
		Graph:         e.Graph,
		Classifier:    classifier,
		Detector:      detector,
		Publisher:     e.Publisher,
		Stager:        stager,
		MaxContentLen: cfg.Memory.MaxContentLen,
		Logger:        logger,
	})
	if err != nil {
		local.Close()
		return nil, err
	}
	e.Coordinator = coord

	return e, nil
}

// IngestFunc adapts the coordinator's store pipeline to the staging
// watcher's callback shape. Staged artifacts carry only the owner id, so
// ingestion runs with the minimal user identity and default options.
// Rejections (duplicates, invalid content) consume the artifact; only
// storage failures leave it staged for retry.
func IngestFunc(coord *coordinator.Coordinator) staging.IngestFunc {
	return func(ctx context.Context, ownerID, text string) error {
		user := &record.User{ID: ownerID}
		_, err := coord.Store(ctx, text, user, coordinator.DefaultStoreOptions())
		return err
	}
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	var firstErr error

	if e.Publisher != nil {
		if err := e.Publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.Local != nil {
		if err := e.Local.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newClassifier(cfg config.Config) (*topic.Classifier, error) {
	if cfg.Memory.TopicRulesPath == "" {
		return topic.NewClassifier(nil), nil
	}

	rules, err := topic.LoadRules(cfg.Memory.TopicRulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading topic rules: %w", err)
	}
	return topic.NewClassifier(rules), nil
}

func newLocalStore(ctx context.Context, cfg config.Config, configDir string, ddm *dotdir.Manager, detector *dedup.Detector, logger *zap.Logger) (store.Driver, error) {
	switch cfg.Storage.Provider {
	case "", "sqlite":
		path := cfg.Storage.SQLitePath
		if path == "" {
			dir, err := ddm.Target(configDir)
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, sqliteFile)
		}
		driver, err := sqlite.NewDriver(path, detector, logger)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite store: %w", err)
		}
		logger.Info("using sqlite storage", zap.String("path", path))
		return driver, nil

	case "postgres":
		if cfg.Storage.PostgresURL == "" {
			return nil, fmt.Errorf("storage.postgres_url is required for the postgres provider")
		}
		driver, err := postgres.NewDriver(ctx, cfg.Storage.PostgresURL, detector, logger)
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		logger.Info("using postgres storage")
		return driver, nil

	case "inmemory":
		logger.Info("using in-memory storage")
		return inmemory.NewDriver(detector), nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q: expected sqlite, postgres or inmemory", cfg.Storage.Provider)
	}
}

func newPublisher(cfg config.Config, logger *zap.Logger) eventstream.Publisher {
	if len(cfg.Events.Brokers) == 0 {
		return nop.NewPublisher()
	}

	pub, err := kafka.NewPublisher(kafka.Config{
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
	}, logger)
	if err != nil {
		logger.Warn("event stream unavailable; events disabled", zap.Error(err))
		return nop.NewPublisher()
	}

	logger.Info("event stream enabled",
		zap.Strings("brokers", cfg.Events.Brokers),
		zap.String("topic", cfg.Events.Topic),
	)
	return pub
}
