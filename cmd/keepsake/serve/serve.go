// Package servecmder provides the serve command for running the keepsake
// servers.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/api"
	"github.com/keepsakehq/keepsake/api/mcp"
	"github.com/keepsakehq/keepsake/pkg/config"
	"github.com/keepsakehq/keepsake/pkg/dotdir"
	"github.com/keepsakehq/keepsake/pkg/engine"
	"github.com/keepsakehq/keepsake/pkg/logger"
	"github.com/keepsakehq/keepsake/pkg/staging"
)

// serveLogName is the JSON lifecycle log written under the .keepsake/ dir.
const serveLogName = "serve.log"

type ServeCommander struct {
	listen    string
	mcpListen string
	graphURL  string
	provider  string
	debug     bool
	noWatch   bool
	configDir string
	logger    *zap.Logger
	ops       *slog.Logger
}

const serveLongDesc string = `Run the keepsake servers.

Starts the REST API server, the MCP server, and the staging-directory
watcher together. Configuration comes from config.toml in the .keepsake/
directory, KEEPSAKE_* environment variables, and the flags below, in
ascending precedence.

Examples:
  keepsake serve
  keepsake serve --listen :9000 --graph-url http://localhost:8765
  KEEPSAKE_STORAGE_PROVIDER=inmemory keepsake serve`

const serveShortDesc string = "Run the keepsake servers"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, err = cmd.Flags().GetString("config-dir")
			if err != nil {
				return fmt.Errorf("could not get config-dir flag: %v", err)
			}
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the REST API server to listen on")
	cmd.Flags().StringVarP(&cmder.mcpListen, "mcp-listen", "m", "", "Address for the MCP server to listen on")
	cmd.Flags().StringVarP(&cmder.graphURL, "graph-url", "g", "", "Graph-memory service URL (empty disables graph sync)")
	cmd.Flags().StringVarP(&cmder.provider, "storage", "s", "", "Storage provider (sqlite, postgres, inmemory)")
	cmd.Flags().BoolVar(&cmder.noWatch, "no-watch", false, "Disable the staging-directory watcher")

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	ops, closeOps, err := c.opsLogger()
	if err != nil {
		return err
	}
	defer closeOps()
	c.ops = ops

	cfg, err := c.resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Build(ctx, cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	apiServer := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
	}, eng.Coordinator, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Coordinator: eng.Coordinator,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	mcpHTTP := &http.Server{
		Addr:              cfg.API.MCPListen,
		Handler:           mcpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture errors from goroutines
	errChan := make(chan error, 3)

	c.ops.Info("starting API server", "listen", cfg.API.Listen)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	c.ops.Info("starting MCP server", "listen", cfg.API.MCPListen)
	go func() {
		if err := mcpHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	var watcher *staging.Watcher
	if !c.noWatch {
		watcher, err = c.startWatcher(ctx, eng, errChan)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.ops.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(); err != nil {
		c.ops.Warn("API server shutdown", "error", err)
	}
	if err := mcpHTTP.Shutdown(shutdownCtx); err != nil {
		c.ops.Warn("MCP server shutdown", "error", err)
	}

	return nil
}

// opsLogger tees operator-facing lifecycle messages: pretty output to
// stdout and JSON lines to serve.log under the .keepsake/ directory, via
// the fan-out handler. The zap logger stays wired to the engine internals.
func (c *ServeCommander) opsLogger() (*slog.Logger, func(), error) {
	pretty := logger.NewPretty(c.debug)

	target, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving config dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(target, serveLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", serveLogName, err)
	}

	level := slog.LevelInfo
	if c.debug {
		level = slog.LevelDebug
	}
	file := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))

	return logger.Multi(pretty, file), func() { f.Close() }, nil
}

// resolveConfig layers defaults, config.toml, environment and flags.
func (c *ServeCommander) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return config.Config{}, err
	}

	// Flags beat everything else, but only when actually set.
	if cmd.Flags().Changed("listen") {
		v.Set("api.listen", c.listen)
	}
	if cmd.Flags().Changed("mcp-listen") {
		v.Set("api.mcp_listen", c.mcpListen)
	}
	if cmd.Flags().Changed("graph-url") {
		v.Set("graph.url", c.graphURL)
	}
	if cmd.Flags().Changed("storage") {
		v.Set("storage.provider", c.provider)
	}

	return config.FromViper(v), nil
}

// startWatcher runs the staging-directory watcher so capture tooling can
// drop raw statements as files instead of calling the API.
func (c *ServeCommander) startWatcher(ctx context.Context, eng *engine.Engine, errChan chan error) (*staging.Watcher, error) {
	ingest := engine.IngestFunc(eng.Coordinator)

	watcher, err := staging.NewWatcher(eng.Stager, ingest, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating staging watcher: %w", err)
	}

	c.ops.Info("watching staging directory", "dir", eng.Stager.Dir())
	go func() {
		if err := watcher.Run(ctx); err != nil {
			errChan <- fmt.Errorf("staging watcher error: %w", err)
		}
	}()

	return watcher, nil
}
