// Package memorycmder provides the CLI verbs that work with memories
// directly: remember, recall, list and forget. Each verb assembles the
// engine from configuration, runs one operation, and exits.
package memorycmder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/config"
	"github.com/keepsakehq/keepsake/pkg/engine"
	"github.com/keepsakehq/keepsake/pkg/logger"
	"github.com/keepsakehq/keepsake/pkg/record"
)

// NewMemoryCmds returns the memory verb commands for the root command.
func NewMemoryCmds() []*cobra.Command {
	return []*cobra.Command{
		newRememberCmd(),
		newRecallCmd(),
		newListCmd(),
		newForgetCmd(),
	}
}

// memoryCommander carries the flags shared by every memory verb.
type memoryCommander struct {
	userID         string
	userName       string
	cognitiveState int
	birthDate      string
	deltaYear      int

	debug     bool
	configDir string
	logger    *zap.Logger
	pretty    *slog.Logger
}

// addUserFlags registers the shared user-identity flags.
func (c *memoryCommander) addUserFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.userID, "user", "u", "", "User id owning the memories (required)")
	cmd.Flags().StringVar(&c.userName, "name", "", "User display name, used when restating facts")
	cmd.Flags().IntVar(&c.cognitiveState, "cognitive-state", -1, "0-100 cognitive assessment used as a confidence fallback")
	cmd.Flags().StringVar(&c.birthDate, "birth-date", "", "User date of birth (YYYY-MM-DD)")
	cmd.Flags().IntVar(&c.deltaYear, "delta-year", -1, "Years since birth the statement refers to")
	_ = cmd.MarkFlagRequired("user")
}

// user materializes and validates the record.User from the shared flags.
func (c *memoryCommander) user() (*record.User, error) {
	user := &record.User{
		ID:   c.userID,
		Name: c.userName,
	}

	if c.cognitiveState >= 0 {
		cs := c.cognitiveState
		user.CognitiveState = &cs
	}
	if c.birthDate != "" {
		birth, err := time.Parse("2006-01-02", c.birthDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --birth-date %q: expected YYYY-MM-DD", c.birthDate)
		}
		user.BirthDate = &birth
	}
	if c.deltaYear >= 0 {
		dy := c.deltaYear
		user.DeltaYear = &dy
	}

	if err := user.Validate(time.Now()); err != nil {
		return nil, err
	}
	return user, nil
}

// withEngine resolves config, assembles the engine, runs fn, and tears
// everything down.
func (c *memoryCommander) withEngine(cmd *cobra.Command, fn func(ctx context.Context, eng *engine.Engine) error) error {
	var err error
	c.debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("could not get debug flag: %v", err)
	}
	c.configDir, err = cmd.Flags().GetString("config-dir")
	if err != nil {
		return fmt.Errorf("could not get config-dir flag: %v", err)
	}

	// The zap logger feeds the engine internals; the pretty logger is
	// for messages aimed at the person running the command.
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()
	c.pretty = logger.NewPretty(c.debug)

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	cfg := config.FromViper(v)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := engine.Build(ctx, cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			c.pretty.Warn("engine shutdown", "error", err)
		}
	}()

	return fn(ctx, eng)
}
