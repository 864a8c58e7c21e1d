// Package keepsakecmder
package keepsakecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/keepsakehq/keepsake/cmd/keepsake/config"
	initcmder "github.com/keepsakehq/keepsake/cmd/keepsake/init"
	memorycmder "github.com/keepsakehq/keepsake/cmd/keepsake/memory"
	servecmder "github.com/keepsakehq/keepsake/cmd/keepsake/serve"
	versioncmder "github.com/keepsakehq/keepsake/cmd/version"
)

const keepsakeLongDesc string = `Keepsake is a memory engine for personal AI assistants.

It stores facts about a user, deduplicates them, classifies them into
topics, scores their reliability, and keeps a local store and a graph
service in sync.

Run the servers using:
  keepsake serve       Run the REST API and MCP servers

Work with memories directly using:
  keepsake remember    Store a fact
  keepsake recall      Query stored facts
  keepsake list        List all stored facts
  keepsake forget      Delete stored facts`

const keepsakeShortDesc string = "Keepsake - assistant memory engine"

func NewKeepsakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keepsake",
		Short: keepsakeShortDesc,
		Long:  keepsakeLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .keepsake/ directory location")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(memorycmder.NewMemoryCmds()...)
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
