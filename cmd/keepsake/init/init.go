// Package initcmder provides the init command for initializing a local
// .keepsake directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keepsakehq/keepsake/pkg/dotdir"
)

const dirName = ".keepsake"

const initLongDesc string = `Initialize a new .keepsake/ directory in the current working directory.

Creates a local .keepsake/ directory that takes precedence over the
default ~/.keepsake/ directory for storage, configuration and the
raw-input staging area.

This is useful for keeping separate memory stores per project or
directory.

Examples:
  keepsake init`

const initShortDesc string = "Initialize a local .keepsake/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(filepath.Join(dir, dotdir.StagingDirName), 0o755); err != nil {
		return fmt.Errorf("creating .keepsake directory: %w", err)
	}

	fmt.Printf("Initialized .keepsake directory: %s\n", dir)
	return nil
}
