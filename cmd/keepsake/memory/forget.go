package memorycmder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keepsakehq/keepsake/pkg/cliui"
	"github.com/keepsakehq/keepsake/pkg/engine"
)

const forgetLongDesc string = `Delete stored facts.

With a record id, deletes that one record from the local and graph
stores. With --all, deletes every memory the user has, including staged
raw input, after an interactive confirmation.

Examples:
  keepsake forget -u alice 3f8a1c2e-...
  keepsake forget -u alice --all`

const forgetShortDesc string = "Delete stored facts"

func newForgetCmd() *cobra.Command {
	cmder := &memoryCommander{}
	var (
		all   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "forget [id]",
		Short: forgetShortDesc,
		Long:  forgetLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			return cmder.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				return runForget(ctx, eng, cmder, id, all, force)
			})
		},
	}

	cmder.addUserFlags(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "Delete ALL of the user's memories")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt for --all")

	return cmd
}

func runForget(ctx context.Context, eng *engine.Engine, cmder *memoryCommander, id string, all, force bool) error {
	user, err := cmder.user()
	if err != nil {
		return err
	}

	if all {
		if id != "" {
			return fmt.Errorf("provide either a record id or --all, not both")
		}
		if !force && !confirm(fmt.Sprintf("Delete ALL memories for %q? This cannot be undone.", user.ID)) {
			fmt.Println("Aborted.")
			return nil
		}

		report, err := eng.Coordinator.ClearAll(ctx, user)
		if err != nil {
			return fmt.Errorf("clearing memories: %w", err)
		}

		fmt.Printf("\n  %s Cleared %d memories (%d staged artifacts purged)\n",
			cliui.SuccessMark, report.LocalCleared, report.StagedPurged)
		if report.GraphError != "" {
			fmt.Printf("  %s graph cleanup incomplete: %s\n", cliui.FailMark, report.GraphError)
		}
		fmt.Println()
		return nil
	}

	if id == "" {
		return fmt.Errorf("provide a record id or --all")
	}

	report, err := eng.Coordinator.Delete(ctx, id, user)
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}

	fmt.Printf("\n  %s Deleted %s\n", cliui.SuccessMark, cliui.DimStyle.Render(report.ID))
	if report.GraphError != "" {
		fmt.Printf("  %s graph cleanup incomplete: %s\n", cliui.FailMark, report.GraphError)
	}
	fmt.Println()
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
