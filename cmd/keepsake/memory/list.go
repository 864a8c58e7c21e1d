package memorycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keepsakehq/keepsake/pkg/cliui"
	"github.com/keepsakehq/keepsake/pkg/engine"
	"github.com/keepsakehq/keepsake/pkg/record"
	"github.com/keepsakehq/keepsake/pkg/utils"
)

// contentWidth caps how much of a memory's content one terminal row shows.
const contentWidth = 80

const listLongDesc string = `List a user's memories, most recent first.

With --details, includes id, topics, confidence and provenance for each
record. With --stats, prints summary statistics instead of the records.

Examples:
  keepsake list -u alice
  keepsake list -u alice --details
  keepsake list -u alice --stats`

const listShortDesc string = "List all stored facts"

func newListCmd() *cobra.Command {
	cmder := &memoryCommander{}
	var (
		details bool
		stats   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				return runList(ctx, eng, cmder, details, stats)
			})
		},
	}

	cmder.addUserFlags(cmd)
	cmd.Flags().BoolVar(&details, "details", false, "Show full record metadata")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show summary statistics instead of records")

	return cmd
}

func runList(ctx context.Context, eng *engine.Engine, cmder *memoryCommander, details, stats bool) error {
	user, err := cmder.user()
	if err != nil {
		return err
	}

	if stats {
		return printStats(ctx, eng, user)
	}

	if details {
		records, err := eng.Coordinator.GetAll(ctx, user)
		if err != nil {
			return fmt.Errorf("listing memories: %w", err)
		}
		if len(records) == 0 {
			fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No memories stored."))
			return nil
		}

		fmt.Println()
		for _, rec := range records {
			fmt.Printf("  %s\n", cliui.ValueStyle.Render(rec.Content))
			meta := fmt.Sprintf("%s · %s · confidence %.2f · %s",
				rec.ID,
				strings.Join(rec.Topics, ", "),
				rec.Confidence,
				rec.CreatedAt.Format("2006-01-02 15:04"),
			)
			if rec.IsProxy {
				meta += " · via " + rec.ProxyAgent
			}
			fmt.Printf("    %s\n", cliui.DimStyle.Render(meta))
		}
		fmt.Println()
		return nil
	}

	memories, err := eng.Coordinator.ListAll(ctx, user)
	if err != nil {
		return fmt.Errorf("listing memories: %w", err)
	}
	if len(memories) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No memories stored."))
		return nil
	}

	fmt.Println()
	for _, m := range memories {
		fmt.Printf("  %s %s\n", cliui.DimStyle.Render("•"), cliui.ValueStyle.Render(utils.Truncate(m, contentWidth)))
	}
	fmt.Println()
	return nil
}

func printStats(ctx context.Context, eng *engine.Engine, user *record.User) error {
	stats, err := eng.Coordinator.GetStats(ctx, user)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	fmt.Printf("\n  %s %d\n", cliui.KeyStyle.Render("Total memories:"), stats.Total)
	if len(stats.Topics) > 0 {
		fmt.Printf("  %s\n", cliui.KeyStyle.Render("By topic:"))
		for topic, count := range stats.Topics {
			fmt.Printf("    %-12s %d\n", topic, count)
		}
	}
	if stats.MostRecent != nil {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Most recent:"), cliui.ValueStyle.Render(utils.Truncate(stats.MostRecent.Content, contentWidth)))
	}
	fmt.Println()
	return nil
}
