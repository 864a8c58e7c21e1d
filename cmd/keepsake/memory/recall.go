package memorycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keepsakehq/keepsake/pkg/cliui"
	"github.com/keepsakehq/keepsake/pkg/coordinator"
	"github.com/keepsakehq/keepsake/pkg/engine"
	"github.com/keepsakehq/keepsake/pkg/utils"
)

const recallLongDesc string = `Query a user's memories.

Free-text queries are expanded through the topic vocabulary before
matching, so "mom" also finds memories classified under "family". Use
--topic to query by topic names instead of free text.

Examples:
  keepsake recall -u alice "what do I like to eat"
  keepsake recall -u alice --topic food --topic health
  keepsake recall -u alice --limit 5 gardening`

const recallShortDesc string = "Query stored facts"

func newRecallCmd() *cobra.Command {
	cmder := &memoryCommander{}
	var (
		topics []string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				return runRecall(ctx, eng, cmder, strings.Join(args, " "), topics, limit)
			})
		},
	}

	cmder.addUserFlags(cmd)
	cmd.Flags().StringArrayVarP(&topics, "topic", "t", nil, "Query by topic instead of free text (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 = no limit)")

	return cmd
}

func runRecall(ctx context.Context, eng *engine.Engine, cmder *memoryCommander, query string, topics []string, limit int) error {
	user, err := cmder.user()
	if err != nil {
		return err
	}

	var results []coordinator.QueryResult
	switch {
	case len(topics) > 0:
		results, err = eng.Coordinator.QueryByTopic(ctx, topics, user, limit)
	case query != "":
		results, err = eng.Coordinator.Query(ctx, query, user, limit)
	default:
		return fmt.Errorf("provide a query or at least one --topic")
	}
	if err != nil {
		return fmt.Errorf("querying memories: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No matching memories."))
		return nil
	}

	fmt.Println()
	for _, r := range results {
		fmt.Printf("  %s %s\n",
			cliui.ScoreStyle.Render(fmt.Sprintf("%.2f", r.Score)),
			cliui.ValueStyle.Render(utils.Truncate(r.Record.Content, contentWidth)),
		)
		fmt.Printf("       %s\n", cliui.DimStyle.Render(fmt.Sprintf("%s · %s", r.Record.ID, strings.Join(r.Record.Topics, ", "))))
	}
	fmt.Println()

	return nil
}
