package memorycmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keepsakehq/keepsake/pkg/cliui"
	"github.com/keepsakehq/keepsake/pkg/coordinator"
	"github.com/keepsakehq/keepsake/pkg/engine"
)

const rememberLongDesc string = `Store a fact about a user.

The statement is deduplicated against recent memories, classified into
topics, scored for confidence, timestamped, and written to the local
store and the graph service.

Examples:
  keepsake remember -u alice "I love gardening"
  keepsake remember -u alice --proxy-agent scheduler "Alice has a dentist appointment on Friday"
  keepsake remember -u alice --confidence 0.6 "I think my cousin lives in Lisbon"`

const rememberShortDesc string = "Store a fact"

func newRememberCmd() *cobra.Command {
	cmder := &memoryCommander{}
	var (
		confidence float64
		proxyAgent string
	)

	cmd := &cobra.Command{
		Use:   "remember <statement>",
		Short: rememberShortDesc,
		Long:  rememberLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confidenceSet := cmd.Flags().Changed("confidence")
			return cmder.withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
				return runRemember(ctx, eng, cmder, strings.Join(args, " "), confidence, confidenceSet, proxyAgent)
			})
		},
	}

	cmder.addUserFlags(cmd)
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Explicit reliability score between 0 and 1")
	cmd.Flags().StringVar(&proxyAgent, "proxy-agent", "", "Store on behalf of the named automated collaborator")

	return cmd
}

func runRemember(ctx context.Context, eng *engine.Engine, cmder *memoryCommander, text string, confidence float64, confidenceSet bool, proxyAgent string) error {
	user, err := cmder.user()
	if err != nil {
		return err
	}

	opts := coordinator.DefaultStoreOptions()
	if proxyAgent != "" {
		opts.IsProxy = true
		opts.ProxyAgent = proxyAgent
	}
	// Only a flag the caller actually passed counts as explicit, so
	// --confidence 0 is honored and an omitted flag defers to the resolver.
	if confidenceSet {
		opts.Confidence = confidence
	}

	result, err := eng.Coordinator.Store(ctx, text, user, opts)
	if err != nil {
		return fmt.Errorf("storing memory: %w", err)
	}

	if !result.Status.Stored() {
		fmt.Printf("\n  %s %s\n\n", cliui.FailMark, result.Human())
		return nil
	}

	if !result.GraphSynced {
		cmder.pretty.Warn("graph service unreachable; memory stored locally only")
	}

	fmt.Printf("\n  %s %s\n", cliui.SuccessMark, result.Human())
	fmt.Printf("    %s %s\n", cliui.KeyStyle.Render("id:"), cliui.DimStyle.Render(result.Record.ID))
	if len(result.Record.Topics) > 0 {
		fmt.Printf("    %s %s\n", cliui.KeyStyle.Render("topics:"), cliui.ValueStyle.Render(strings.Join(result.Record.Topics, ", ")))
	}
	fmt.Printf("    %s %s\n\n", cliui.KeyStyle.Render("confidence:"), cliui.ValueStyle.Render(fmt.Sprintf("%.2f", result.Record.Confidence)))
	return nil
}
