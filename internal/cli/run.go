package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrdja026/pcagent/internal/history"
	"github.com/mrdja026/pcagent/internal/orchestrator"
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Execute a single goal, approving each proposed first action on stdin",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.Join(args, " ")
		ctx := context.Background()

		orch, broadcaster, err := bootstrap()
		if err != nil {
			return err
		}
		defer broadcaster.Shutdown(ctx)

		sess := orchestrator.NewSession()
		proposed, err := orch.ExecuteUserCommand(ctx, sess, goal)
		if err != nil {
			return fmt.Errorf("propose action: %w", err)
		}

		fmt.Printf("Session %s\nGoal: %s\nProposed: %s on %q (%s)\n", sess.ID, goal, proposed.Type, proposed.Target, proposed.Reasoning)
		fmt.Print("Approve? [y/N]: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		line, _ := reader.ReadString('\n')
		approved := strings.EqualFold(strings.TrimSpace(line), "y")

		final, err := orch.ApproveAction(ctx, sess, approved)
		if err != nil {
			return fmt.Errorf("run loop: %w", err)
		}

		fmt.Printf("Finished. Window: %q URL: %q steps: %d\n", final.WindowTitle, final.URL, sess.History.Len())

		stats := history.Analyze(sess.History.Snapshot())
		fmt.Printf("Analysis: %d/%d succeeded, streak=%+d (longest success run %d), most used=%q most failed=%q, est. cost $%.4f\n",
			stats.Successes, stats.TotalSteps, stats.CurrentStreak, stats.LongestSuccessRun, stats.MostUsedAction, stats.MostFailedAction, stats.EstimatedCostUSD)
		return nil
	},
}
