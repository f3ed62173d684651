package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrdja026/pcagent/internal/config"
	"github.com/mrdja026/pcagent/internal/console"
	"github.com/mrdja026/pcagent/internal/history"
	"github.com/mrdja026/pcagent/internal/orchestrator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a long-lived agent, approving actions from an SSH console",
	Long: `serve starts the progress broadcaster and an SSH-reachable approval
console, then reads goals from stdin, one per line. Each goal's first
proposed action is approved or rejected by whoever is attached to the
console (the out-of-scope GUI shell's approve/reject dialog, reborn as a
remote line prompt).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		orch, broadcaster, err := bootstrap()
		if err != nil {
			return err
		}
		defer broadcaster.Shutdown(ctx)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		gate := console.NewGate()
		consoleSrv := console.NewServer(cfg.ConsoleAddr, gate)
		go func() {
			if err := consoleSrv.ListenAndServe(); err != nil {
				fmt.Fprintf(os.Stderr, "console server stopped: %v\n", err)
			}
		}()

		fmt.Printf("progress: ws://%s/progress  console: ssh %s\n", cfg.ProgressAddr, cfg.ConsoleAddr)
		fmt.Println("enter goals, one per line (ctrl-d to stop):")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			goal := strings.TrimSpace(scanner.Text())
			if goal == "" {
				continue
			}

			sess := orchestrator.NewSession()
			proposed, err := orch.ExecuteUserCommand(ctx, sess, goal)
			if err != nil {
				fmt.Fprintf(os.Stderr, "propose action: %v\n", err)
				continue
			}

			approved := gate.Ask(fmt.Sprintf("session %s: %s on %q (%s)", sess.ID, proposed.Type, proposed.Target, proposed.Reasoning))
			final, err := orch.ApproveAction(ctx, sess, approved)
			if err != nil {
				fmt.Fprintf(os.Stderr, "run loop: %v\n", err)
				continue
			}
			stats := history.Analyze(sess.History.Snapshot())
			fmt.Printf("session %s finished: window=%q steps=%d streak=%+d most used=%q est. cost $%.4f\n",
				sess.ID, final.WindowTitle, sess.History.Len(), stats.CurrentStreak, stats.MostUsedAction, stats.EstimatedCostUSD)
		}
		return scanner.Err()
	},
}
