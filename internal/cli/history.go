package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrdja026/pcagent/internal/config"
)

var historyTailLines int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the tail of the agent's log file",
	Long: `history reads the log file a previous run/serve process wrote to
(logging.SetOutput), since that process's in-memory ring buffer does not
survive across processes. This is the CLI's replacement for the
out-of-scope GUI's history panel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.LogFile == "" {
			return fmt.Errorf("no log file configured")
		}

		f, err := os.Open(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
		}
		defer f.Close()

		var lines []string
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read log file: %w", err)
		}

		start := 0
		if historyTailLines > 0 && len(lines) > historyTailLines {
			start = len(lines) - historyTailLines
		}
		for _, line := range lines[start:] {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyTailLines, "lines", "n", 50, "number of trailing log lines to print (0 for all)")
}
