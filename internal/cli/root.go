// Package cli builds the cobra command tree: run (one-shot goal
// execution), serve (long-running agent with a remote approval console),
// config (persist the Anthropic API key), and history (print the tail of
// the log file). The tree shape follows the
// teacher's cmux root command + subcommand-per-file layout.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
)

func SetVersionInfo(version string) {
	Version = version
}

var rootCmd = &cobra.Command{
	Use:   "pcagent",
	Short: "LLM-driven PC automation agent",
	Long: `pcagent drives a Chrome tab over the DevTools Protocol or, when no
debuggable browser is reachable, the native Windows desktop via UI
Automation, letting a language model carry out a stated goal one
approved action at a time.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
}
