package cli

import (
	"fmt"

	"github.com/mrdja026/pcagent/internal/broadcast"
	"github.com/mrdja026/pcagent/internal/cdp"
	"github.com/mrdja026/pcagent/internal/config"
	"github.com/mrdja026/pcagent/internal/desktop"
	"github.com/mrdja026/pcagent/internal/llm"
	"github.com/mrdja026/pcagent/internal/logging"
	"github.com/mrdja026/pcagent/internal/orchestrator"
)

// bootstrap wires the shared set of components every subcommand needs:
// the two drivers, the LLM client, and a progress broadcaster. It mirrors
// cmux-devbox-2's browserManager construction pattern at a coarser grain
// (one process-wide set of drivers instead of one per request).
func bootstrap() (*orchestrator.Orchestrator, *broadcast.Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("no API key configured; run `pcagent config set-key <key>` first")
	}
	if cfg.LogFile != "" {
		if err := logging.SetOutput(cfg.LogFile); err != nil {
			logging.Logf("WARN", "bootstrap", "could not open log file %s: %v", cfg.LogFile, err)
		}
	}

	browser := cdp.NewDriver(cfg.CDPAddr)
	desktopDriver, err := desktop.NewDriver()
	if err != nil {
		return nil, nil, fmt.Errorf("init desktop driver: %w", err)
	}

	broadcaster := broadcast.NewServer(cfg.ProgressAddr)
	if err := broadcaster.Start(); err != nil {
		return nil, nil, fmt.Errorf("start progress broadcaster: %w", err)
	}

	client := llm.NewClient(cfg.APIKey)
	return orchestrator.New(browser, desktopDriver, client, broadcaster), broadcaster, nil
}
