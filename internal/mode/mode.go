// Package mode decides, for each step, whether the orchestrator should
// drive the browser or the desktop: it attempts a CDP connection and
// falls back to desktop automation if nothing answers.
package mode

import (
	"context"

	"github.com/mrdja026/pcagent/internal/action"
	"github.com/mrdja026/pcagent/internal/cdp"
)

// Detector probes a CDP debug endpoint to decide the active mode.
type Detector struct {
	browser *cdp.Driver
}

func NewDetector(browser *cdp.Driver) *Detector {
	return &Detector{browser: browser}
}

// Detect returns ModeBrowser if a Chrome (or Chromium-based) debug target
// answers at the configured port, ModeDesktop otherwise.
func (d *Detector) Detect(ctx context.Context) action.Mode {
	if d.browser.Connected(ctx) {
		return action.ModeBrowser
	}
	return action.ModeDesktop
}
