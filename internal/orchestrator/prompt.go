package orchestrator

import (
	"fmt"
	"strings"

	"github.com/mrdja026/pcagent/internal/compress"
	"github.com/mrdja026/pcagent/internal/history"
)

const systemPrompt = `You control a Windows PC. Depending on what is currently active you act
through a Chrome/Edge tab over CDP (BROWSER mode) or through Windows UI
Automation against the focused window and taskbar (DESKTOP mode). You are
given the active mode, the active window/page, a compressed list of
interactable elements, and a history of what you have already tried.

WINDOWS ASSUMPTIONS: this is a standard Windows 10/11 desktop with a taskbar
(Shell_TrayWnd) always present; Chrome/Edge/Firefox, if installed, live under
their standard "Program Files" paths; Notepad, Explorer, cmd, PowerShell, and
Calculator are always present at their System32 paths.

APP-FINDING PRIORITY: (1) a pinned icon already visible in the taskbar or on
the focused window, addressed by name or coords; (2) launch_browser /
launch_app with a known app name (chrome, edge, firefox, notepad, explorer,
cmd, powershell, calculator) or an absolute path; (3) run_command as a last
resort, treated like Win+R.

EXECUTION MODEL: observe, act, observe again. If the goal is already true of
the current state, reply with "complete" immediately instead of acting. A
desktop action that opens a browser, or a browser action that closes it, is a
mode transition; expect the next observation to switch modes accordingly.

ONE action at a time. Reply with exactly one JSON action object, optionally
inside a ` + "```json" + ` fence, with this shape:
{"action_type": "...", "target": "...", "params": {...}, "reasoning": "..."}

ACTIONS (universal, both modes):
- click: target=node_id|"name:X"|"coords:x,y" (desktop)|CSS|"ax:id"|"xpath:..." (browser)
- double_click: target as above
- right_click: target as above
- hover: target as above
- type: target as above or empty (=focused element), params.text=string
- clear: target as above (select-all + backspace)
- scroll: params.direction="up"|"down", params.amount=pixels (default 300)
- press_key: params.key=key name (see KEYS below)
- focus_window: brings the active window/tab to front, no target
- complete: target empty, params.summary=string, once the goal is satisfied

ACTIONS (browser mode only):
- navigate: params.url=URL
- select: target=CSS selector, params.value=option value (for <select>)
- wait: target=CSS selector, params.timeout_ms=ms (wait for element to appear)
- go_back / go_forward: navigate browser history, no target
- reload: refresh the page, no target
- eval_js: params.code=JavaScript to execute
- get_text / get_attribute: target=CSS selector, params.name=attribute (get_attribute only)

ACTIONS (desktop mode only):
- launch_browser: target=optional URL to open; starts the first installed browser (Chrome, Edge, Firefox)
- launch: params.app=app name or absolute path
- run: params.command=command line, run like Win+R

KEYS (press_key / key combos): Enter, Tab, Escape, Backspace, Delete, Space,
ArrowUp, ArrowDown, ArrowLeft, ArrowRight, Home, End.

OUTPUT JSON ONLY, no prose before or after the action object (or its fence).`

// buildUserPrompt assembles the per-step prompt: goal, mode, active
// window/URL, compressed elements, and the tiered history summary.
func buildUserPrompt(goal string, st ObservedState, entries []history.Entry, stepNumber, maxSteps int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	fmt.Fprintf(&b, "Mode: %s\n", st.Mode)
	fmt.Fprintf(&b, "Window: %s\n", st.WindowTitle)
	if st.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", st.URL)
	}
	fmt.Fprintf(&b, "Step %d of %d\n", stepNumber, maxSteps)
	if maxSteps-stepNumber <= 3 {
		b.WriteString("WARNING: step budget nearly exhausted, wrap up or complete soon.\n")
	}
	fmt.Fprintf(&b, "\nInteractable elements (%d):\n", len(st.Elements))
	b.WriteString(compress.FormatPrompt(st.Elements))
	b.WriteString("\n\n")
	b.WriteString(history.FormatForPrompt(entries))
	return b.String()
}

// buildRetryPrompt embeds the failed action and error, reporting chunkIndex
// as the attempt number; the elements and history sections are the same as
// in buildUserPrompt.
func buildRetryPrompt(goal string, failed string, target string, errMsg string, st ObservedState, entries []history.Entry, chunkIndex int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	fmt.Fprintf(&b, "Mode: %s\n", st.Mode)
	fmt.Fprintf(&b, "Window: %s\n", st.WindowTitle)
	fmt.Fprintf(&b, "Previous action %q on %q failed (attempt %d): %s\n", failed, target, chunkIndex, errMsg)
	b.WriteString("Choose a different action or target.\n")
	b.WriteString("Try coords:x,y from the element list, a different element name, or launch_browser if the browser is not open yet.\n\n")
	b.WriteString("Interactable elements:\n")
	b.WriteString(compress.FormatPrompt(st.Elements))
	b.WriteString("\n\n")
	b.WriteString(history.FormatForPrompt(entries))
	return b.String()
}
