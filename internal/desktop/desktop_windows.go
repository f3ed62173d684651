//go:build windows

package desktop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mrdja026/pcagent/internal/action"
)

// windowsDriver is the real Driver implementation. Tree observation shells
// out to a small PowerShell script against System.Windows.Automation (the
// same bridge the original uses for its "whole screen" a11y dump in
// main.rs's get_screen_a11y_tree), because no package in this module's
// dependency set exposes IUIAutomation COM bindings directly. Mouse and
// keyboard synthesis go straight through user32's SendInput, matching
// windows_ui.rs exactly.
type windowsDriver struct {
	mu sync.Mutex
}

func NewDriver() (Driver, error) {
	return &windowsDriver{}, nil
}

func (d *windowsDriver) Close() {}

func (d *windowsDriver) GetDesktopState(ctx context.Context) (State, error) {
	title := getWindowText(getForegroundWindow())
	tree, err := d.a11yTree(ctx)
	if err != nil {
		return State{}, err
	}
	return State{WindowTitle: title, ScreenshotBase64: "", AccessibilityTree: tree}, nil
}

// psTreeScript walks the foreground window and the taskbar (Shell_TrayWnd)
// the same two roots windows_ui.rs's get_a11y_tree visits, emitting JSON
// this process parses back into AXNode.
const psTreeScript = `
Add-Type -AssemblyName UIAutomationClient
Add-Type -AssemblyName UIAutomationTypes
function Get-Tree($el, $depth) {
  if ($depth -gt 6 -or $null -eq $el) { return $null }
  $cur = $el.Current
  $rect = $cur.BoundingRectangle
  $kids = New-Object System.Collections.ArrayList
  $walker = [System.Windows.Automation.TreeWalker]::RawViewWalker
  $child = $walker.GetFirstChild($el)
  while ($null -ne $child) {
    $c = Get-Tree $child ($depth + 1)
    if ($c) { [void]$kids.Add($c) }
    $child = $walker.GetNextSibling($child)
  }
  @{
    role = $cur.ControlType.ProgrammaticName -replace 'ControlType\.', ''
    name = $cur.Name
    value = ""
    id = ($el.GetRuntimeId() -join '.')
    focusable = [bool]$cur.IsKeyboardFocusable
    x = $rect.X; y = $rect.Y; width = $rect.Width; height = $rect.Height
    children = $kids
  }
}
$roots = New-Object System.Collections.ArrayList
try {
  $fg = [System.Windows.Automation.AutomationElement]::FromHandle([IntPtr]%d)
  if ($fg) { [void]$roots.Add((Get-Tree $fg 0)) }
} catch {}
try {
  $tray = [System.Windows.Automation.AutomationElement]::RootElement.FindFirst(
    [System.Windows.Automation.TreeScope]::Children,
    (New-Object System.Windows.Automation.PropertyCondition(
      [System.Windows.Automation.AutomationElement]::ClassNameProperty, "Shell_TrayWnd")))
  if ($tray) { [void]$roots.Add((Get-Tree $tray 0)) }
} catch {}
$roots | ConvertTo-Json -Depth 30 -Compress
`

type psNode struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Name      string   `json:"name"`
	Value     string   `json:"value"`
	Focusable bool     `json:"focusable"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	Children  []psNode `json:"children"`
}

func (d *windowsDriver) a11yTree(ctx context.Context) ([]AXNode, error) {
	script := fmt.Sprintf(psTreeScript, uintptr(getForegroundWindow()))
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", script)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, action.Transportf("a11yTree", "powershell a11y dump: %w (%s)", err, stderr.String())
	}
	trimmed := strings.TrimSpace(out.String())
	if trimmed == "" {
		return nil, nil
	}
	var raw []psNode
	if trimmed[0] == '{' {
		var single psNode
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return nil, action.Schemaf("a11yTree", "decode a11y json: %w", err)
		}
		raw = []psNode{single}
	} else if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, action.Schemaf("a11yTree", "decode a11y json: %w", err)
	}

	var flat []AXNode
	var walk func(n psNode, path string)
	walk = func(n psNode, path string) {
		id := n.ID
		if id == "" {
			id = path
		}
		node := AXNode{
			NodeID:    id,
			Role:      n.Role,
			Name:      n.Name,
			Value:     n.Value,
			Focusable: n.Focusable,
			IsLeaf:    len(n.Children) == 0,
			Bounds:    &Bounds{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height},
		}
		flat = append(flat, node)
		for i, c := range n.Children {
			walk(c, fmt.Sprintf("%s.%d", path, i+1))
		}
	}
	for i, r := range raw {
		walk(r, strconv.Itoa(i+1))
	}
	return flat, nil
}

func (d *windowsDriver) findByName(ctx context.Context, name string) (*AXNode, error) {
	tree, err := d.a11yTree(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tree {
		if tree[i].Name == name {
			return &tree[i], nil
		}
	}
	return nil, action.Targetf("findByName", "no element found by name: %s", name)
}

func (d *windowsDriver) findByNodeID(ctx context.Context, id string) (*AXNode, error) {
	tree, err := d.a11yTree(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tree {
		if tree[i].NodeID == id {
			return &tree[i], nil
		}
	}
	return nil, action.Targetf("findByNodeID", "element not found: %s", id)
}

func center(b *Bounds) (int32, int32, error) {
	if b == nil || b.Width == 0 {
		return 0, 0, action.Targetf("center", "element has no bounds")
	}
	return int32(b.X + b.Width/2), int32(b.Y + b.Height/2), nil
}

func (d *windowsDriver) moveMouse(x, y int32) {
	setCursorPos(x, y)
}

func (d *windowsDriver) clickAt(x, y int32) error {
	d.moveMouse(x, y)
	time.Sleep(50 * time.Millisecond)
	n := sendInputs([]inputRecord{mouseRecord(mouseEventFLeftDown, 0), mouseRecord(mouseEventFLeftUp, 0)})
	if n != 2 {
		return action.Transportf("clickAt", "SendInput reported %d of 2 events", n)
	}
	return nil
}

func (d *windowsDriver) doubleClickAt(x, y int32) error {
	if err := d.clickAt(x, y); err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	return d.clickAt(x, y)
}

func (d *windowsDriver) rightClickAt(x, y int32) error {
	d.moveMouse(x, y)
	time.Sleep(50 * time.Millisecond)
	n := sendInputs([]inputRecord{mouseRecord(mouseEventFRightDown, 0), mouseRecord(mouseEventFRightUp, 0)})
	if n != 2 {
		return action.Transportf("rightClickAt", "SendInput reported %d of 2 events", n)
	}
	return nil
}

func (d *windowsDriver) hoverAt(x, y int32) {
	d.moveMouse(x, y)
	time.Sleep(100 * time.Millisecond)
}

func (d *windowsDriver) typeChar(c rune) error {
	n := sendInputs([]inputRecord{
		keybdRecord(0, uint16(c), keyEventFUnicode),
		keybdRecord(0, uint16(c), keyEventFUnicode|keyEventFKeyUp),
	})
	if n != 2 {
		return action.Transportf("typeChar", "SendInput reported %d of 2 events", n)
	}
	return nil
}

func (d *windowsDriver) typeText(text string) error {
	for _, c := range text {
		if err := d.typeChar(c); err != nil {
			return err
		}
	}
	return nil
}

// keyNameToVK mirrors windows_ui.rs's key_name_to_vk table for the named
// keys the model is allowed to send, plus A-Z/0-9 passthrough.
var keyNameToVK = map[string]uint16{
	"Enter": 0x0D, "Tab": 0x09, "Backspace": 0x08, "Escape": 0x1B,
	"Delete": 0x2E, "Home": 0x24, "End": 0x23, "PageUp": 0x21, "PageDown": 0x22,
	"ArrowUp": 0x26, "ArrowDown": 0x28, "ArrowLeft": 0x25, "ArrowRight": 0x27,
	"Space": 0x20,
}

var modifierToVK = map[string]uint16{
	"Ctrl": 0x11, "Control": 0x11, "Shift": 0x10, "Alt": 0x12, "Win": 0x5B,
}

func vkForKey(key string) (uint16, bool) {
	if vk, ok := keyNameToVK[key]; ok {
		return vk, true
	}
	if len(key) == 1 {
		c := strings.ToUpper(key)[0]
		if c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			return uint16(c), true
		}
	}
	return 0, false
}

func (d *windowsDriver) keyDown(vk uint16) error {
	n := sendInputs([]inputRecord{keybdRecord(vk, 0, 0)})
	if n != 1 {
		return action.Transportf("keyDown", "SendInput reported %d of 1 events", n)
	}
	return nil
}

func (d *windowsDriver) keyUp(vk uint16) error {
	n := sendInputs([]inputRecord{keybdRecord(vk, 0, keyEventFKeyUp)})
	if n != 1 {
		return action.Transportf("keyUp", "SendInput reported %d of 1 events", n)
	}
	return nil
}

func (d *windowsDriver) pressVK(vk uint16) error {
	if err := d.keyDown(vk); err != nil {
		return err
	}
	return d.keyUp(vk)
}

func (d *windowsDriver) pressKey(name string) error {
	vk, ok := vkForKey(name)
	if !ok {
		return action.Schemaf("pressKey", "unrecognized key: %s", name)
	}
	return d.pressVK(vk)
}

// pressKeyCombo presses modifiers down in order, taps the main key, then
// releases modifiers in reverse order, matching windows_ui.rs.
func (d *windowsDriver) pressKeyCombo(modifiers []string, key string) error {
	var pressed []uint16
	for _, m := range modifiers {
		vk, ok := modifierToVK[m]
		if !ok {
			return action.Schemaf("pressKeyCombo", "unrecognized modifier: %s", m)
		}
		if err := d.keyDown(vk); err != nil {
			return err
		}
		pressed = append(pressed, vk)
	}
	err := d.pressKey(key)
	for i := len(pressed) - 1; i >= 0; i-- {
		d.keyUp(pressed[i])
	}
	return err
}

func (d *windowsDriver) scroll(deltaY int32) error {
	n := sendInputs([]inputRecord{mouseRecord(mouseEventFWheel, uint32(deltaY))})
	if n != 1 {
		return action.Transportf("scroll", "SendInput reported %d of 1 events", n)
	}
	time.Sleep(100 * time.Millisecond)
	return nil
}

// browserCandidate is one entry in the closed launch_browser/launch_app
// path tables windows_ui.rs hardcodes.
type browserCandidate struct {
	path         string
	name         string
	isChromium   bool
}

var debugPort = 9222

var browserCandidates = []browserCandidate{
	{`C:\Program Files\Google\Chrome\Application\chrome.exe`, "Chrome", true},
	{`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`, "Chrome", true},
	{`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`, "Edge", true},
	{`C:\Program Files\Microsoft\Edge\Application\msedge.exe`, "Edge", true},
	{`C:\Program Files\Mozilla Firefox\firefox.exe`, "Firefox", false},
	{`C:\Program Files (x86)\Mozilla Firefox\firefox.exe`, "Firefox", false},
}

func pathExists(path string) bool {
	cmd := exec.Command("cmd", "/C", "if exist \""+path+"\" exit 0 else exit 1")
	return cmd.Run() == nil
}

func (d *windowsDriver) launchBrowser(ctx context.Context, url string) (string, error) {
	for _, cand := range browserCandidates {
		if !pathExists(cand.path) {
			continue
		}
		args := []string{}
		if cand.isChromium {
			args = append(args, fmt.Sprintf("--remote-debugging-port=%d", debugPort))
		}
		if url != "" {
			args = append(args, url)
		}
		cmd := exec.CommandContext(ctx, cand.path, args...)
		if err := cmd.Start(); err != nil {
			return "", action.Transportf("launchBrowser", "spawn %s: %w", cand.name, err)
		}
		time.Sleep(2 * time.Second)
		if cand.isChromium {
			return fmt.Sprintf("Launched %s (CDP enabled on port %d)", cand.name, debugPort), nil
		}
		return fmt.Sprintf("Launched %s", cand.name), nil
	}
	return "", action.Targetf("launchBrowser", "no browser found in any known install location")
}

var appCandidates = map[string][]browserCandidate{
	"chrome":        {browserCandidates[0], browserCandidates[1]},
	"google chrome": {browserCandidates[0], browserCandidates[1]},
	"edge":          {browserCandidates[2], browserCandidates[3]},
	"msedge":        {browserCandidates[2], browserCandidates[3]},
	"microsoft edge": {browserCandidates[2], browserCandidates[3]},
	"firefox":        {browserCandidates[4], browserCandidates[5]},
	"mozilla firefox": {browserCandidates[4], browserCandidates[5]},
}

var fixedApps = map[string]string{
	"notepad":             `C:\Windows\System32\notepad.exe`,
	"explorer":            `C:\Windows\explorer.exe`,
	"file explorer":       `C:\Windows\explorer.exe`,
	"cmd":                 `C:\Windows\System32\cmd.exe`,
	"command prompt":      `C:\Windows\System32\cmd.exe`,
	"powershell":          `C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`,
	"calc":                `C:\Windows\System32\calc.exe`,
	"calculator":          `C:\Windows\System32\calc.exe`,
}

func (d *windowsDriver) launchApp(ctx context.Context, app string, extraArgs []string) (string, error) {
	key := strings.ToLower(app)
	if candidates, ok := appCandidates[key]; ok {
		for _, cand := range candidates {
			if !pathExists(cand.path) {
				continue
			}
			args := []string{}
			if cand.isChromium {
				args = append(args, fmt.Sprintf("--remote-debugging-port=%d", debugPort))
			}
			args = append(args, extraArgs...)
			cmd := exec.CommandContext(ctx, cand.path, args...)
			if err := cmd.Start(); err != nil {
				return "", action.Transportf("launchApp", "spawn %s: %w", cand.name, err)
			}
			time.Sleep(1 * time.Second)
			return fmt.Sprintf("Launched %s", cand.name), nil
		}
		return "", action.Targetf("launchApp", "no install found for %s", app)
	}
	if path, ok := fixedApps[key]; ok {
		cmd := exec.CommandContext(ctx, path, extraArgs...)
		if err := cmd.Start(); err != nil {
			return "", action.Transportf("launchApp", "spawn %s: %w", app, err)
		}
		time.Sleep(1 * time.Second)
		return fmt.Sprintf("Launched %s", app), nil
	}
	if !pathExists(app) {
		return "", action.Targetf("launchApp", "no application found: %s", app)
	}
	cmd := exec.CommandContext(ctx, app, extraArgs...)
	if err := cmd.Start(); err != nil {
		return "", action.Transportf("launchApp", "spawn %s: %w", app, err)
	}
	time.Sleep(1 * time.Second)
	return fmt.Sprintf("Launched %s", app), nil
}

func (d *windowsDriver) runCommand(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "cmd", "/C", "start", "\"\"", command)
	if err := cmd.Start(); err != nil {
		return "", action.Transportf("runCommand", "start %q: %w", command, err)
	}
	time.Sleep(1 * time.Second)
	return "Command started: " + command, nil
}

func (d *windowsDriver) focusWindow() {
	setForegroundWindow(getForegroundWindow())
}

// ExecuteLLMAction routes a model command through the coords:/name:/node_id
// target rules of windows_ui.rs, then applies the uniform 200ms settle
// every desktop action gets regardless of kind.
func (d *windowsDriver) ExecuteLLMAction(ctx context.Context, cmd action.Command) error {
	target := cmd.Target
	var err error

	switch cmd.Type {
	case action.Click:
		err = d.resolveAndClick(ctx, target, d.clickAt)
	case action.DoubleClick:
		err = d.resolveAndClick(ctx, target, d.doubleClickAt)
	case action.RightClick:
		err = d.resolveAndClick(ctx, target, d.rightClickAt)
	case action.Hover:
		err = d.resolveAndHover(ctx, target)
	case action.Type:
		text := cmd.StringParam("text")
		if target != "" {
			if cerr := d.clickTargetToFocus(ctx, target); cerr != nil {
				err = cerr
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		err = d.typeText(text)
	case action.Clear:
		if strings.HasPrefix(target, "name:") {
			node, ferr := d.findByName(ctx, strings.TrimPrefix(target, "name:"))
			if ferr != nil {
				err = ferr
				break
			}
			x, y, cerr := center(node.Bounds)
			if cerr != nil {
				err = cerr
				break
			}
			if cerr := d.clickAt(x, y); cerr != nil {
				err = cerr
				break
			}
		} else if target != "" {
			if cerr := d.clickTargetToFocus(ctx, target); cerr != nil {
				err = cerr
				break
			}
		}
		if cerr := d.pressKeyCombo([]string{"Ctrl"}, "a"); cerr != nil {
			err = cerr
			break
		}
		time.Sleep(50 * time.Millisecond)
		err = d.pressKey("Backspace")
	case action.PressKey:
		key := cmd.StringParam("key")
		if key == "" {
			key = target
		}
		err = d.pressKey(key)
	case action.Scroll:
		amount := int32(300)
		var p struct {
			Amount json.Number `json:"amount"`
		}
		if cmd.ParamsInto(&p) == nil && p.Amount != "" {
			if n, perr := p.Amount.Int64(); perr == nil {
				amount = int32(n)
			}
		}
		deltaY := -amount
		if cmd.StringParam("direction") == "up" {
			deltaY = amount
		}
		err = d.scroll(deltaY)
	case action.FocusWindow:
		d.focusWindow()
	case action.LaunchBrowser:
		_, err = d.launchBrowser(ctx, target)
	case action.Launch, "launch_app":
		app := cmd.StringParam("app")
		if app == "" {
			app = target
		}
		_, err = d.launchApp(ctx, app, nil)
	case action.Run, "run_command":
		command := cmd.StringParam("command")
		if command == "" {
			command = target
		}
		_, err = d.runCommand(ctx, command)
	case action.Complete:
		// signal action, nothing to execute; the orchestrator loop handles it
	case action.Navigate:
		err = action.Modef("ExecuteLLMAction", "'navigate' action is only available in browser mode. Use Chrome with debugging port.")
	case action.Select:
		err = action.Modef("ExecuteLLMAction", "'select' action is only available in browser mode.")
	case action.Wait:
		err = action.Modef("ExecuteLLMAction", "'wait' action is only available in browser mode. In desktop mode, elements are always present in the accessibility tree.")
	case action.GoBack:
		err = action.Modef("ExecuteLLMAction", "'go_back' action is only available in browser mode.")
	case action.GoForward:
		err = action.Modef("ExecuteLLMAction", "'go_forward' action is only available in browser mode.")
	case action.Reload:
		err = action.Modef("ExecuteLLMAction", "'reload' action is only available in browser mode.")
	case action.EvalJS:
		err = action.Modef("ExecuteLLMAction", "'eval_js' action is only available in browser mode.")
	case action.GetText, action.GetAttribute:
		err = action.Modef("ExecuteLLMAction", "'%s' action is only available in browser mode.", cmd.Type)
	default:
		err = action.Schemaf("ExecuteLLMAction", "%q is not a recognized action", cmd.Type)
	}

	time.Sleep(settle)
	return err
}

func (d *windowsDriver) resolveAndClick(ctx context.Context, target string, click func(int32, int32) error) error {
	x, y, err := d.resolveTargetCoords(ctx, target)
	if err != nil {
		return err
	}
	return click(x, y)
}

func (d *windowsDriver) resolveAndHover(ctx context.Context, target string) error {
	x, y, err := d.resolveTargetCoords(ctx, target)
	if err != nil {
		return err
	}
	d.hoverAt(x, y)
	return nil
}

func (d *windowsDriver) resolveTargetCoords(ctx context.Context, target string) (int32, int32, error) {
	switch {
	case strings.HasPrefix(target, "coords:"):
		parts := strings.SplitN(strings.TrimPrefix(target, "coords:"), ",", 2)
		if len(parts) != 2 {
			return 0, 0, action.Schemaf("resolveTargetCoords", "malformed coords target: %s", target)
		}
		x, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		y, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return 0, 0, action.Schemaf("resolveTargetCoords", "malformed coords target: %s", target)
		}
		return int32(x), int32(y), nil
	case strings.HasPrefix(target, "name:"):
		node, err := d.findByName(ctx, strings.TrimPrefix(target, "name:"))
		if err != nil {
			return 0, 0, err
		}
		return center(node.Bounds)
	default:
		node, err := d.findByNodeID(ctx, target)
		if err != nil {
			return 0, 0, err
		}
		return center(node.Bounds)
	}
}

func (d *windowsDriver) clickTargetToFocus(ctx context.Context, target string) error {
	x, y, err := d.resolveTargetCoords(ctx, target)
	if err != nil {
		return err
	}
	return d.clickAt(x, y)
}
