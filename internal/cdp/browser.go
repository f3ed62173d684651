package cdp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/mrdja026/pcagent/internal/action"
)

// AXNode is one node of the browser's accessibility tree, kept as a flat
// list with no link to the node's parent, mirroring the original automation layer's chrome_cdp AXNode shape.
type AXNode struct {
	NodeID    string  `json:"node_id"`
	Role      string  `json:"role"`
	Name      string  `json:"name"`
	Value     string  `json:"value,omitempty"`
	Bounds    *Bounds `json:"bounds,omitempty"`
	Focusable bool    `json:"focusable"`
}

type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// State is the composed browser observation handed to the compressor.
type State struct {
	URL               string   `json:"url"`
	Title             string   `json:"title"`
	ScreenshotBase64  string   `json:"screenshot_base64"`
	AccessibilityTree []AXNode `json:"accessibility_tree"`
}

// interactiveRoles mirrors chrome_cdp.rs's get_a11y_tree role allowlist.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "checkbox": true,
	"radio": true, "combobox": true, "menuitem": true, "tab": true,
	"listbox": true, "option": true, "searchbox": true, "slider": true,
	"switch": true, "heading": true, "listitem": true,
}

// Driver owns a lazily-(re)connected CDP session against the first
// available page target, following the teacher's browserManager pattern
// in cmd/worker/browser.go: a mutex-guarded struct that tests the existing
// connection before every call and reconnects on demand.
type Driver struct {
	mu   sync.Mutex
	addr string
	conn *Conn
}

func NewDriver(addr string) *Driver {
	return &Driver{addr: addr}
}

func (d *Driver) ensureConnected(ctx context.Context) (*Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		if err := d.conn.Call(ctx, "Target.getTargetInfo", nil, nil); err == nil {
			return d.conn, nil
		}
		d.conn.Close()
		d.conn = nil
	}

	tabs, err := ListTabs(ctx, d.addr)
	if err != nil {
		return nil, err
	}
	target, err := FindPageTarget(tabs)
	if err != nil {
		return nil, err
	}
	conn, err := Dial(ctx, target.WSURL)
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

// Connected probes whether a debug target is reachable at all, used by the
// mode detector to decide between browser and desktop automation.
func (d *Driver) Connected(ctx context.Context) bool {
	_, err := d.ensureConnected(ctx)
	return err == nil
}

func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (d *Driver) Navigate(ctx context.Context, target string) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	if err := c.Call(ctx, "Page.navigate", &page.NavigateParams{URL: target}, nil); err != nil {
		return action.NewError(action.KindRemote, "Navigate", err)
	}
	_ = c.Call(ctx, "Page.enable", &page.EnableParams{}, nil)
	sleep(ctx, 2*time.Second)
	return nil
}

func (d *Driver) GetURL(ctx context.Context) (string, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	return d.evalString(ctx, c, "window.location.href")
}

func (d *Driver) GetTitle(ctx context.Context) (string, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	return d.evalString(ctx, c, "document.title")
}

func (d *Driver) evalString(ctx context.Context, c *Conn, expr string) (string, error) {
	var ret runtime.EvaluateReturns
	if err := c.Call(ctx, "Runtime.evaluate", &runtime.EvaluateParams{Expression: expr, ReturnByValue: true}, &ret); err != nil {
		return "", action.NewError(action.KindRemote, "evalString", err)
	}
	if ret.Result == nil {
		return "", nil
	}
	s, _ := ret.Result.Value.MarshalJSON()
	return strings.Trim(string(s), `"`), nil
}

func (d *Driver) GetA11yTree(ctx context.Context) ([]AXNode, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	_ = c.Call(ctx, "Accessibility.enable", &accessibility.EnableParams{}, nil)
	var ret accessibility.GetFullAXTreeReturns
	if err := c.Call(ctx, "Accessibility.getFullAXTree", &accessibility.GetFullAXTreeParams{}, &ret); err != nil {
		return nil, action.NewError(action.KindRemote, "GetA11yTree", err)
	}

	var nodes []AXNode
	for _, n := range ret.Nodes {
		if n.Ignored {
			continue
		}
		role := propString(n.Role)
		name := propString(n.Name)
		if !interactiveRoles[role] && !boolProp(n.Focusable) {
			continue
		}
		nodes = append(nodes, AXNode{
			NodeID:    string(n.NodeID),
			Role:      role,
			Name:      name,
			Value:     propString(n.Value),
			Focusable: boolProp(n.Focusable),
		})
	}
	return nodes, nil
}

func propString(p *accessibility.ComputedProperty) string {
	if p == nil || p.Value == nil {
		return ""
	}
	raw, _ := p.Value.MarshalJSON()
	return strings.Trim(string(raw), `"`)
}

func boolProp(p *accessibility.ComputedProperty) bool {
	return propString(p) == "true"
}

func (d *Driver) FindElement(ctx context.Context, selector string) (cdp.NodeID, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return 0, err
	}
	_ = c.Call(ctx, "DOM.enable", &dom.EnableParams{}, nil)
	var doc dom.GetDocumentReturns
	if err := c.Call(ctx, "DOM.getDocument", &dom.GetDocumentParams{Depth: -1}, &doc); err != nil {
		return 0, action.NewError(action.KindRemote, "FindElement", err)
	}
	var root cdp.NodeID
	if doc.Root != nil {
		root = doc.Root.NodeID
	}
	var ret dom.QuerySelectorReturns
	if err := c.Call(ctx, "DOM.querySelector", &dom.QuerySelectorParams{NodeID: root, Selector: selector}, &ret); err != nil {
		return 0, action.NewError(action.KindRemote, "FindElement", err)
	}
	if ret.NodeID == 0 {
		return 0, action.Targetf("FindElement", "no element matches selector %q", selector)
	}
	return ret.NodeID, nil
}

func (d *Driver) GetBounds(ctx context.Context, nodeID cdp.NodeID) (Bounds, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return Bounds{}, err
	}
	var ret dom.GetBoxModelReturns
	if err := c.Call(ctx, "DOM.getBoxModel", &dom.GetBoxModelParams{NodeID: nodeID}, &ret); err != nil {
		return Bounds{}, action.NewError(action.KindRemote, "GetBounds", err)
	}
	if ret.Model == nil || len(ret.Model.Content) < 6 {
		return Bounds{}, action.Targetf("GetBounds", "element has no box model")
	}
	q := ret.Model.Content
	return Bounds{X: q[0], Y: q[1], Width: q[4] - q[0], Height: q[5] - q[1]}, nil
}

func (d *Driver) ClickAt(ctx context.Context, x, y float64, button input.Button, clickCount int64) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	press := &input.DispatchMouseEventParams{Type: input.MousePressed, X: x, Y: y, Button: button, ClickCount: clickCount}
	release := &input.DispatchMouseEventParams{Type: input.MouseReleased, X: x, Y: y, Button: button, ClickCount: clickCount}
	if err := c.Call(ctx, "Input.dispatchMouseEvent", press, nil); err != nil {
		return action.NewError(action.KindRemote, "ClickAt", err)
	}
	if err := c.Call(ctx, "Input.dispatchMouseEvent", release, nil); err != nil {
		return action.NewError(action.KindRemote, "ClickAt", err)
	}
	sleep(ctx, 100*time.Millisecond)
	return nil
}

func (d *Driver) ClickElement(ctx context.Context, selector string) error {
	nodeID, err := d.FindElement(ctx, selector)
	if err != nil {
		return err
	}
	b, err := d.GetBounds(ctx, nodeID)
	if err != nil {
		return err
	}
	return d.ClickAt(ctx, b.X+b.Width/2, b.Y+b.Height/2, input.Left, 1)
}

func (d *Driver) ClickAX(ctx context.Context, axID string) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	var ret accessibility.GetFullAXTreeReturns
	if err := c.Call(ctx, "Accessibility.getFullAXTree", &accessibility.GetFullAXTreeParams{}, &ret); err != nil {
		return action.NewError(action.KindRemote, "ClickAX", err)
	}
	for _, n := range ret.Nodes {
		if string(n.NodeID) != axID {
			continue
		}
		var box dom.GetBoxModelReturns
		if err := c.Call(ctx, "DOM.getBoxModel", &dom.GetBoxModelParams{BackendNodeID: n.BackendDOMNodeID}, &box); err != nil {
			return action.NewError(action.KindRemote, "ClickAX", err)
		}
		if box.Model == nil || len(box.Model.Content) < 6 {
			return action.Targetf("ClickAX", "ax node %s has no box model", axID)
		}
		q := box.Model.Content
		cx := (q[0] + q[4]) / 2
		cy := (q[1] + q[5]) / 2
		return d.ClickAt(ctx, cx, cy, input.Left, 1)
	}
	return action.Targetf("ClickAX", "no ax node with id %s", axID)
}

func (d *Driver) ClickXPath(ctx context.Context, expr string) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	var search dom.PerformSearchReturns
	if err := c.Call(ctx, "DOM.performSearch", &dom.PerformSearchParams{Query: expr}, &search); err != nil {
		return action.NewError(action.KindRemote, "ClickXPath", err)
	}
	if search.ResultCount == 0 {
		_ = c.Call(ctx, "DOM.discardSearchResults", &dom.DiscardSearchResultsParams{SearchID: search.SearchID}, nil)
		return action.Targetf("ClickXPath", "XPath not found: %s", expr)
	}
	var results dom.GetSearchResultsReturns
	if err := c.Call(ctx, "DOM.getSearchResults", &dom.GetSearchResultsParams{SearchID: search.SearchID, FromIndex: 0, ToIndex: 1}, &results); err != nil {
		_ = c.Call(ctx, "DOM.discardSearchResults", &dom.DiscardSearchResultsParams{SearchID: search.SearchID}, nil)
		return action.NewError(action.KindRemote, "ClickXPath", err)
	}
	_ = c.Call(ctx, "DOM.discardSearchResults", &dom.DiscardSearchResultsParams{SearchID: search.SearchID}, nil)
	if len(results.NodeIds) == 0 {
		return action.Targetf("ClickXPath", "XPath not found: %s", expr)
	}
	b, err := d.GetBounds(ctx, results.NodeIds[0])
	if err != nil {
		return err
	}
	return d.ClickAt(ctx, b.X+b.Width/2, b.Y+b.Height/2, input.Left, 1)
}

func (d *Driver) TypeText(ctx context.Context, text string) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	if err := c.Call(ctx, "Input.insertText", &input.InsertTextParams{Text: text}, nil); err != nil {
		return action.NewError(action.KindRemote, "TypeText", err)
	}
	return nil
}

func (d *Driver) TypeInto(ctx context.Context, selector, text string) error {
	if err := d.ClickElement(ctx, selector); err != nil {
		return err
	}
	sleep(ctx, 100*time.Millisecond)
	if err := d.selectAll(ctx); err != nil {
		return err
	}
	return d.TypeText(ctx, text)
}

func (d *Driver) selectAll(ctx context.Context) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	const ctrlModifier = 2
	down := &input.DispatchKeyEventParams{Type: input.KeyDown, Modifiers: ctrlModifier, Key: "a", Code: "KeyA"}
	up := &input.DispatchKeyEventParams{Type: input.KeyUp, Modifiers: ctrlModifier, Key: "a", Code: "KeyA"}
	if err := c.Call(ctx, "Input.dispatchKeyEvent", down, nil); err != nil {
		return action.NewError(action.KindRemote, "selectAll", err)
	}
	return c.Call(ctx, "Input.dispatchKeyEvent", up, nil)
}

// keyCodes mirrors chrome_cdp.rs's mapKeyName table for the handful of
// named keys the model is allowed to send verbatim.
var keyCodes = map[string]string{
	"Enter": "\r", "Tab": "\t", "Backspace": "\b", "Escape": "\x1b",
	"Delete": "", "Home": "", "End": "",
	"PageUp": "", "PageDown": "",
	"ArrowUp": "", "ArrowDown": "", "ArrowLeft": "", "ArrowRight": "",
	"Space": " ",
}

func (d *Driver) PressKey(ctx context.Context, key string) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	text, known := keyCodes[key]
	if !known {
		text = key
	}
	down := &input.DispatchKeyEventParams{Type: input.KeyDown, Key: key, Text: text}
	up := &input.DispatchKeyEventParams{Type: input.KeyUp, Key: key, Text: text}
	if err := c.Call(ctx, "Input.dispatchKeyEvent", down, nil); err != nil {
		return action.NewError(action.KindRemote, "PressKey", err)
	}
	return c.Call(ctx, "Input.dispatchKeyEvent", up, nil)
}

func (d *Driver) Scroll(ctx context.Context, deltaY float64) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	ev := &input.DispatchMouseEventParams{Type: input.MouseWheel, X: 400, Y: 300, DeltaX: 0, DeltaY: deltaY}
	if err := c.Call(ctx, "Input.dispatchMouseEvent", ev, nil); err != nil {
		return action.NewError(action.KindRemote, "Scroll", err)
	}
	sleep(ctx, 200*time.Millisecond)
	return nil
}

func (d *Driver) Screenshot(ctx context.Context) (string, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	var ret page.CaptureScreenshotReturns
	if err := c.Call(ctx, "Page.captureScreenshot", &page.CaptureScreenshotParams{Format: page.CaptureScreenshotFormatPng}, &ret); err != nil {
		return "", action.NewError(action.KindRemote, "Screenshot", err)
	}
	return base64.StdEncoding.EncodeToString(ret.Data), nil
}

func (d *Driver) FocusWindow(ctx context.Context) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	return c.Call(ctx, "Page.bringToFront", &page.BringToFrontParams{}, nil)
}

func (d *Driver) HoverAt(ctx context.Context, x, y float64) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	ev := &input.DispatchMouseEventParams{Type: input.MouseMoved, X: x, Y: y}
	if err := c.Call(ctx, "Input.dispatchMouseEvent", ev, nil); err != nil {
		return action.NewError(action.KindRemote, "HoverAt", err)
	}
	sleep(ctx, 100*time.Millisecond)
	return nil
}

func (d *Driver) HoverElement(ctx context.Context, selector string) error {
	nodeID, err := d.FindElement(ctx, selector)
	if err != nil {
		return err
	}
	b, err := d.GetBounds(ctx, nodeID)
	if err != nil {
		return err
	}
	return d.HoverAt(ctx, b.X+b.Width/2, b.Y+b.Height/2)
}

func (d *Driver) GetText(ctx context.Context, selector string) (string, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	escaped := strings.ReplaceAll(selector, `'`, `\'`)
	expr := fmt.Sprintf(`document.querySelector('%s')?.innerText||''`, escaped)
	return d.evalString(ctx, c, expr)
}

func (d *Driver) GetAttribute(ctx context.Context, selector, attr string) (string, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	escapedSel := strings.ReplaceAll(selector, `'`, `\'`)
	escapedAttr := strings.ReplaceAll(attr, `'`, `\'`)
	expr := fmt.Sprintf(`document.querySelector('%s')?.getAttribute('%s')||''`, escapedSel, escapedAttr)
	return d.evalString(ctx, c, expr)
}

func (d *Driver) SelectOption(ctx context.Context, selector, value string) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	escapedSel := strings.ReplaceAll(selector, `'`, `\'`)
	escapedVal := strings.ReplaceAll(value, `'`, `\'`)
	expr := fmt.Sprintf(`(function(){var e=document.querySelector('%s');if(!e)return false;e.value='%s';e.dispatchEvent(new Event('change',{bubbles:true}));return true;})()`, escapedSel, escapedVal)
	_, err = d.evalRaw(ctx, c, expr)
	return err
}

func (d *Driver) evalRaw(ctx context.Context, c *Conn, expr string) (string, error) {
	var ret runtime.EvaluateReturns
	if err := c.Call(ctx, "Runtime.evaluate", &runtime.EvaluateParams{Expression: expr, ReturnByValue: true}, &ret); err != nil {
		return "", action.NewError(action.KindRemote, "evalRaw", err)
	}
	if ret.Result == nil || ret.Result.Value == nil {
		return "", nil
	}
	raw, _ := ret.Result.Value.MarshalJSON()
	return string(raw), nil
}

func (d *Driver) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	escaped := strings.ReplaceAll(selector, `'`, `\'`)
	expr := fmt.Sprintf(`!!document.querySelector('%s')`, escaped)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		raw, err := d.evalRaw(ctx, c, expr)
		if err == nil && raw == "true" {
			return nil
		}
		sleep(ctx, 100*time.Millisecond)
	}
	return action.Targetf("WaitForElement", "timeout waiting for %s", selector)
}

func (d *Driver) EvalJS(ctx context.Context, expr string) (string, error) {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return "", err
	}
	return d.evalRaw(ctx, c, expr)
}

func (d *Driver) GoBack(ctx context.Context) error    { return d.navigateHistory(ctx, -1) }
func (d *Driver) GoForward(ctx context.Context) error { return d.navigateHistory(ctx, 1) }

func (d *Driver) navigateHistory(ctx context.Context, delta int64) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	_ = c.Call(ctx, "Page.enable", &page.EnableParams{}, nil)
	var hist page.GetNavigationHistoryReturns
	if err := c.Call(ctx, "Page.getNavigationHistory", nil, &hist); err != nil {
		return action.NewError(action.KindRemote, "navigateHistory", err)
	}
	idx := hist.CurrentIndex + delta
	if idx < 0 || int(idx) >= len(hist.Entries) {
		return action.Targetf("navigateHistory", "no history entry at offset %d", delta)
	}
	entry := hist.Entries[idx]
	if err := c.Call(ctx, "Page.navigateToHistoryEntry", &page.NavigateToHistoryEntryParams{EntryID: entry.ID}, nil); err != nil {
		return action.NewError(action.KindRemote, "navigateHistory", err)
	}
	sleep(ctx, 1*time.Second)
	return nil
}

func (d *Driver) Reload(ctx context.Context) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	if err := c.Call(ctx, "Page.reload", &page.ReloadParams{}, nil); err != nil {
		return action.NewError(action.KindRemote, "Reload", err)
	}
	sleep(ctx, 2*time.Second)
	return nil
}

func (d *Driver) ClearInput(ctx context.Context, selector string) error {
	if err := d.ClickElement(ctx, selector); err != nil {
		return err
	}
	if err := d.selectAll(ctx); err != nil {
		return err
	}
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	down := &input.DispatchKeyEventParams{Type: input.KeyDown, Key: "Backspace"}
	up := &input.DispatchKeyEventParams{Type: input.KeyUp, Key: "Backspace"}
	if err := c.Call(ctx, "Input.dispatchKeyEvent", down, nil); err != nil {
		return action.NewError(action.KindRemote, "ClearInput", err)
	}
	return c.Call(ctx, "Input.dispatchKeyEvent", up, nil)
}

func (d *Driver) DoubleClickAt(ctx context.Context, x, y float64) error {
	return d.clickAtRaw(ctx, x, y, input.Left, 2)
}

func (d *Driver) RightClickAt(ctx context.Context, x, y float64) error {
	return d.clickAtRaw(ctx, x, y, input.Right, 1)
}

// clickAtRaw performs the dispatch without the post-click settle that
// ClickAt applies, matching chrome_cdp.rs's click_at variants for double
// and right click which do not sleep individually.
func (d *Driver) clickAtRaw(ctx context.Context, x, y float64, button input.Button, clickCount int64) error {
	c, err := d.ensureConnected(ctx)
	if err != nil {
		return err
	}
	press := &input.DispatchMouseEventParams{Type: input.MousePressed, X: x, Y: y, Button: button, ClickCount: clickCount}
	release := &input.DispatchMouseEventParams{Type: input.MouseReleased, X: x, Y: y, Button: button, ClickCount: clickCount}
	if err := c.Call(ctx, "Input.dispatchMouseEvent", press, nil); err != nil {
		return action.NewError(action.KindRemote, "clickAtRaw", err)
	}
	return c.Call(ctx, "Input.dispatchMouseEvent", release, nil)
}

func (d *Driver) GetBrowserState(ctx context.Context) (State, error) {
	url, err := d.GetURL(ctx)
	if err != nil {
		return State{}, err
	}
	title, err := d.GetTitle(ctx)
	if err != nil {
		return State{}, err
	}
	shot, err := d.Screenshot(ctx)
	if err != nil {
		return State{}, err
	}
	tree, err := d.GetA11yTree(ctx)
	if err != nil {
		return State{}, err
	}
	return State{URL: url, Title: title, ScreenshotBase64: shot, AccessibilityTree: tree}, nil
}

// ExecuteLLMAction routes a model command through the target-prefix rules
// of the original chrome_cdp.rs dispatcher, then applies the uniform
// 500ms post-action settle every browser action gets regardless of kind.
func (d *Driver) ExecuteLLMAction(ctx context.Context, cmd action.Command) error {
	target := cmd.Target
	var err error

	switch cmd.Type {
	case action.Click:
		err = d.dispatchByTarget(ctx, target, d.ClickElement)
	case action.DoubleClick:
		err = d.clickVariantByTarget(ctx, target, func(sel string) error {
			nodeID, ferr := d.FindElement(ctx, sel)
			if ferr != nil {
				return ferr
			}
			b, berr := d.GetBounds(ctx, nodeID)
			if berr != nil {
				return berr
			}
			return d.DoubleClickAt(ctx, b.X+b.Width/2, b.Y+b.Height/2)
		})
	case action.RightClick:
		err = d.clickVariantByTarget(ctx, target, func(sel string) error {
			nodeID, ferr := d.FindElement(ctx, sel)
			if ferr != nil {
				return ferr
			}
			b, berr := d.GetBounds(ctx, nodeID)
			if berr != nil {
				return berr
			}
			return d.RightClickAt(ctx, b.X+b.Width/2, b.Y+b.Height/2)
		})
	case action.Hover:
		if target == "" {
			err = action.Schemaf("ExecuteLLMAction", "hover requires a target")
		} else {
			err = d.HoverElement(ctx, target)
		}
	case action.Type:
		text := cmd.StringParam("text")
		if strings.HasPrefix(target, "ax:") {
			if cerr := d.ClickAX(ctx, strings.TrimPrefix(target, "ax:")); cerr != nil {
				err = cerr
				break
			}
			sleep(ctx, 100*time.Millisecond)
			if serr := d.selectAll(ctx); serr != nil {
				err = serr
				break
			}
			err = d.TypeText(ctx, text)
		} else if strings.HasPrefix(target, "xpath:") {
			if cerr := d.ClickXPath(ctx, strings.TrimPrefix(target, "xpath:")); cerr != nil {
				err = cerr
				break
			}
			sleep(ctx, 100*time.Millisecond)
			if serr := d.selectAll(ctx); serr != nil {
				err = serr
				break
			}
			err = d.TypeText(ctx, text)
		} else if target == "" {
			err = d.TypeText(ctx, text)
		} else {
			err = d.TypeInto(ctx, target, text)
		}
	case action.Clear:
		if strings.HasPrefix(target, "ax:") {
			if cerr := d.ClickAX(ctx, strings.TrimPrefix(target, "ax:")); cerr != nil {
				err = cerr
				break
			}
			if serr := d.selectAll(ctx); serr != nil {
				err = serr
				break
			}
			c, cerr := d.ensureConnected(ctx)
			if cerr != nil {
				err = cerr
				break
			}
			down := &input.DispatchKeyEventParams{Type: input.KeyDown, Key: "Backspace"}
			up := &input.DispatchKeyEventParams{Type: input.KeyUp, Key: "Backspace"}
			_ = c.Call(ctx, "Input.dispatchKeyEvent", down, nil)
			err = c.Call(ctx, "Input.dispatchKeyEvent", up, nil)
		} else {
			err = d.ClearInput(ctx, target)
		}
	case action.Navigate:
		url := cmd.StringParam("url")
		if url == "" {
			url = target
		}
		err = d.Navigate(ctx, url)
	case action.Scroll:
		amount := 300.0
		var p struct {
			Amount json.Number `json:"amount"`
		}
		if cmd.ParamsInto(&p) == nil && p.Amount != "" {
			if n, perr := p.Amount.Float64(); perr == nil {
				amount = n
			}
		}
		dy := amount
		if cmd.StringParam("direction") == "up" {
			dy = -amount
		}
		err = d.Scroll(ctx, dy)
	case action.PressKey:
		key := cmd.StringParam("key")
		if key == "" {
			key = target
		}
		err = d.PressKey(ctx, key)
	case action.FocusWindow:
		err = d.FocusWindow(ctx)
	case action.Select:
		err = d.SelectOption(ctx, target, cmd.StringParam("value"))
	case action.Wait:
		timeoutMs := 5000
		var p struct {
			TimeoutMs json.Number `json:"timeout_ms"`
		}
		if cmd.ParamsInto(&p) == nil && p.TimeoutMs != "" {
			if n, perr := p.TimeoutMs.Int64(); perr == nil {
				timeoutMs = int(n)
			}
		}
		err = d.WaitForElement(ctx, target, time.Duration(timeoutMs)*time.Millisecond)
	case action.GoBack:
		err = d.GoBack(ctx)
	case action.GoForward:
		err = d.GoForward(ctx)
	case action.Reload:
		err = d.Reload(ctx)
	case action.EvalJS:
		code := cmd.StringParam("code")
		if code == "" {
			code = target
		}
		_, err = d.EvalJS(ctx, code)
	case action.GetText:
		_, err = d.GetText(ctx, target)
	case action.GetAttribute:
		_, err = d.GetAttribute(ctx, target, cmd.StringParam("name"))
	default:
		err = action.Modef("ExecuteLLMAction", "%q is not a browser action", cmd.Type)
	}

	sleep(ctx, 500*time.Millisecond)
	return err
}

func (d *Driver) dispatchByTarget(ctx context.Context, target string, bySelector func(context.Context, string) error) error {
	switch {
	case strings.HasPrefix(target, "ax:"):
		return d.ClickAX(ctx, strings.TrimPrefix(target, "ax:"))
	case strings.HasPrefix(target, "xpath:"):
		return d.ClickXPath(ctx, strings.TrimPrefix(target, "xpath:"))
	case target == "":
		return action.Schemaf("dispatchByTarget", "click requires a target")
	default:
		return bySelector(ctx, target)
	}
}

// clickVariantByTarget implements double_click/right_click's
// CSS-selector-only addressing: these never accept ax:/xpath: prefixes in
// the original dispatcher, only a plain selector resolved via find_element.
func (d *Driver) clickVariantByTarget(ctx context.Context, target string, bySelector func(string) error) error {
	if target == "" {
		return action.Schemaf("clickVariantByTarget", "target required")
	}
	return bySelector(target)
}
