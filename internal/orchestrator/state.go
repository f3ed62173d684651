package orchestrator

import (
	"context"

	"github.com/mrdja026/pcagent/internal/action"
	"github.com/mrdja026/pcagent/internal/compress"
)

// ObservedState is the mode-agnostic observation the orchestrator passes
// to the prompt builder and the progress broadcaster.
type ObservedState struct {
	Mode             action.Mode
	WindowTitle      string
	URL              string
	ScreenshotBase64 string
	Elements         []compress.Element
	RawNames         []string // every name in the tree, used by the goal-keyword check
}

func (o *Orchestrator) observe(ctx context.Context) (ObservedState, error) {
	m := o.detector.Detect(ctx)
	if m == action.ModeBrowser {
		return o.observeBrowser(ctx)
	}
	return o.observeDesktop(ctx)
}

func (o *Orchestrator) observeBrowser(ctx context.Context) (ObservedState, error) {
	st, err := o.browser.GetBrowserState(ctx)
	if err != nil {
		return ObservedState{}, err
	}
	var nodes []compress.Node
	var names []string
	for _, n := range st.AccessibilityTree {
		var x, y, w, h float64
		if n.Bounds != nil {
			x, y, w, h = n.Bounds.X, n.Bounds.Y, n.Bounds.Width, n.Bounds.Height
		}
		nodes = append(nodes, compress.Node{ID: n.NodeID, Role: n.Role, Name: n.Name, Focusable: n.Focusable, X: x, Y: y, W: w, H: h})
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	return ObservedState{
		Mode:             action.ModeBrowser,
		WindowTitle:      st.Title,
		URL:              st.URL,
		ScreenshotBase64: st.ScreenshotBase64,
		Elements:         compress.Compress(nodes),
		RawNames:         names,
	}, nil
}

func (o *Orchestrator) observeDesktop(ctx context.Context) (ObservedState, error) {
	st, err := o.desktop.GetDesktopState(ctx)
	if err != nil {
		return ObservedState{}, err
	}
	var nodes []compress.Node
	var names []string
	for _, n := range st.AccessibilityTree {
		var x, y, w, h float64
		if n.Bounds != nil {
			x, y, w, h = n.Bounds.X, n.Bounds.Y, n.Bounds.Width, n.Bounds.Height
		}
		nodes = append(nodes, compress.Node{ID: n.NodeID, Role: n.Role, Name: n.Name, Focusable: n.Focusable, X: x, Y: y, W: w, H: h})
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	return ObservedState{
		Mode:             action.ModeDesktop,
		WindowTitle:      st.WindowTitle,
		ScreenshotBase64: st.ScreenshotBase64,
		Elements:         compress.Compress(nodes),
		RawNames:         names,
	}, nil
}

func (o *Orchestrator) execute(ctx context.Context, m action.Mode, cmd action.Command) error {
	if m == action.ModeBrowser {
		return o.browser.ExecuteLLMAction(ctx, cmd)
	}
	return o.desktop.ExecuteLLMAction(ctx, cmd)
}
