// Package desktop implements the native UI Automation driver. The real
// implementation only builds on windows (desktop_windows.go); every other
// GOOS gets the stub in desktop_stub.go, mirroring the original
// automation layer's #[cfg(target_os = "windows")] split with a
// same-shaped error-returning stand-in for other platforms.
package desktop

import (
	"context"
	"time"

	"github.com/mrdja026/pcagent/internal/action"
)

// AXNode is the desktop accessibility tree node. The Windows driver returns
// the tree as a flat, depth-first list, like the browser's, so Children is
// left empty; NodeID is the element's UI Automation runtime id joined with
// dots.
type AXNode struct {
	NodeID    string   `json:"node_id"`
	Role      string   `json:"role"`
	Name      string   `json:"name"`
	Value     string   `json:"value,omitempty"`
	Text      string   `json:"text,omitempty"`
	Bounds    *Bounds  `json:"bounds,omitempty"`
	Focusable bool     `json:"focusable"`
	IsLeaf    bool     `json:"is_leaf"`
	Children  []AXNode `json:"children,omitempty"`
}

type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// State is the composed desktop observation. ScreenshotBase64 is left
// empty by design: the original disables desktop screenshots for
// performance, only browser mode captures one.
type State struct {
	WindowTitle       string   `json:"window_title"`
	ScreenshotBase64  string   `json:"screenshot_base64"`
	AccessibilityTree []AXNode `json:"accessibility_tree"`
}

// ErrUnsupportedPlatform is returned by every Driver method on non-Windows
// builds.
var ErrUnsupportedPlatform = action.NewError(action.KindMode, "desktop", errUnsupported{})

type errUnsupported struct{}

func (errUnsupported) Error() string { return "native UI automation is only available on Windows" }

// Driver is the native UI automation surface the orchestrator calls
// through. Its concrete implementation is platform-gated.
type Driver interface {
	GetDesktopState(ctx context.Context) (State, error)
	ExecuteLLMAction(ctx context.Context, cmd action.Command) error
	Close()
}

// settle is the uniform 200ms post-action pause windows_ui.rs applies
// after every dispatched action, distinct from the browser driver's 500ms.
const settle = 200 * time.Millisecond
