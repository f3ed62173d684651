// Package action defines the shared action vocabulary that flows between
// the LLM client, the orchestrator, and the browser/desktop drivers.
package action

import "encoding/json"

// Command is a single step the model asked the agent to perform.
// Target is a raw string; its prefix (ax:, xpath:, coords:, name:, or none)
// is interpreted by the active driver, not here.
type Command struct {
	Type      string          `json:"action_type"`
	Target    string          `json:"target"`
	Params    json.RawMessage `json:"params,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
}

// Mode identifies which driver owns the current step.
type Mode string

const (
	ModeBrowser Mode = "browser"
	ModeDesktop Mode = "desktop"
)

// Universal actions, valid in both modes.
const (
	Click       = "click"
	DoubleClick = "double_click"
	RightClick  = "right_click"
	Hover       = "hover"
	Type        = "type"
	Clear       = "clear"
	Scroll      = "scroll"
	PressKey    = "press_key"
	FocusWindow = "focus_window"
	Complete    = "complete"
)

// Browser-only actions.
const (
	Navigate     = "navigate"
	Select       = "select"
	Wait         = "wait"
	GoBack       = "go_back"
	GoForward    = "go_forward"
	Reload       = "reload"
	EvalJS       = "eval_js"
	GetText      = "get_text"
	GetAttribute = "get_attribute"
)

// Desktop-only actions.
const (
	LaunchBrowser = "launch_browser"
	Launch        = "launch"
	Run           = "run"
)

// Orchestrator-synthesized actions; never produced by the model directly.
const (
	SmartComplete = "smart_complete"
	AutoComplete  = "auto_complete"
)

// IsBrowserOnly reports whether an action kind is meaningless outside browser mode.
func IsBrowserOnly(kind string) bool {
	switch kind {
	case Navigate, Select, Wait, GoBack, GoForward, Reload, EvalJS, GetText, GetAttribute:
		return true
	default:
		return false
	}
}

// IsDesktopOnly reports whether an action kind is meaningless outside desktop mode.
func IsDesktopOnly(kind string) bool {
	switch kind {
	case LaunchBrowser, Launch, Run:
		return true
	default:
		return false
	}
}

// ParamsInto unmarshals the raw params payload into v. A nil/empty Params is not
// an error; v is left at its zero value.
func (c Command) ParamsInto(v interface{}) error {
	if len(c.Params) == 0 {
		return nil
	}
	return json.Unmarshal(c.Params, v)
}

func (c Command) StringParam(key string) string {
	if len(c.Params) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(c.Params, &m); err != nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
