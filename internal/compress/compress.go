// Package compress turns a raw accessibility tree (browser or desktop)
// into a small, LLM-prompt-friendly list of interactable elements.
package compress

import (
	"fmt"
	"strings"
)

// Element is one compressed, addressable node surfaced to the model.
type Element struct {
	Ref           string
	Role          string
	Name          string
	ParentContext string
	HasBounds     bool
	CenterX       float64
	CenterY       float64
}

const (
	maxElements      = 100
	maxNameLen       = 50
	maxParentContext = 30
)

// Node is the minimal flat shape compress needs from either driver's tree.
// ParentName, when set, is printed by FormatPrompt as parent context; the
// observers in orchestrator/state.go do not set it, so prompts built from
// live observations carry no parent context.
type Node struct {
	ID         string
	Role       string
	Name       string
	Focusable  bool
	X, Y, W, H float64
	ParentName string
}

// truncate is a rune-safe truncation: byte-slicing a UTF-8 string at an
// arbitrary offset can split a multi-byte rune, corrupting the tail. Every
// length cap in this package goes through runes, not bytes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Compress walks nodes in the order given (the driver is responsible for
// a depth-first pre-order walk of its native tree), keeps only interactable
// nodes that have both a non-empty name and a non-empty node id, and caps
// the result at maxElements.
func Compress(nodes []Node) []Element {
	var out []Element
	for _, n := range nodes {
		if n.Name == "" || n.ID == "" {
			continue
		}
		if !n.Focusable && !isInteractiveRole(n.Role) {
			continue
		}
		out = append(out, Element{
			Ref:           n.ID,
			Role:          n.Role,
			Name:          truncate(n.Name, maxNameLen),
			ParentContext: truncate(n.ParentName, maxParentContext),
			HasBounds:     n.W != 0 || n.H != 0,
			CenterX:       n.X + n.W/2,
			CenterY:       n.Y + n.H/2,
		})
		if len(out) >= maxElements {
			break
		}
	}
	return out
}

var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "checkbox": true,
	"radio": true, "combobox": true, "menuitem": true, "tab": true,
	"listbox": true, "option": true, "searchbox": true, "slider": true,
	"switch": true, "heading": true, "edit": true, "hyperlink": true,
	"radiobutton": true, "tabitem": true, "listitem": true,
}

func isInteractiveRole(role string) bool {
	return interactiveRoles[strings.ToLower(role)]
}

// FormatPrompt renders the element list the way it is embedded in the
// decide-prompt: one line per element, name first so the model can quote
// it back verbatim as a target, coords omitted for boundless nodes.
func FormatPrompt(elements []Element) string {
	if len(elements) == 0 {
		return "(no interactable elements found)"
	}
	var b strings.Builder
	for _, e := range elements {
		fmt.Fprintf(&b, "- %q (%s)", e.Name, e.Role)
		if e.ParentContext != "" {
			fmt.Fprintf(&b, " in [%s]", e.ParentContext)
		}
		if e.HasBounds {
			fmt.Fprintf(&b, " @ coords:%.0f,%.0f", e.CenterX, e.CenterY)
		}
		fmt.Fprintf(&b, " id:%s\n", e.Ref)
	}
	return strings.TrimRight(b.String(), "\n")
}
