package llm

import (
	"encoding/json"
	"strings"

	"github.com/mrdja026/pcagent/internal/action"
)

// ExtractAction pulls an action.Command out of a model reply that may be
// wrapped in a ```json fence, a bare ``` fence, embedded in surrounding
// prose, or (rarely) be nothing but the JSON object itself. Each tier is
// tried in order and the first one that parses wins.
func ExtractAction(text string) (action.Command, error) {
	for _, candidate := range []func(string) (string, bool){
		fencedJSON,
		bareFence,
		braceBalanced,
		fullTrim,
	} {
		if body, ok := candidate(text); ok {
			var cmd action.Command
			if err := json.Unmarshal([]byte(body), &cmd); err == nil && cmd.Type != "" {
				return cmd, nil
			}
		}
	}
	return action.Command{}, action.Schemaf("ExtractAction", "no valid action JSON found in model reply")
}

func fencedJSON(text string) (string, bool) {
	const open = "```json"
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func bareFence(text string) (string, bool) {
	const fence = "```"
	start := strings.Index(text, fence)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// braceBalanced scans for the first `{` and returns the substring up to
// its matching `}`, tracking nesting depth and skipping braces inside
// string literals so a JSON object embedded in free-form prose can still
// be lifted out cleanly.
func braceBalanced(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func fullTrim(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
		return t, true
	}
	return "", false
}
