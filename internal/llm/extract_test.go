package llm

import "testing"

func TestExtractActionFencedJSON(t *testing.T) {
	text := "Here's my plan:\n```json\n{\"action_type\":\"click\",\"target\":\"ax:1\"}\n```\nDone."
	cmd, err := ExtractAction(text)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if cmd.Type != "click" || cmd.Target != "ax:1" {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestExtractActionBareFence(t *testing.T) {
	text := "```\n{\"action_type\":\"type\",\"target\":\"ax:2\"}\n```"
	cmd, err := ExtractAction(text)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if cmd.Type != "type" {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestExtractActionBraceBalanced(t *testing.T) {
	// A JSON object embedded in free-form prose, with nested braces and a
	// string literal that itself contains a brace character, to make sure
	// the string-literal-aware scan does not stop early.
	text := `I'll click the button. {"action_type":"click","target":"ax:1","reasoning":"the {button} looks right","params":{"x":1}} That should work.`
	cmd, err := ExtractAction(text)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if cmd.Type != "click" || cmd.Reasoning != "the {button} looks right" {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestExtractActionFullTrim(t *testing.T) {
	text := `  {"action_type":"wait","target":""}  `
	cmd, err := ExtractAction(text)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if cmd.Type != "wait" {
		t.Errorf("cmd = %+v", cmd)
	}
}

// TestExtractActionTortureCase exercises a reply that defeats both fence
// tiers and the full-trim tier (no fences, prose around the object, a
// later non-JSON brace group) but whose first brace opens a valid object
// with nested braces and escaped quotes, which the brace-balanced tier
// recovers.
func TestExtractActionTortureCase(t *testing.T) {
	text := `The model rambles about "quotes" before finally emitting ` +
		`{"action_type":"press_key","target":"","params":{"key":"Enter"},"reasoning":"submit the \"form\""}` +
		` and then trails off about {not json}.`
	cmd, err := ExtractAction(text)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if cmd.Type != "press_key" {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestExtractActionNoValidJSON(t *testing.T) {
	_, err := ExtractAction("I don't know what to do next.")
	if err == nil {
		t.Fatal("expected an error for a reply with no JSON action")
	}
}

func TestExtractActionRejectsEmptyType(t *testing.T) {
	_, err := ExtractAction(`{"target":"ax:1"}`)
	if err == nil {
		t.Fatal("expected an error when action_type is missing")
	}
}
