package compress

import (
	"strings"
	"testing"
)

func TestTruncateRuneSafe(t *testing.T) {
	// Each "日" is one rune but three bytes; byte-slicing at an arbitrary
	// offset would split one in half and corrupt the tail.
	s := strings.Repeat("日", 10)
	got := truncate(s, 5)
	want := strings.Repeat("日", 5) + "..."
	if got != want {
		t.Errorf("truncate multi-byte runes = %q, want %q", got, want)
	}
	if got := truncate("short", 50); got != "short" {
		t.Errorf("truncate under cap should be unchanged, got %q", got)
	}
}

func TestCompressFiltersAndCaps(t *testing.T) {
	nodes := []Node{
		{ID: "1", Role: "button", Name: "Submit", X: 10, Y: 10, W: 20, H: 10},
		{ID: "", Name: "", Role: "div"},                          // dropped: no name, no id
		{ID: "2", Role: "div", Name: "plain text"},                // dropped: not interactive, not focusable
		{ID: "", Role: "button", Name: "Orphan", Focusable: true}, // dropped: name without id
		{ID: "4", Role: "button", Focusable: true},                // dropped: id without name
		{ID: "3", Role: "textbox", Name: "Search", Focusable: true, X: 0, Y: 0, W: 100, H: 20},
	}
	got := Compress(nodes)
	if len(got) != 2 {
		t.Fatalf("Compress returned %d elements, want 2: %+v", len(got), got)
	}
	if got[0].Ref != "1" || got[0].CenterX != 20 || got[0].CenterY != 15 {
		t.Errorf("first element = %+v", got[0])
	}
	if got[1].Ref != "3" {
		t.Errorf("second element = %+v", got[1])
	}
}

func TestCompressCapsAtMaxElements(t *testing.T) {
	var nodes []Node
	for i := 0; i < maxElements+20; i++ {
		nodes = append(nodes, Node{ID: "x", Role: "button", Name: "b", Focusable: true})
	}
	got := Compress(nodes)
	if len(got) != maxElements {
		t.Errorf("Compress returned %d elements, want cap %d", len(got), maxElements)
	}
}

func TestCompressTruncatesNameAndParent(t *testing.T) {
	longName := strings.Repeat("x", maxNameLen+10)
	longParent := strings.Repeat("y", maxParentContext+10)
	nodes := []Node{{ID: "1", Role: "button", Name: longName, ParentName: longParent, Focusable: true}}
	got := Compress(nodes)
	if len(got) != 1 {
		t.Fatalf("expected one element, got %d", len(got))
	}
	if !strings.HasSuffix(got[0].Name, "...") || len([]rune(got[0].Name)) != maxNameLen+3 {
		t.Errorf("Name not truncated correctly: %q", got[0].Name)
	}
	if !strings.HasSuffix(got[0].ParentContext, "...") {
		t.Errorf("ParentContext not truncated: %q", got[0].ParentContext)
	}
}

func TestCompressHasBoundsReflectsNonZeroSize(t *testing.T) {
	nodes := []Node{
		{ID: "1", Role: "button", Name: "Sized", Focusable: true, W: 10, H: 10},
		{ID: "2", Role: "button", Name: "Boundless", Focusable: true},
	}
	got := Compress(nodes)
	if len(got) != 2 {
		t.Fatalf("expected two elements, got %d", len(got))
	}
	if !got[0].HasBounds {
		t.Errorf("element with non-zero W/H should report HasBounds=true")
	}
	if got[1].HasBounds {
		t.Errorf("element with zero W/H should report HasBounds=false")
	}
}

func TestFormatPromptEmpty(t *testing.T) {
	if got := FormatPrompt(nil); got != "(no interactable elements found)" {
		t.Errorf("FormatPrompt(nil) = %q", got)
	}
}

func TestFormatPromptIncludesNameRoleCoordsAndID(t *testing.T) {
	els := []Element{{Ref: "42", Role: "button", Name: "OK", HasBounds: true, CenterX: 10, CenterY: 20}}
	got := FormatPrompt(els)
	want := `- "OK" (button) @ coords:10,20 id:42`
	if got != want {
		t.Errorf("FormatPrompt = %q, want %q", got, want)
	}
}

func TestFormatPromptOmitsCoordsWhenBoundless(t *testing.T) {
	els := []Element{{Ref: "1", Role: "button", Name: "OK"}}
	got := FormatPrompt(els)
	if strings.Contains(got, "coords:") {
		t.Errorf("FormatPrompt should omit coords for a boundless element, got %q", got)
	}
	if !strings.Contains(got, "id:1") {
		t.Errorf("FormatPrompt missing id: %q", got)
	}
}

func TestFormatPromptIncludesParentContext(t *testing.T) {
	els := []Element{{Ref: "1", Role: "button", Name: "OK", ParentContext: "Toolbar"}}
	got := FormatPrompt(els)
	if !strings.Contains(got, "in [Toolbar]") {
		t.Errorf("FormatPrompt missing parent context: %q", got)
	}
}
