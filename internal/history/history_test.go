package history

import (
	"strings"
	"testing"

	"github.com/mrdja026/pcagent/internal/action"
)

func TestFormatForPromptEmpty(t *testing.T) {
	if got := FormatForPrompt(nil); got != "(no history yet)" {
		t.Errorf("FormatForPrompt(nil) = %q", got)
	}
}

func TestFormatForPromptTiers(t *testing.T) {
	entries := []Entry{
		{StepNumber: 1, Action: action.Command{Type: "click", Target: "name:Go"}, Success: false, Error: "Element not found by name: Go", Mode: action.ModeBrowser},
		{StepNumber: 2, Action: action.Command{Type: "click", Target: "name:Go"}, Success: false, Error: "Element not found by name: Go", Mode: action.ModeBrowser},
		{StepNumber: 3, Action: action.Command{Type: "type", Target: "ax:2"}, Success: true, Mode: action.ModeBrowser, Reasoning: "typed the search query"},
		{StepNumber: 4, Action: action.Command{Type: "click", Target: "coords:1,1"}, Success: true, Mode: action.ModeDesktop, Reasoning: "clicked the taskbar icon"},
	}
	got := FormatForPrompt(entries)

	if !strings.Contains(got, "Learnings:") {
		t.Errorf("expected a Learnings section, got %q", got)
	}
	if !strings.Contains(got, "name:Go not found, try coords or different name") {
		t.Errorf("expected the name-not-found learning, got %q", got)
	}
	if !strings.Contains(got, "Recent failures:") {
		t.Errorf("expected a Recent failures section, got %q", got)
	}
	if !strings.Contains(got, "Recent actions:") {
		t.Errorf("expected a Recent actions section, got %q", got)
	}
	if !strings.Contains(got, "*** MODE: browser -> desktop ***") {
		t.Errorf("expected mode transition annotation, got %q", got)
	}
	if !strings.Contains(got, "clicked the taskbar icon") {
		t.Errorf("expected reasoning in the recent-actions line, got %q", got)
	}
}

func TestFormatForPromptTruncatesTargetAndReasoning(t *testing.T) {
	entries := []Entry{{
		StepNumber: 1,
		Action:     action.Command{Type: "click", Target: strings.Repeat("x", maxTargetLen+10)},
		Reasoning:  strings.Repeat("y", maxReasoningLen+10),
		Success:    true,
		Mode:       action.ModeBrowser,
	}}
	got := FormatForPrompt(entries)
	if strings.Count(got, "x") != maxTargetLen {
		t.Errorf("target not truncated to %d chars: %q", maxTargetLen, got)
	}
	if strings.Count(got, "y") != maxReasoningLen {
		t.Errorf("reasoning not truncated to %d chars: %q", maxReasoningLen, got)
	}
}

func TestLearningForNameNotFound(t *testing.T) {
	e := Entry{Action: action.Command{Type: "click", Target: "name:Go"}, Success: false, Error: "Element not found by name: Go"}
	got := learningFor(e)
	want := "name:Go not found, try coords or different name"
	if got != want {
		t.Errorf("learningFor = %q, want %q", got, want)
	}
}

func TestLearningForStaleNodeID(t *testing.T) {
	e := Entry{Action: action.Command{Type: "click", Target: "42"}, Success: false, Error: "No element matching node id"}
	got := learningFor(e)
	want := "node_id 42 stale, use coords from bounds instead"
	if got != want {
		t.Errorf("learningFor = %q, want %q", got, want)
	}
}

func TestLearningForCoordsTargetNotFoundYieldsNoLearning(t *testing.T) {
	e := Entry{Action: action.Command{Type: "click", Target: "coords:10,20"}, Success: false, Error: "Element not found"}
	if got := learningFor(e); got != "" {
		t.Errorf("a coords: target should not produce a stale-node-id learning, got %q", got)
	}
}

func TestLearningForTimeout(t *testing.T) {
	e := Entry{Action: action.Command{Type: "wait"}, Success: false, Error: "operation timeout after 5000ms"}
	got := learningFor(e)
	want := "wait timed out, element may need scroll or wait"
	if got != want {
		t.Errorf("learningFor = %q, want %q", got, want)
	}
}

func TestLearningForUnmatchedErrorYieldsNoLearning(t *testing.T) {
	e := Entry{Action: action.Command{Type: "click"}, Success: false, Error: "permission denied"}
	if got := learningFor(e); got != "" {
		t.Errorf("an unmatched error pattern should produce no learning, got %q", got)
	}
}

func TestDedupLearningsDedupsAndCaps(t *testing.T) {
	var entries []Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, Entry{
			Action:  action.Command{Type: "click", Target: "name:Go"},
			Success: false,
			Error:   "Element not found by name: Go", // identical learning every time -> collapses to one
		})
	}
	for i := 0; i < 10; i++ {
		entries = append(entries, Entry{
			Action:  action.Command{Type: "type", Target: "99"},
			Success: false,
			Error:   "No element found",
		})
	}
	learnings := dedupLearnings(entries)
	if len(learnings) != 2 {
		t.Fatalf("dedupLearnings returned %d entries, want 2 (deduped): %v", len(learnings), learnings)
	}
}

func TestDedupLearningsCapAtMax(t *testing.T) {
	var entries []Entry
	for i := 0; i < maxLearnings+5; i++ {
		entries = append(entries, Entry{
			Action:  action.Command{Type: "click", Target: "name:X"},
			Success: false,
			Error:   "not found: " + strings.Repeat("x", i+1), // distinct target per iteration below
		})
		entries[len(entries)-1].Action.Target = "name:" + strings.Repeat("x", i+1)
	}
	learnings := dedupLearnings(entries)
	if len(learnings) != maxLearnings {
		t.Errorf("dedupLearnings returned %d, want cap %d", len(learnings), maxLearnings)
	}
}

func TestRecentFailuresOrderAndCap(t *testing.T) {
	var entries []Entry
	for i := 1; i <= 6; i++ {
		entries = append(entries, Entry{StepNumber: i, Success: i%2 == 0, Error: "err"})
	}
	fails := recentFailures(entries, maxRecentFailures)
	if len(fails) != maxRecentFailures {
		t.Fatalf("got %d failures, want %d", len(fails), maxRecentFailures)
	}
	// Failures are steps 1, 3, 5; the most recent 3 in original order.
	if fails[0].StepNumber != 1 || fails[1].StepNumber != 3 || fails[2].StepNumber != 5 {
		t.Errorf("unexpected order: %+v", fails)
	}
}

func TestLastN(t *testing.T) {
	entries := []Entry{{StepNumber: 1}, {StepNumber: 2}, {StepNumber: 3}}
	if got := lastN(entries, 10); len(got) != 3 {
		t.Errorf("lastN with n > len should return all entries, got %d", len(got))
	}
	got := lastN(entries, 2)
	if len(got) != 2 || got[0].StepNumber != 2 || got[1].StepNumber != 3 {
		t.Errorf("lastN(2) = %+v", got)
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	s := strings.Repeat("日", 10)
	got := truncate(s, 5)
	want := strings.Repeat("日", 5) + "…"
	if got != want {
		t.Errorf("truncate multi-byte runes = %q, want %q", got, want)
	}
}

func TestAnalyzeTotalsAndCost(t *testing.T) {
	entries := []Entry{
		{Success: true, InputTokens: 1000, OutputTokens: 500, Action: action.Command{Type: "click"}},
		{Success: false, InputTokens: 2000, OutputTokens: 1000, Action: action.Command{Type: "type"}},
	}
	stats := Analyze(entries)
	if stats.TotalSteps != 2 || stats.Successes != 1 || stats.Failures != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalInputTokens != 3000 || stats.TotalOutputTokens != 1500 {
		t.Errorf("token totals = %+v", stats)
	}
	wantCost := float64(3000)/1_000_000*inputPricePerMillion + float64(1500)/1_000_000*outputPricePerMillion
	if stats.EstimatedCostUSD != wantCost {
		t.Errorf("EstimatedCostUSD = %v, want %v", stats.EstimatedCostUSD, wantCost)
	}
}

func TestAnalyzeStreaksAndFrequency(t *testing.T) {
	entries := []Entry{
		{Success: true, Action: action.Command{Type: "click"}},
		{Success: true, Action: action.Command{Type: "click"}},
		{Success: false, Action: action.Command{Type: "type"}},
		{Success: true, Action: action.Command{Type: "click"}},
		{Success: true, Action: action.Command{Type: "click"}},
		{Success: true, Action: action.Command{Type: "click"}},
	}
	stats := Analyze(entries)
	if stats.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3 (trailing 3 successes)", stats.CurrentStreak)
	}
	if stats.LongestSuccessRun != 3 {
		t.Errorf("LongestSuccessRun = %d, want 3", stats.LongestSuccessRun)
	}
	if stats.MostUsedAction != "click" {
		t.Errorf("MostUsedAction = %q, want click", stats.MostUsedAction)
	}
	if stats.MostFailedAction != "type" {
		t.Errorf("MostFailedAction = %q, want type", stats.MostFailedAction)
	}
	if len(stats.RecentSuccessChain) != 3 {
		t.Errorf("RecentSuccessChain length = %d, want 3", len(stats.RecentSuccessChain))
	}
}

func TestAnalyzeNegativeStreakOnTrailingFailures(t *testing.T) {
	entries := []Entry{
		{Success: true},
		{Success: false},
		{Success: false},
	}
	stats := Analyze(entries)
	if stats.CurrentStreak != -2 {
		t.Errorf("CurrentStreak = %d, want -2 (trailing 2 failures)", stats.CurrentStreak)
	}
	if len(stats.RecentSuccessChain) != 0 {
		t.Errorf("RecentSuccessChain should be empty when the tail is failing, got %v", stats.RecentSuccessChain)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	stats := Analyze(nil)
	if stats.CurrentStreak != 0 || stats.TotalSteps != 0 {
		t.Errorf("Analyze(nil) = %+v", stats)
	}
}

func TestHistoryAppendSnapshotIsolated(t *testing.T) {
	h := New()
	h.Append(Entry{StepNumber: 1})
	snap := h.Snapshot()
	snap[0].StepNumber = 99
	if h.Snapshot()[0].StepNumber != 1 {
		t.Errorf("mutating a snapshot must not affect the live history")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}

func TestHistorySetLastTokens(t *testing.T) {
	h := New()
	h.SetLastTokens(10, 20) // no-op on empty history, must not panic
	h.Append(Entry{StepNumber: 1})
	h.Append(Entry{StepNumber: 2})
	h.SetLastTokens(100, 200)
	snap := h.Snapshot()
	if snap[1].InputTokens != 100 || snap[1].OutputTokens != 200 {
		t.Errorf("SetLastTokens should only touch the last entry, got %+v", snap[1])
	}
	if snap[0].InputTokens != 0 {
		t.Errorf("SetLastTokens must not touch earlier entries, got %+v", snap[0])
	}
}

func TestHistoryClear(t *testing.T) {
	h := New()
	h.Append(Entry{StepNumber: 1})
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", h.Len())
	}
}
