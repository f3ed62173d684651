// Package history keeps the append-only step log for a session and
// renders it into the tiered summary the LLM client embeds in its prompts.
package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mrdja026/pcagent/internal/action"
)

// Entry is one recorded step, mirroring the original's HistoryEntry.
type Entry struct {
	Timestamp     time.Time
	StepNumber    int
	UserInput     string
	Reasoning     string
	Action        action.Command
	Success       bool
	Error         string
	Mode          action.Mode
	WindowContext string
	InputTokens   int
	OutputTokens  int
}

// History is append-only; every reader gets a copied snapshot so callers
// can range over it without holding the lock.
type History struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *History { return &History{} }

func (h *History) Append(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Snapshot returns a copy of the entries so far; mutating it never affects
// the live history.
func (h *History) Snapshot() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) SetLastTokens(input, output int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return
	}
	h.entries[len(h.entries)-1].InputTokens = input
	h.entries[len(h.entries)-1].OutputTokens = output
}

const (
	maxLearnings      = 5
	maxRecentFailures = 3
	maxRecentActions  = 5
)

// FormatForPrompt renders the four-tier summary the decide prompt embeds:
// deduped learnings, recent failures, recent actions (annotated with mode
// transitions), then a one-line rollup of anything older.
func FormatForPrompt(entries []Entry) string {
	if len(entries) == 0 {
		return "(no history yet)"
	}

	var b strings.Builder

	learnings := dedupLearnings(entries)
	if len(learnings) > 0 {
		b.WriteString("Learnings:\n")
		for _, l := range learnings {
			fmt.Fprintf(&b, "- %s\n", l)
		}
	}

	failures := recentFailures(entries, maxRecentFailures)
	if len(failures) > 0 {
		b.WriteString("Recent failures:\n")
		for _, e := range failures {
			fmt.Fprintf(&b, "Step %d: ✗ %s -> %s | %s\n", e.StepNumber, e.Action.Type, e.Action.Target, e.Error)
		}
	}

	recent := lastN(entries, maxRecentActions)
	if len(recent) > 0 {
		b.WriteString("Recent actions:\n")
		var prevMode action.Mode
		for i, e := range recent {
			mark := "✗"
			if e.Success {
				mark = "✓"
			}
			line := fmt.Sprintf("Step %d: %s %s -> %s [%s]", e.StepNumber, mark, e.Action.Type, truncate(e.Action.Target, maxTargetLen), e.Mode)
			if i > 0 && prevMode != "" && prevMode != e.Mode {
				line += fmt.Sprintf(" *** MODE: %s -> %s ***", prevMode, e.Mode)
			}
			prevMode = e.Mode
			line += " | " + truncate(e.Reasoning, maxReasoningLen)
			b.WriteString(line + "\n")
		}
	}

	if older := len(entries) - len(recent); older > 0 {
		succ, fail := 0, 0
		for _, e := range entries[:older] {
			if e.Success {
				succ++
			} else {
				fail++
			}
		}
		fmt.Fprintf(&b, "[OLDER: %d actions (%d succeeded, %d failed)]\n", older, succ, fail)
	}

	return strings.TrimRight(b.String(), "\n")
}

const (
	maxTargetLen    = 40
	maxReasoningLen = 60
)

// truncate is a rune-safe truncation like compress.truncate, but it marks
// the cut with "…" where compress.truncate appends "...": byte slicing an
// arbitrary-width UTF-8 string can split a multi-byte rune.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "…"
}

func lastN(entries []Entry, n int) []Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func recentFailures(entries []Entry, n int) []Entry {
	var fails []Entry
	for i := len(entries) - 1; i >= 0 && len(fails) < n; i-- {
		if !entries[i].Success {
			fails = append([]Entry{entries[i]}, fails...)
		}
	}
	return fails
}

// dedupLearnings extracts one-line lessons from failed steps by matching the
// error text and target form against the three documented patterns, then
// deduplicates the resulting lines so the same lesson isn't repeated.
func dedupLearnings(entries []Entry) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if e.Success || e.Error == "" {
			continue
		}
		l := learningFor(e)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
		if len(out) >= maxLearnings {
			break
		}
	}
	return out
}

// learningFor matches a failed entry against the three documented patterns:
// a "name:" target that wasn't found, a non-"coords:" target that may be a
// stale node id, or an action that timed out.
func learningFor(e Entry) string {
	errLower := strings.ToLower(e.Error)
	target := e.Action.Target
	switch {
	case strings.Contains(errLower, "not found") || strings.Contains(errLower, "no element"):
		if strings.HasPrefix(target, "name:") {
			return fmt.Sprintf("%s not found, try coords or different name", target)
		}
		if !strings.HasPrefix(target, "coords:") {
			return fmt.Sprintf("node_id %s stale, use coords from bounds instead", target)
		}
		return ""
	case strings.Contains(errLower, "timeout"):
		return fmt.Sprintf("%s timed out, element may need scroll or wait", e.Action.Type)
	default:
		return ""
	}
}

// Sonnet's per-token pricing, used only for the cost-estimate rollup; the
// original surfaces this as a developer convenience in its analytics view.
const (
	inputPricePerMillion  = 3.0
	outputPricePerMillion = 15.0
)

const maxRecentSuccessChain = 10

// Stats is the analytics rollup over a finished or in-progress session,
// grounded on logging.rs's analyze_history: counts, streaks, per-action
// frequencies, and the Sonnet cost estimate.
type Stats struct {
	TotalSteps        int
	Successes         int
	Failures          int
	TotalInputTokens  int
	TotalOutputTokens int
	EstimatedCostUSD  float64

	// CurrentStreak is signed: +N for N consecutive successes at the tail,
	// -N for N consecutive failures at the tail, 0 if entries is empty.
	CurrentStreak      int
	LongestSuccessRun  int
	MostUsedAction     string
	MostFailedAction   string
	ActionFrequency    map[string]int
	RecentSuccessChain []Entry
	RecentFailures     []Entry
}

// Analyze computes Stats over a snapshot of entries.
func Analyze(entries []Entry) Stats {
	s := Stats{ActionFrequency: map[string]int{}}
	failCount := map[string]int{}

	runLen := 0
	for _, e := range entries {
		s.TotalSteps++
		if e.Success {
			s.Successes++
			runLen++
			if runLen > s.LongestSuccessRun {
				s.LongestSuccessRun = runLen
			}
		} else {
			s.Failures++
			runLen = 0
			failCount[e.Action.Type]++
		}
		s.TotalInputTokens += e.InputTokens
		s.TotalOutputTokens += e.OutputTokens
		s.ActionFrequency[e.Action.Type]++
	}
	s.EstimatedCostUSD = float64(s.TotalInputTokens)/1_000_000*inputPricePerMillion +
		float64(s.TotalOutputTokens)/1_000_000*outputPricePerMillion

	s.CurrentStreak = currentStreak(entries)
	s.MostUsedAction = mostFrequent(s.ActionFrequency)
	s.MostFailedAction = mostFrequent(failCount)
	s.RecentFailures = recentFailures(entries, 5)
	s.RecentSuccessChain = recentSuccessChain(entries, maxRecentSuccessChain)
	return s
}

// currentStreak walks backward from the tail, counting consecutive entries
// of the same outcome as the last one: positive for a success run, negative
// for a failure run.
func currentStreak(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	last := entries[len(entries)-1].Success
	n := 0
	for i := len(entries) - 1; i >= 0 && entries[i].Success == last; i-- {
		n++
	}
	if last {
		return n
	}
	return -n
}

// recentSuccessChain returns the trailing run of consecutive successful
// entries, oldest-first, capped at n.
func recentSuccessChain(entries []Entry, n int) []Entry {
	end := len(entries)
	start := end
	for start > 0 && entries[start-1].Success {
		start--
	}
	chain := entries[start:end]
	if len(chain) > n {
		chain = chain[len(chain)-n:]
	}
	return chain
}

// mostFrequent returns the key with the highest count; empty map yields "".
// Ties are broken arbitrarily by map iteration order.
func mostFrequent(freq map[string]int) string {
	best, bestN := "", 0
	for k, n := range freq {
		if n > bestN {
			best, bestN = k, n
		}
	}
	return best
}
