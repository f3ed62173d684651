package orchestrator

import "testing"

func TestGoalAchievedByTitle(t *testing.T) {
	st := ObservedState{WindowTitle: "Gmail - Inbox"}
	if !goalAchieved("open gmail inbox", st) {
		t.Error("expected goal achieved via window title match")
	}
}

func TestGoalAchievedByURL(t *testing.T) {
	st := ObservedState{URL: "https://mail.example.com/inbox"}
	if !goalAchieved("go to example mail", st) {
		t.Error("expected goal achieved via URL match")
	}
}

func TestGoalAchievedByElementName(t *testing.T) {
	st := ObservedState{RawNames: []string{"Settings", "Logout", "Dashboard"}}
	if !goalAchieved("open the dashboard", st) {
		t.Error("expected goal achieved via element name match")
	}
}

func TestGoalNotAchieved(t *testing.T) {
	st := ObservedState{WindowTitle: "Notepad", RawNames: []string{"File", "Edit"}}
	if goalAchieved("open calculator", st) {
		t.Error("expected goal not achieved")
	}
}

func TestGoalAchievedAllStopwords(t *testing.T) {
	// Every token is a stopword (or too short), so no keywords remain and
	// the check must conservatively report false rather than matching
	// everything.
	st := ObservedState{WindowTitle: "anything at all"}
	if goalAchieved("open the a to in", st) {
		t.Error("a goal with no discriminating keywords must never be considered achieved")
	}
}

func TestGoalAchievedCaseInsensitive(t *testing.T) {
	st := ObservedState{WindowTitle: "CALCULATOR"}
	if !goalAchieved("Open Calculator", st) {
		t.Error("expected case-insensitive match")
	}
}
