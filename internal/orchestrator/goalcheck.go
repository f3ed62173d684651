package orchestrator

import "strings"

// stopWords mirrors check_goal_in_a11y's filter list: common words plus
// the handful of imperative verbs (open/search/find/...) that show up in
// almost every goal and carry no discriminating signal.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true, "for": true,
	"to": true, "and": true, "or": true, "of": true, "with": true,
	"open": true, "search": true, "find": true, "go": true, "click": true,
	"type": true, "press": true, "enter": true,
	"chrome": true, "browser": true, "google": true,
}

// goalAchieved extracts keywords from goal and checks whether any appear
// in the window title, URL, or any accessibility-tree element name.
func goalAchieved(goal string, st ObservedState) bool {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(goal)) {
		if len(w) > 2 && !stopWords[w] {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return false
	}

	searchable := strings.ToLower(st.WindowTitle)
	if st.URL != "" {
		searchable += " " + strings.ToLower(st.URL)
	}
	for _, name := range st.RawNames {
		searchable += " " + strings.ToLower(name)
	}

	for _, kw := range keywords {
		if strings.Contains(searchable, kw) {
			return true
		}
	}
	return false
}
