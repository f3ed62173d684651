package action

import "testing"

func TestIsBrowserOnly(t *testing.T) {
	cases := []struct {
		kind string
		want bool
	}{
		{Navigate, true},
		{GetAttribute, true},
		{Click, false},
		{LaunchBrowser, false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsBrowserOnly(c.kind); got != c.want {
			t.Errorf("IsBrowserOnly(%q) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestIsDesktopOnly(t *testing.T) {
	cases := []struct {
		kind string
		want bool
	}{
		{LaunchBrowser, true},
		{Run, true},
		{Navigate, false},
		{Click, false},
	}
	for _, c := range cases {
		if got := IsDesktopOnly(c.kind); got != c.want {
			t.Errorf("IsDesktopOnly(%q) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestCommandParamsInto(t *testing.T) {
	cmd := Command{Params: []byte(`{"text":"hello","count":3}`)}
	var v struct {
		Text  string `json:"text"`
		Count int    `json:"count"`
	}
	if err := cmd.ParamsInto(&v); err != nil {
		t.Fatalf("ParamsInto: %v", err)
	}
	if v.Text != "hello" || v.Count != 3 {
		t.Errorf("got %+v", v)
	}
}

func TestCommandParamsIntoEmpty(t *testing.T) {
	var cmd Command
	var v struct{ Text string }
	if err := cmd.ParamsInto(&v); err != nil {
		t.Fatalf("ParamsInto on empty params should be a no-op, got %v", err)
	}
}

func TestCommandStringParam(t *testing.T) {
	cmd := Command{Params: []byte(`{"text":"abc"}`)}
	if got := cmd.StringParam("text"); got != "abc" {
		t.Errorf("StringParam(text) = %q, want abc", got)
	}
	if got := cmd.StringParam("missing"); got != "" {
		t.Errorf("StringParam(missing) = %q, want empty", got)
	}

	var empty Command
	if got := empty.StringParam("text"); got != "" {
		t.Errorf("StringParam on empty params = %q, want empty", got)
	}
}
