package action

import (
	"errors"
	"testing"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindTransport: "transport",
		KindRemote:    "remote",
		KindTarget:    "target",
		KindSchema:    "schema",
		KindMode:      "mode",
		KindBudget:    "budget",
		Kind(99):      "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial refused")
	err := NewError(KindTransport, "Dial", cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if got := err.Error(); got == "" {
		t.Errorf("Error() returned empty string")
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := &Error{Kind: KindBudget, Op: "ApproveAction"}
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() on a nil-cause Error should return nil")
	}
	want := "ApproveAction: budget"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConstructors(t *testing.T) {
	if got := Transportf("Dial", "refused: %d", 42).Kind; got != KindTransport {
		t.Errorf("Transportf kind = %v, want transport", got)
	}
	if got := Targetf("Click", "no match").Kind; got != KindTarget {
		t.Errorf("Targetf kind = %v, want target", got)
	}
	if got := Modef("Navigate", "wrong mode").Kind; got != KindMode {
		t.Errorf("Modef kind = %v, want mode", got)
	}
	if got := Schemaf("Parse", "bad json").Kind; got != KindSchema {
		t.Errorf("Schemaf kind = %v, want schema", got)
	}
}
