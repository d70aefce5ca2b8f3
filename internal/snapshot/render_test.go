package snapshot

import (
	"strings"
	"testing"
)

func TestRender_RefStability(t *testing.T) {
	input := `- button "OK"
- textbox "User"
- button "OK"`
	roots := ParseARIA(input)
	text, refs := Render(roots)

	if !strings.Contains(text, `[1] button "OK"`) {
		t.Errorf("missing ref 1 line, got:\n%s", text)
	}
	if !strings.Contains(text, `[2] textbox "User"`) {
		t.Errorf("missing ref 2 line, got:\n%s", text)
	}
	if !strings.Contains(text, `[3] button "OK"`) {
		t.Errorf("missing ref 3 line, got:\n%s", text)
	}

	info, ok := refs[3]
	if !ok {
		t.Fatal("ref 3 missing from table")
	}
	if info.Role != "button" || info.Name != "OK" || info.Nth != 1 {
		t.Errorf("ref 3 = %+v, want nth=1", info)
	}
}

func TestRender_Empty(t *testing.T) {
	text, refs := Render(nil)
	if text != emptyPageText {
		t.Errorf("text = %q, want %q", text, emptyPageText)
	}
	if len(refs) != 0 {
		t.Errorf("got %d refs, want 0", len(refs))
	}
}

func TestRender_NonInteractiveNoRef(t *testing.T) {
	roots := ParseARIA(`- heading "Title"`)
	text, refs := Render(roots)
	if strings.Contains(text, "[1]") {
		t.Errorf("heading should not receive a ref, got:\n%s", text)
	}
	if len(refs) != 0 {
		t.Errorf("got %d refs, want 0", len(refs))
	}
}
