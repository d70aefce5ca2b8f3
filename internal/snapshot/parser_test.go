package snapshot

import "testing"

func TestParseARIA_TokenForm(t *testing.T) {
	input := `- button "OK"
- textbox "User" [value="admin"]
- button "OK"`
	roots := ParseARIA(input)
	if len(roots) != 3 {
		t.Fatalf("got %d roots, want 3", len(roots))
	}
	if roots[0].Role != "button" || roots[0].Name != "OK" {
		t.Errorf("roots[0] = %+v", roots[0])
	}
	if roots[1].Value != "admin" {
		t.Errorf("roots[1].Value = %q, want admin", roots[1].Value)
	}
}

func TestParseARIA_NestedContainer(t *testing.T) {
	input := `- list "Menu":
  - listitem "One"
  - listitem "Two"`
	roots := ParseARIA(input)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	if len(roots[0].Children) != 2 {
		t.Fatalf("got %d children, want 2", len(roots[0].Children))
	}
	if roots[0].Children[1].Name != "Two" {
		t.Errorf("children[1].Name = %q, want Two", roots[0].Children[1].Name)
	}
}

func TestParseARIA_DecorativeFlattened(t *testing.T) {
	input := `- generic:
  - button "Submit"`
	roots := ParseARIA(input)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1 (decorative container flattened)", len(roots))
	}
	if roots[0].Role != "button" {
		t.Errorf("roots[0].Role = %q, want button", roots[0].Role)
	}
}

func TestParseARIA_DecorativeDropped(t *testing.T) {
	input := `- button "OK"
- generic`
	roots := ParseARIA(input)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1 (bare decorative dropped)", len(roots))
	}
}

func TestParseARIA_BooleanAttrs(t *testing.T) {
	input := `- checkbox "Agree" [checked=true]
- checkbox "Other" [checked=false]`
	roots := ParseARIA(input)
	if roots[0].Checked == nil || !*roots[0].Checked {
		t.Errorf("roots[0].Checked = %v, want true", roots[0].Checked)
	}
	if roots[1].Checked == nil || *roots[1].Checked {
		t.Errorf("roots[1].Checked = %v, want false", roots[1].Checked)
	}
}

func TestParseARIA_Empty(t *testing.T) {
	roots := ParseARIA("")
	if len(roots) != 0 {
		t.Fatalf("got %d roots, want 0", len(roots))
	}
}
