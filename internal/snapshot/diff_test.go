package snapshot

import (
	"testing"

	"github.com/cassiaops/acagent/pkg/models"
)

func TestDiff_AddedRemovedModified(t *testing.T) {
	prev := ParseARIA(`- button "A"
- checkbox "B" [checked=false]
- button "C"`)
	cur := ParseARIA(`- button "A"
- checkbox "B" [checked=true]
- button "D"`)

	prevKeys, prevStates := Flatten(prev)
	curKeys, curStates := Flatten(cur)
	d := Diff(prevKeys, prevStates, curKeys, curStates)

	if len(d.Added) != 1 || d.Added[0].Name != "D" {
		t.Errorf("Added = %+v, want [D]", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].Name != "C" {
		t.Errorf("Removed = %+v, want [C]", d.Removed)
	}
	if len(d.Modified) != 1 || d.Modified[0].Name != "B" {
		t.Errorf("Modified = %+v, want [B]", d.Modified)
	}
	if d.Unchanged != 1 {
		t.Errorf("Unchanged = %d, want 1", d.Unchanged)
	}
}

func TestDiff_DisjointKeys(t *testing.T) {
	prev := ParseARIA(`- button "A"`)
	cur := ParseARIA(`- button "A"
- button "B"`)
	prevKeys, prevStates := Flatten(prev)
	curKeys, curStates := Flatten(cur)
	d := Diff(prevKeys, prevStates, curKeys, curStates)

	seen := map[string]bool{}
	for _, k := range append(append(d.Added, d.Removed...), d.Modified...) {
		tag := k.Role + "|" + k.Name
		if seen[tag] {
			t.Fatalf("key %s appears in more than one of added/removed/modified", tag)
		}
		seen[tag] = true
	}
}

func TestDiff_CollisionDisambiguation(t *testing.T) {
	prev := ParseARIA(`- button "OK"
- button "OK"`)
	cur := ParseARIA(`- button "OK"
- button "OK"`)
	prevKeys, prevStates := Flatten(prev)
	curKeys, curStates := Flatten(cur)
	d := Diff(prevKeys, prevStates, curKeys, curStates)

	if d.Unchanged != 2 {
		t.Errorf("Unchanged = %d, want 2 (index-disambiguated duplicates)", d.Unchanged)
	}
	if len(d.Added)+len(d.Removed)+len(d.Modified) != 0 {
		t.Errorf("expected no changes, got added=%v removed=%v modified=%v", d.Added, d.Removed, d.Modified)
	}
}

func TestChangeRatio_ExactlyAtThreshold(t *testing.T) {
	// 60 changed out of 100 total (60 modified + 40 unchanged) == 0.6 exactly.
	d := DiffResult{Unchanged: 40}
	for i := 0; i < 60; i++ {
		d.Modified = append(d.Modified, models.ElementKey{Role: "button", Name: "x", Index: i})
	}
	if got := d.ChangeRatio(); got != 0.6 {
		t.Errorf("ChangeRatio() = %v, want 0.6", got)
	}
}
