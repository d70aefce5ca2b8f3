package snapshot

import "github.com/cassiaops/acagent/pkg/models"

// Flatten reduces a forest to an ordered list of ElementKey/ElementState
// pairs in pre-order, first-appearance order. Repeated (role, name) pairs
// are disambiguated by an increasing Index.
func Flatten(roots []*models.Node) ([]models.ElementKey, map[models.ElementKey]models.ElementState) {
	seen := map[string]int{}
	var keys []models.ElementKey
	states := map[models.ElementKey]models.ElementState{}

	var walk func(n *models.Node)
	walk = func(n *models.Node) {
		base := n.Role + "\x00" + n.Name
		idx := seen[base]
		seen[base] = idx + 1

		key := models.ElementKey{Role: n.Role, Name: n.Name, Index: idx}
		keys = append(keys, key)
		states[key] = models.ElementState{
			Role:     n.Role,
			Name:     n.Name,
			Value:    n.Value,
			Checked:  n.Checked,
			Expanded: n.Expanded,
			Selected: n.Selected,
		}

		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return keys, states
}

// DiffResult is the outcome of comparing two flattened observations.
type DiffResult struct {
	Added     []models.ElementKey
	Removed   []models.ElementKey
	Modified  []models.ElementKey
	Unchanged int
}

// Diff compares the previous and current flattened states. Added/Removed/
// Modified keys are disjoint by construction: a key present on both sides
// either lands in Modified (if any tracked attribute differs) or counts
// toward Unchanged.
func Diff(prevKeys []models.ElementKey, prevStates map[models.ElementKey]models.ElementState, curKeys []models.ElementKey, curStates map[models.ElementKey]models.ElementState) DiffResult {
	var result DiffResult

	prevSet := make(map[models.ElementKey]bool, len(prevKeys))
	for _, k := range prevKeys {
		prevSet[k] = true
	}
	curSet := make(map[models.ElementKey]bool, len(curKeys))
	for _, k := range curKeys {
		curSet[k] = true
	}

	for _, k := range curKeys {
		if !prevSet[k] {
			result.Added = append(result.Added, k)
			continue
		}
		if statesDiffer(prevStates[k], curStates[k]) {
			result.Modified = append(result.Modified, k)
		} else {
			result.Unchanged++
		}
	}
	for _, k := range prevKeys {
		if !curSet[k] {
			result.Removed = append(result.Removed, k)
		}
	}

	return result
}

func statesDiffer(a, b models.ElementState) bool {
	if a.Value != b.Value {
		return true
	}
	if boolPtrDiffer(a.Checked, b.Checked) {
		return true
	}
	if boolPtrDiffer(a.Expanded, b.Expanded) {
		return true
	}
	if boolPtrDiffer(a.Selected, b.Selected) {
		return true
	}
	return false
}

func boolPtrDiffer(a, b *bool) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	if a == nil {
		return false
	}
	return *a != *b
}

// ChangeRatio reports changes/(changes+unchanged) per the observation
// policy; a DiffResult with zero total change-or-unchanged activity
// reports 0.
func (d DiffResult) ChangeRatio() float64 {
	changes := len(d.Added) + len(d.Removed) + len(d.Modified)
	total := changes + d.Unchanged
	if total == 0 {
		return 0
	}
	return float64(changes) / float64(total)
}
