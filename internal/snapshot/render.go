package snapshot

import (
	"fmt"
	"strings"

	"github.com/cassiaops/acagent/pkg/models"
)

const emptyPageText = "(空白页面)"

// refEntry is the per-(role,name) occurrence counter used to assign nth
// during rendering, matching the ordering ref resolution later replays.
type refEntry struct {
	count int
}

// RefTable maps a 1-based ref to the node it was assigned to.
type RefTable map[int]models.RefInfo

// Render walks roots pre-order and produces the numbered textual view plus
// the ref table for the current observation. An empty forest renders as the
// literal placeholder text.
func Render(roots []*models.Node) (string, RefTable) {
	if len(roots) == 0 {
		return emptyPageText, RefTable{}
	}

	var b strings.Builder
	refs := RefTable{}
	nth := map[string]*refEntry{}
	nextRef := 1

	var walk func(n *models.Node, depth int)
	walk = func(n *models.Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))

		key := n.Role + "\x00" + n.Name
		entry, ok := nth[key]
		if !ok {
			entry = &refEntry{}
			nth[key] = entry
		}
		occurrence := entry.count
		entry.count++

		if interactiveRoles[n.Role] {
			b.WriteString(fmt.Sprintf("[%d] ", nextRef))
			refs[nextRef] = models.RefInfo{Role: n.Role, Name: n.Name, Value: n.Value, Nth: occurrence}
			nextRef++
		}

		b.WriteString(n.Role)
		if n.Name != "" {
			b.WriteString(fmt.Sprintf(" %q", n.Name))
		}
		if n.Level != nil {
			b.WriteString(fmt.Sprintf(" level=%d", *n.Level))
		}
		if n.Value != "" {
			b.WriteString(fmt.Sprintf(" value=%q", n.Value))
		}
		if n.Checked != nil {
			b.WriteString(" checked=" + yesNo(*n.Checked))
		}
		if n.Expanded != nil {
			b.WriteString(" expanded=" + yesNo(*n.Expanded))
		}
		if n.Selected != nil && *n.Selected {
			b.WriteString(" (selected)")
		}
		b.WriteString("\n")

		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}

	for _, r := range roots {
		walk(r, 0)
	}

	return strings.TrimRight(b.String(), "\n"), refs
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
