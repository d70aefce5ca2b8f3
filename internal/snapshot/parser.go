package snapshot

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cassiaops/acagent/pkg/models"
)

// interactiveRoles triggers ref assignment during rendering.
var interactiveRoles = map[string]bool{
	"button": true, "textbox": true, "combobox": true, "checkbox": true,
	"radio": true, "link": true, "menuitem": true, "tab": true, "slider": true,
	"switch": true, "option": true, "searchbox": true, "spinbutton": true,
	"menuitemcheckbox": true, "menuitemradio": true, "treeitem": true,
}

// skipRoles are purely decorative: when they carry no name they are dropped
// if childless and flattened (children reparented) otherwise; a named one is
// kept as is.
var skipRoles = map[string]bool{
	"none": true, "presentation": true, "generic": true, "paragraph": true,
	"LineBreak": true, "InlineTextBox": true,
}

var ariaAttrRe = regexp.MustCompile(`\[(\w+)=([^\]]*)\]`)

type parseLine struct {
	indent int
	node   *models.Node
}

// ParseARIA parses an indentation-structured ARIA-snapshot outline (as
// returned by the page's ariaSnapshot operation) into a forest of Node
// trees. Decorative nodes with no name and no children are dropped;
// decorative containers are flattened so their children reparent to the
// dropped node's parent.
func ParseARIA(text string) []*models.Node {
	lines := strings.Split(text, "\n")

	var stack []parseLine
	var roots []*models.Node

	for _, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		indent := countIndent(raw)
		trimmed := strings.TrimSpace(raw)
		if !strings.HasPrefix(trimmed, "- ") {
			continue
		}
		node := parseARIALine(strings.TrimPrefix(trimmed, "- "))
		if node == nil {
			continue
		}

		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, parseLine{indent: indent, node: node})
	}

	return flattenDecorative(roots)
}

func countIndent(raw string) int {
	n := 0
	for _, r := range raw {
		if r == ' ' {
			n++
		} else {
			break
		}
	}
	return n
}

// parseARIALine parses the token form `role [ "name" ] [ [attr=val] … ] [ : ]`
// or a bare quoted string / /regex/ pattern, either of which becomes an
// anonymous text node.
func parseARIALine(s string) *models.Node {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		name := unquote(s)
		return &models.Node{Role: "text", Name: name}
	}
	if strings.HasPrefix(s, "/") && strings.HasSuffix(strings.TrimSuffix(s, ":"), "/") && len(s) > 1 {
		pattern := strings.TrimSuffix(s, ":")
		pattern = strings.Trim(pattern, "/")
		return &models.Node{Role: "text", Name: pattern}
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), ":")

	rest := s
	role := rest
	if idx := strings.IndexAny(rest, " "); idx >= 0 {
		role = rest[:idx]
		rest = rest[idx+1:]
	} else {
		rest = ""
	}

	node := &models.Node{Role: role}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		end := findClosingQuote(rest)
		if end >= 0 {
			node.Name = unescapeQuoted(rest[1:end])
			rest = strings.TrimSpace(rest[end+1:])
		}
	}

	for _, m := range ariaAttrRe.FindAllStringSubmatch(rest, -1) {
		attr, val := m[1], m[2]
		val = strings.Trim(val, `"`)
		switch attr {
		case "level":
			if n, err := strconv.Atoi(val); err == nil {
				node.Level = &n
			}
		case "checked":
			b := boolAttr(val)
			node.Checked = &b
		case "expanded":
			b := boolAttr(val)
			node.Expanded = &b
		case "selected":
			b := boolAttr(val)
			node.Selected = &b
		case "pressed":
			b := boolAttr(val)
			node.Pressed = &b
		case "disabled":
			b := boolAttr(val)
			node.Disabled = &b
		case "value":
			node.Value = val
		}
	}

	return node
}

func boolAttr(val string) bool {
	switch strings.ToLower(val) {
	case "false", "no", "0":
		return false
	default:
		return true
	}
}

func findClosingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			return i
		}
	}
	return -1
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	if end := findClosingQuote(s); strings.HasPrefix(s, `"`) && end >= 0 {
		return unescapeQuoted(s[1:end])
	}
	return strings.Trim(s, `"`)
}

func unescapeQuoted(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// flattenDecorative drops or flattens decorative nodes in-place across the
// given forest, returning the resulting forest.
func flattenDecorative(nodes []*models.Node) []*models.Node {
	var out []*models.Node
	for _, n := range nodes {
		n.Children = flattenDecorative(n.Children)
		if isDecorative(n) {
			out = append(out, n.Children...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func isDecorative(n *models.Node) bool {
	return skipRoles[n.Role] && n.Name == ""
}
