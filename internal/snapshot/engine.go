// Package snapshot turns a live accessibility tree into a compact,
// referentially stable textual view the model can cite by integer ref, and
// tracks a semantic diff between successive observations.
package snapshot

import (
	"context"
	"fmt"
	"strings"

	"github.com/cassiaops/acagent/internal/browserpage"
	"github.com/cassiaops/acagent/pkg/models"
)

const (
	headerFullSnapshot = "[页面快照]"
	headerDiff         = "[页面变化]"
	headerCurrent      = "[当前快照]"
	headerUnchanged    = "[页面无变化]"
)

// Engine owns the last-observed state; every method that reads the page
// mutates it wholesale, never partially.
type Engine struct {
	page          browserpage.Page
	diffThreshold float64

	hasPrev    bool
	prevKeys   []models.ElementKey
	prevStates map[models.ElementKey]models.ElementState
	refs       RefTable
}

// New builds an Engine bound to page. threshold <= 0 falls back to 0.6.
func New(page browserpage.Page, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = 0.6
	}
	return &Engine{page: page, diffThreshold: threshold}
}

// Reset invalidates the last-observed state. Must be called on every
// navigation, since refs from the prior observation are no longer valid.
func (e *Engine) Reset() {
	e.hasPrev = false
	e.prevKeys = nil
	e.prevStates = nil
	e.refs = nil
}

// snapshotNow reads and parses the current accessibility tree.
func (e *Engine) snapshotNow(ctx context.Context) ([]*models.Node, error) {
	raw, err := e.page.AriaSnapshot(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("snapshot: read aria tree: %w", err)
	}
	return ParseARIA(raw), nil
}

// GetFullSnapshot forces a full rendering of the current page state and
// updates the engine's last-observed state to it, without applying the diff
// policy, for callers that want an unconditional fresh view.
func (e *Engine) GetFullSnapshot(ctx context.Context) (models.Observation, error) {
	roots, err := e.snapshotNow(ctx)
	if err != nil {
		return models.Observation{}, err
	}
	text, refs := Render(roots)
	e.refs = refs
	e.prevKeys, e.prevStates = Flatten(roots)
	e.hasPrev = true

	body := text
	if len(roots) == 0 {
		body = emptyPageText
	}
	return models.Observation{
		Kind: models.ObservationFull,
		Text: headerFullSnapshot + "\n" + body,
	}, nil
}

// GetObservation implements the full observation policy: first call always
// yields a full snapshot; a call with zero changes yields the literal
// unchanged marker; a change ratio at or above the configured threshold
// yields a full snapshot; otherwise a diff summary followed by the full new
// snapshot.
func (e *Engine) GetObservation(ctx context.Context) (models.Observation, error) {
	roots, err := e.snapshotNow(ctx)
	if err != nil {
		return models.Observation{}, err
	}
	text, refs := Render(roots)
	curKeys, curStates := Flatten(roots)

	if !e.hasPrev {
		e.refs = refs
		e.prevKeys, e.prevStates = curKeys, curStates
		e.hasPrev = true
		body := text
		if len(roots) == 0 {
			body = emptyPageText
		}
		return models.Observation{Kind: models.ObservationFull, Text: headerFullSnapshot + "\n" + body}, nil
	}

	d := Diff(e.prevKeys, e.prevStates, curKeys, curStates)
	e.refs = refs
	e.prevKeys, e.prevStates = curKeys, curStates

	changes := len(d.Added) + len(d.Removed) + len(d.Modified)
	if changes == 0 {
		return models.Observation{Kind: models.ObservationUnchanged, Text: headerUnchanged}, nil
	}

	if d.ChangeRatio() >= e.diffThreshold {
		body := text
		if len(roots) == 0 {
			body = emptyPageText
		}
		return models.Observation{
			Kind: models.ObservationFull, Text: headerFullSnapshot + "\n" + body,
			Added: len(d.Added), Removed: len(d.Removed), Modified: len(d.Modified), Unchanged: d.Unchanged,
		}, nil
	}

	diffText := formatDiff(d)
	body := text
	if len(roots) == 0 {
		body = emptyPageText
	}
	full := headerCurrent + "\n" + body
	return models.Observation{
		Kind: models.ObservationDiff,
		Text: headerDiff + "\n" + diffText + "\n" + full,
		Added: len(d.Added), Removed: len(d.Removed), Modified: len(d.Modified), Unchanged: d.Unchanged,
	}, nil
}

func formatDiff(d DiffResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "新增 %d, 移除 %d, 修改 %d, 未变 %d\n", len(d.Added), len(d.Removed), len(d.Modified), d.Unchanged)
	for _, k := range d.Added {
		fmt.Fprintf(&b, "[新增] %s %q\n", k.Role, k.Name)
	}
	for _, k := range d.Removed {
		fmt.Fprintf(&b, "[移除] %s %q\n", k.Role, k.Name)
	}
	for _, k := range d.Modified {
		fmt.Fprintf(&b, "[修改] %s %q\n", k.Role, k.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RefToLocator resolves ref back to a live locator. It first tries an
// exact-name match; on zero matches it retries with a substring match; on
// more than one match it disambiguates with nth from the ref table.
func (e *Engine) RefToLocator(ctx context.Context, ref int) (browserpage.Locator, error) {
	info, ok := e.refs[ref]
	if !ok {
		return nil, fmt.Errorf("snapshot: ref %d: %w", ref, ErrRefNotFound)
	}

	loc := e.page.ByRole(info.Role, info.Name, true, info.Nth)
	count, err := loc.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: count locator for ref %d: %w", ref, err)
	}
	if count == 0 {
		loc = e.page.ByRole(info.Role, info.Name, false, info.Nth)
		count, err = loc.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot: count fuzzy locator for ref %d: %w", ref, err)
		}
		if count == 0 {
			return nil, fmt.Errorf("snapshot: ref %d resolved to zero elements: %w", ref, ErrRefNotFound)
		}
	}
	return loc, nil
}

// RefInfo exposes what the ref table knows, for tools that need the raw
// role/name/value rather than a resolved locator (e.g. a human-readable
// action description).
func (e *Engine) RefInfo(ref int) (models.RefInfo, bool) {
	info, ok := e.refs[ref]
	return info, ok
}
