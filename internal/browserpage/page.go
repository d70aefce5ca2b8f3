// Package browserpage defines the narrow browser-page handle the rest of the
// core demands, and a Playwright-backed implementation of it. Nothing above
// this package imports playwright-go directly; everything else talks to
// Page/Locator so a host can substitute a fake for testing.
package browserpage

import (
	"context"
	"time"
)

// DialogHandler is invoked whenever the page raises a JS dialog
// (alert/confirm/prompt). Implementations typically accept and log it.
type DialogHandler func(dialogType, message string)

// RouteDecision is returned by a RouteMatcher's decide function.
type RouteDecision int

const (
	RouteContinue RouteDecision = iota
	RouteAbort
)

// RouteMatcher receives the request URL and method and decides whether to
// let it through.
type RouteMatcher func(url, method string) RouteDecision

// Locator is a resolved handle to zero-or-more elements, obtained via
// Page.ByRole. Every operation acts on the first matching element.
type Locator interface {
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	SelectOption(ctx context.Context, value string) error
	Check(ctx context.Context) error
	Uncheck(ctx context.Context) error
	Focus(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Page is the full surface the core requires from a controlled browser tab.
// Implementations must be safe for cooperative single-threaded use only; the
// core never calls two Page methods concurrently on the same handle.
type Page interface {
	Goto(ctx context.Context, url string, timeout time.Duration) error
	CurrentURL(ctx context.Context) (string, error)

	// Evaluate runs script in the page and decodes its JSON-serializable
	// result into out (a pointer); when out is nil the result is
	// discarded.
	Evaluate(ctx context.Context, script string, out any) error

	// AriaSnapshot returns the YAML-like indented accessibility tree
	// rooted at rootSelector (an empty selector means "body").
	AriaSnapshot(ctx context.Context, rootSelector string) (string, error)

	// AddInitScript installs src to run before every future navigation,
	// including the very next one. Safe to call more than once; each call
	// adds another script.
	AddInitScript(ctx context.Context, src string) error

	// RouteIntercept registers matcher/decide for all requests; decide
	// receives the request URL and method.
	RouteIntercept(ctx context.Context, decide RouteMatcher) error

	// OnDialog registers fn to run whenever the page raises a dialog.
	OnDialog(fn DialogHandler)

	// ByRole resolves an accessible-role locator. exact controls whether
	// the accessible name must match exactly or only as a substring; nth
	// selects among multiple matches (0-based).
	ByRole(role, name string, exact bool, nth int) Locator

	KeyboardType(ctx context.Context, text string, delay time.Duration) error
	KeyboardPress(ctx context.Context, key string) error
	MouseWheel(ctx context.Context, dy float64) error
	Screenshot(ctx context.Context, path string, fullPage bool) ([]byte, error)
}
