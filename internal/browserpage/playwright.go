package browserpage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightPage adapts a live playwright.Page to the Page interface. ctx
// arguments are accepted for interface symmetry with the rest of the core
// but playwright-go's sync API has no per-call cancellation; callers rely on
// Playwright's own timeout options instead.
type PlaywrightPage struct {
	page playwright.Page
}

// NewPlaywrightPage wraps an already-navigated or blank playwright.Page.
func NewPlaywrightPage(page playwright.Page) *PlaywrightPage {
	return &PlaywrightPage{page: page}
}

func (p *PlaywrightPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

func (p *PlaywrightPage) CurrentURL(ctx context.Context) (string, error) {
	return p.page.URL(), nil
}

func (p *PlaywrightPage) Evaluate(ctx context.Context, script string, out any) error {
	result, err := p.page.Evaluate(script)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("evaluate: marshal result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("evaluate: decode result: %w", err)
	}
	return nil
}

func (p *PlaywrightPage) AriaSnapshot(ctx context.Context, rootSelector string) (string, error) {
	if rootSelector == "" {
		rootSelector = "body"
	}
	loc := p.page.Locator(rootSelector)
	snapshot, err := loc.AriaSnapshot()
	if err != nil {
		return "", fmt.Errorf("aria snapshot of %s: %w", rootSelector, err)
	}
	return snapshot, nil
}

func (p *PlaywrightPage) AddInitScript(ctx context.Context, src string) error {
	if err := p.page.AddInitScript(playwright.Script{Content: playwright.String(src)}); err != nil {
		return fmt.Errorf("add init script: %w", err)
	}
	return nil
}

func (p *PlaywrightPage) RouteIntercept(ctx context.Context, decide RouteMatcher) error {
	return p.page.Route("**/*", func(route playwright.Route) {
		req := route.Request()
		switch decide(req.URL(), req.Method()) {
		case RouteAbort:
			_ = route.Abort()
		default:
			_ = route.Continue()
		}
	})
}

func (p *PlaywrightPage) OnDialog(fn DialogHandler) {
	p.page.OnDialog(func(dialog playwright.Dialog) {
		fn(dialog.Type(), dialog.Message())
		_ = dialog.Accept()
	})
}

func (p *PlaywrightPage) ByRole(role, name string, exact bool, nth int) Locator {
	opts := playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(exact),
	}
	loc := p.page.GetByRole(playwright.AriaRole(role), opts)
	if nth > 0 {
		loc = loc.Nth(nth)
	} else {
		loc = loc.First()
	}
	return &playwrightLocator{loc: loc}
}

func (p *PlaywrightPage) KeyboardType(ctx context.Context, text string, delay time.Duration) error {
	return p.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
}

func (p *PlaywrightPage) KeyboardPress(ctx context.Context, key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *PlaywrightPage) MouseWheel(ctx context.Context, dy float64) error {
	return p.page.Mouse().Wheel(0, dy)
}

func (p *PlaywrightPage) Screenshot(ctx context.Context, path string, fullPage bool) ([]byte, error) {
	opts := playwright.PageScreenshotOptions{FullPage: playwright.Bool(fullPage)}
	if path != "" {
		opts.Path = playwright.String(path)
	}
	data, err := p.page.Screenshot(opts)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return data, nil
}

type playwrightLocator struct {
	loc playwright.Locator
}

// wrapOp tags a failed locator operation with ErrLocatorFailure so callers
// can distinguish "element acted badly" from "element not found".
func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrLocatorFailure, err)
}

func (l *playwrightLocator) Click(ctx context.Context) error {
	return wrapOp("click", l.loc.Click())
}

func (l *playwrightLocator) Fill(ctx context.Context, value string) error {
	return wrapOp("fill", l.loc.Fill(value))
}

func (l *playwrightLocator) SelectOption(ctx context.Context, value string) error {
	_, err := l.loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
	return wrapOp("select option", err)
}

func (l *playwrightLocator) Check(ctx context.Context) error {
	return wrapOp("check", l.loc.Check())
}

func (l *playwrightLocator) Uncheck(ctx context.Context) error {
	return wrapOp("uncheck", l.loc.Uncheck())
}

func (l *playwrightLocator) Focus(ctx context.Context) error {
	return wrapOp("focus", l.loc.Focus())
}

func (l *playwrightLocator) Count(ctx context.Context) (int, error) {
	return l.loc.Count()
}
