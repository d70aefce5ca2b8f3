package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cassiaops/acagent/internal/browserpage"
)

const postActionSettle = 400 * time.Millisecond

func refSchema(extra string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"object","properties":{"ref":{"type":"integer"}%s},"required":["ref"]}`, extra))
}

func (e *Executor) resolveRef(ctx context.Context, args map[string]any) (int, browserpage.Locator, error) {
	ref, err := requireInt(args, "ref")
	if err != nil {
		return 0, nil, err
	}
	loc, err := e.snap.RefToLocator(ctx, ref)
	if err != nil {
		return ref, nil, err
	}
	return ref, loc, nil
}

func (e *Executor) registerBrowserTools() {
	e.registry.Register(Def{
		Name:        "browser_click",
		Description: "点击 ref 编号对应的元素（按钮、链接等）。",
		Schema:      refSchema(""),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			ref, loc, err := e.resolveRef(ctx, args)
			if err != nil {
				return "", err
			}
			if err := loc.Click(ctx); err != nil {
				return "", fmt.Errorf("click ref %d: %w", ref, err)
			}
			time.Sleep(postActionSettle)
			return fmt.Sprintf("已点击 ref=%d", ref), nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_fill",
		Description: "填写 ref 编号对应的输入框，替换其当前值。",
		Schema:      refSchema(`,"text":{"type":"string"}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			ref, loc, err := e.resolveRef(ctx, args)
			if err != nil {
				return "", err
			}
			text, _ := argString(args, "text")
			if err := loc.Fill(ctx, text); err != nil {
				return "", fmt.Errorf("fill ref %d: %w", ref, err)
			}
			time.Sleep(postActionSettle)
			return fmt.Sprintf("已填写 ref=%d", ref), nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_select",
		Description: "在 ref 编号对应的下拉框中选择指定选项。",
		Schema:      refSchema(`,"value":{"type":"string"}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			ref, loc, err := e.resolveRef(ctx, args)
			if err != nil {
				return "", err
			}
			value, _ := argString(args, "value")
			if err := loc.SelectOption(ctx, value); err != nil {
				return "", fmt.Errorf("select ref %d: %w", ref, err)
			}
			time.Sleep(postActionSettle)
			return fmt.Sprintf("已选择 ref=%d -> %s", ref, value), nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_check",
		Description: "勾选或取消勾选 ref 编号对应的复选框。",
		Schema:      refSchema(`,"checked":{"type":"boolean"}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			ref, loc, err := e.resolveRef(ctx, args)
			if err != nil {
				return "", err
			}
			checked := argBool(args, "checked", true)
			var actErr error
			if checked {
				actErr = loc.Check(ctx)
			} else {
				actErr = loc.Uncheck(ctx)
			}
			if actErr != nil {
				return "", fmt.Errorf("check ref %d: %w", ref, actErr)
			}
			time.Sleep(postActionSettle)
			return fmt.Sprintf("已设置 ref=%d checked=%v", ref, checked), nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_goto",
		Description: "导航到指定 URL（站内路径如 /ap?view 或完整 URL）。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"url":{"type":"string"}},"required":["url"]}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			url, err := requireString(args, "url")
			if err != nil {
				return "", err
			}
			if strings.HasPrefix(url, "/") {
				url = e.ac.BaseURL() + url
			}
			if err := e.page.Goto(ctx, url, e.cfg.TimeoutPageLoad); err != nil {
				return "", fmt.Errorf("goto %s: %w", url, err)
			}
			e.snap.Reset()
			time.Sleep(postActionSettle)
			return "已导航到 " + url, nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_scroll",
		Description: "垂直滚动页面 dy 像素（正数向下）。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"dy":{"type":"number"}},"required":["dy"]}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			dy, _ := args["dy"].(float64)
			if err := e.page.MouseWheel(ctx, dy); err != nil {
				return "", fmt.Errorf("scroll: %w", err)
			}
			time.Sleep(postActionSettle)
			return fmt.Sprintf("已滚动 %.0f 像素", dy), nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_wait",
		Description: "等待指定毫秒数，用于等待页面异步加载。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"ms":{"type":"integer"}},"required":["ms"]}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			ms := argInt(args, "ms", 500)
			time.Sleep(time.Duration(ms) * time.Millisecond)
			return fmt.Sprintf("已等待 %dms", ms), nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_press_key",
		Description: "按下单个键盘按键（如 Enter、Tab、Escape）。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"key":{"type":"string"}},"required":["key"]}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			key, err := requireString(args, "key")
			if err != nil {
				return "", err
			}
			if err := e.page.KeyboardPress(ctx, key); err != nil {
				return "", fmt.Errorf("press %s: %w", key, err)
			}
			time.Sleep(postActionSettle)
			return "已按下 " + key, nil
		},
	})

	e.registry.Register(Def{
		Name:        "browser_screenshot",
		Description: "截取当前页面并保存到 screenshots/ 目录。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"full_page":{"type":"boolean"}}}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			fullPage := argBool(args, "full_page", false)
			path := e.screenshotsDir + "/" + newScreenshotName()
			data, err := e.page.Screenshot(ctx, path, fullPage)
			if err != nil {
				return "", fmt.Errorf("screenshot: %w", err)
			}
			return fmt.Sprintf("截图已保存: %s (%d 字节)", path, len(data)), nil
		},
	})
}

// IsBrowserMutating reports whether name is a browser_* tool other than
// browser_wait: these get the post-action settle sleep and a fresh
// observation appended by the agent loop.
func IsBrowserMutating(name string) bool {
	return strings.HasPrefix(name, "browser_") && name != "browser_wait"
}

// ChangesPage reports whether name's side effects invalidate the current
// observation, so the agent loop re-observes after it runs.
func ChangesPage(name string) bool {
	return strings.HasPrefix(name, "browser_") || name == "ssh_to_gateway"
}
