package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cassiaops/acagent/internal/browserpage"
	"github.com/cassiaops/acagent/internal/observability"
	"github.com/cassiaops/acagent/internal/reactagent"
	"github.com/cassiaops/acagent/internal/tools"
)

func runAgent(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	headless, _ := cmd.Flags().GetBool("headless")
	logLevel, _ := cmd.Flags().GetString("log-level")
	enableMetrics, _ := cmd.Flags().GetBool("metrics")
	skipConfirm, _ := cmd.Flags().GetBool("yes")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := observability.NewLogger(observability.LogConfig{Level: logLevel})

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	defer func() { _ = pw.Stop() }()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	pwPage, err := browser.NewPage()
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	page := browserpage.NewPlaywrightPage(pwPage)

	ctx := context.Background()
	if err := page.Goto(ctx, cfg.BaseURL, cfg.TimeoutPageLoad); err != nil {
		return fmt.Errorf("open AC console: %w", err)
	}

	stdin := bufio.NewReader(os.Stdin)
	fmt.Println("请在浏览器中完成 AC 登录，然后按回车继续...")
	if _, err := stdin.ReadString('\n'); err != nil {
		return err
	}

	var metrics *observability.Metrics
	if enableMetrics {
		metrics = observability.NewMetrics(prometheus.DefaultRegisterer)
	}

	var confirm tools.ConfirmFunc
	if !skipConfirm {
		confirm = func(tool string, args map[string]any, preview string) bool {
			fmt.Printf("\n[确认] %s — 执行? [y/N] ", preview)
			line, err := stdin.ReadString('\n')
			if err != nil {
				return false
			}
			line = strings.ToLower(strings.TrimSpace(line))
			return line == "y" || line == "yes"
		}
	}

	agent := reactagent.New(page, cfg, consoleSinks(), reactagent.Options{
		Logger:  log,
		Metrics: metrics,
		Confirm: confirm,
	})
	defer agent.Close()

	fmt.Println("输入指令开始对话；/reset 重置会话；/quit 退出。")
	for {
		fmt.Print("\n> ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			agent.Reset(ctx)
			fmt.Println("会话已重置。")
			continue
		}

		answer, err := agent.Run(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "错误:", observability.Redact(err.Error()))
			continue
		}
		fmt.Println("\n" + answer)
	}
}

// consoleSinks streams model output straight to stdout; reasoning traces
// render dimmed so they read apart from the final answer.
func consoleSinks() reactagent.Sinks {
	return reactagent.Sinks{
		OnThinkingChunk: func(chunk string) { fmt.Print(chunk) },
		OnReasoningChunk: func(chunk string) {
			fmt.Print("\x1b[2m" + chunk + "\x1b[0m")
		},
		OnThinking: func(text string) { fmt.Println(text) },
		OnToolCall: func(name string, args map[string]any, result string) {
			fmt.Printf("\n[工具] %s\n", name)
		},
	}
}
