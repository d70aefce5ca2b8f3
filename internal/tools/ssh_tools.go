package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cassiaops/acagent/internal/backoff"
	"github.com/cassiaops/acagent/internal/termcapture"
	"github.com/cassiaops/acagent/pkg/models"
)

// sshRetrySchedule is the fixed back-off between ssh_to_gateway attempts.
var sshRetrySchedule = backoff.Schedule{2 * time.Second, 5 * time.Second}

const sshConnectAttempts = 3

func (e *Executor) registerSSHTools() {
	e.registry.Register(Def{
		Name:        "ssh_to_gateway",
		Description: "SSH 连接到指定 MAC 的网关（自动启用 SSH、开隧道、打开 Web 终端、切换 root）。M/Z 系列网关不支持。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"mac":{"type":"string"}},"required":["mac"]}`),
		Handler:     e.handleSSHToGateway,
	})

	e.registry.Register(Def{
		Name:        "run_gateway_command",
		Description: "在已连接的网关上执行 shell 命令并返回输出。需要先 ssh_to_gateway。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"command":{"type":"string"},"timeout_ms":{"type":"integer"}},"required":["command"]}`),
		Handler:     e.handleRunGatewayCommand,
	})
}

func (e *Executor) handleSSHToGateway(ctx context.Context, args map[string]any) (string, error) {
	mac, err := requireString(args, "mac")
	if err != nil {
		return "", err
	}
	mac = strings.ToUpper(strings.TrimSpace(mac))

	if model, ok := e.lookupModel(ctx, mac); ok && !(models.Gateway{Model: model}).SupportsSSH() {
		return "", fmt.Errorf("网关 %s 型号 %s 为嵌入式系统: %w", mac, model, ErrUnsupportedModel)
	}

	err = backoff.Retry(ctx, sshConnectAttempts, sshRetrySchedule, func(attempt int) error {
		if attempt > 1 {
			e.log.Info("ssh connect retry", "mac", mac, "attempt", attempt)
			e.metrics.ObserveSSHAttempt("retry")
		}
		return e.connectOnce(ctx, mac)
	})
	if err != nil {
		e.metrics.ObserveSSHAttempt("failed")
		return "", fmt.Errorf("SSH 连接 %s 失败: %w", mac, err)
	}
	e.metrics.ObserveSSHAttempt("success")

	e.sess.mu.Lock()
	e.sess.connected = true
	e.sess.mac = mac
	e.sess.mu.Unlock()

	return fmt.Sprintf("已通过 SSH 连接到网关 %s (root)", mac), nil
}

// connectOnce runs one full connection attempt: enable SSH, open the
// tunnel, load the terminal page, wait for the login shell, then escalate
// to root.
func (e *Executor) connectOnce(ctx context.Context, mac string) error {
	if err := e.ac.EnableSSH(ctx, mac, e.cfg.TimeoutPageLoad); err != nil {
		return err
	}
	if err := e.ac.OpenTunnel(ctx, mac, e.cfg.TimeoutPageLoad); err != nil {
		return err
	}

	e.hookOnce.Do(func() {
		if err := e.capture.AttachHook(ctx); err != nil {
			e.log.Warn("attach terminal hook", "error", err)
		}
	})
	if err := e.capture.Reset(ctx); err != nil {
		e.log.Debug("terminal reset before navigation", "error", err)
	}

	termURL := e.ac.BaseURL() + "/ssh/host"
	if err := e.page.Goto(ctx, termURL, e.cfg.TimeoutPageLoad); err != nil {
		return fmt.Errorf("打开 SSH 终端页面: %w", err)
	}
	e.snap.Reset()

	if url, err := e.page.CurrentURL(ctx); err == nil {
		lower := strings.ToLower(url)
		if strings.Contains(lower, "session") || strings.Contains(lower, "login") {
			return fmt.Errorf("SSH 终端页面被重定向到登录页 (%s)，会话已过期", url)
		}
	}

	if err := e.capture.WaitForText(ctx, "$", e.cfg.TimeoutTerminalReady); err != nil {
		return fmt.Errorf("等待终端就绪: %w", err)
	}

	// A bare newline first: webssh2 occasionally swallows the first
	// keystrokes while xterm is still attaching.
	if err := e.typeLine(ctx, ""); err != nil {
		return err
	}
	if err := e.typeLine(ctx, "su"); err != nil {
		return err
	}
	if err := e.capture.WaitForText(ctx, "assword", e.cfg.TimeoutPromptWait); err != nil {
		return fmt.Errorf("等待 su 密码提示: %w", err)
	}
	if err := e.typeLine(ctx, e.cfg.SUPassword); err != nil {
		return err
	}
	if err := e.capture.WaitForText(ctx, "#", e.cfg.TimeoutPromptWait); err != nil {
		return fmt.Errorf("等待 root 提示符: %w", err)
	}
	return nil
}

func (e *Executor) handleRunGatewayCommand(ctx context.Context, args map[string]any) (string, error) {
	command, err := requireString(args, "command")
	if err != nil {
		return "", err
	}
	timeout := clampDuration(argInt(args, "timeout_ms", 30000), time.Second, 300*time.Second)

	output, err := e.runCommand(ctx, command, timeout)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(output) == "" {
		return "(命令无输出)", nil
	}
	return output, nil
}

// runCommand types command into the live terminal and extracts its output,
// shared by run_gateway_command and the eMMC composite tools.
func (e *Executor) runCommand(ctx context.Context, command string, timeout time.Duration) (string, error) {
	e.sess.mu.Lock()
	connected := e.sess.connected
	e.sess.mu.Unlock()
	if !connected {
		return "", fmt.Errorf("请先使用 ssh_to_gateway 建立连接: %w", ErrNoSession)
	}

	baseline, err := e.capture.RawText(ctx)
	if err != nil {
		return "", err
	}
	if err := e.typeLine(ctx, command); err != nil {
		return "", err
	}
	if err := e.capture.WaitForNewText(ctx, "#", baseline, timeout); err != nil {
		return "", err
	}
	newRaw, err := e.capture.RawText(ctx)
	if err != nil {
		return "", err
	}
	return termcapture.ExtractCommandOutput(newRaw, baseline, command), nil
}

// typeLine types text into the focused terminal followed by Enter. The
// per-character delay keeps webssh2's input channel from dropping
// keystrokes on slow tunnels.
func (e *Executor) typeLine(ctx context.Context, text string) error {
	if text != "" {
		if err := e.page.KeyboardType(ctx, text, e.cfg.TypeDelay); err != nil {
			return fmt.Errorf("输入终端文本: %w", err)
		}
	}
	if err := e.page.KeyboardPress(ctx, "Enter"); err != nil {
		return fmt.Errorf("发送回车: %w", err)
	}
	return nil
}

// lookupModel consults the mac→model cache, falling back to one gateway
// list fetch to populate it.
func (e *Executor) lookupModel(ctx context.Context, mac string) (string, bool) {
	if v, ok := e.gatewayModels.Load(mac); ok {
		return v.(string), true
	}
	gws, err := e.ac.FetchGateways(ctx, "all", e.cfg.TimeoutPageLoad)
	if err != nil {
		return "", false
	}
	for _, g := range gws {
		e.gatewayModels.Store(strings.ToUpper(g.MAC), g.Model)
	}
	if v, ok := e.gatewayModels.Load(mac); ok {
		return v.(string), true
	}
	return "", false
}
