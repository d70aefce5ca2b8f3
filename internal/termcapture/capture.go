package termcapture

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cassiaops/acagent/internal/browserpage"
)

// ansiEscape strips, in order: CSI sequences, OSC sequences, charset
// selection, keyboard-mode switches, DEC private-mode sequences, and bare
// carriage returns.
var ansiEscape = regexp.MustCompile(
	"\x1b\\[[0-9;]*[a-zA-Z]" + // CSI
		"|\x1b\\][^\x07]*\x07" + // OSC
		"|\x1b[()][AB012]" + // charset
		"|\x1b[>=]" + // keyboard mode
		"|\x1b\\[\\?[0-9;]*[hl]" + // DEC private mode
		"|\r", // bare CR
)

var shellPromptRe = regexp.MustCompile(`(?m)^\s*\S+[@:]\S*[#$]\s*$`)

const graceAfterDisconnect = 5 * time.Second

// Capture owns one SSH terminal session's state: the browser-side hook's
// harvested frames, the decoded raw byte buffer, and the virtual screen.
// Lifetime is one SSH session; Reset starts a fresh one.
type Capture struct {
	page browserpage.Page

	mu             sync.Mutex
	rawBuffer      strings.Builder
	wsDisconnected bool
	disconnectedAt time.Time
	lastGrowth     time.Time

	vt *virtualTerminal
}

// New builds a Capture bound to page. AttachHook must be called before the
// terminal page navigates.
func New(page browserpage.Page) *Capture {
	return &Capture{page: page, vt: newVirtualTerminal(), lastGrowth: time.Time{}}
}

// AttachHook installs the frame-capture hook. Call before navigating to the
// SSH terminal page.
func (c *Capture) AttachHook(ctx context.Context) error {
	if err := c.page.AddInitScript(ctx, jsHook); err != nil {
		return fmt.Errorf("termcapture: attach hook: %w", err)
	}
	return nil
}

// Reset clears accumulated state for a new SSH session, including the
// browser-side ring buffer.
func (c *Capture) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.rawBuffer.Reset()
	c.wsDisconnected = false
	c.disconnectedAt = time.Time{}
	c.lastGrowth = time.Time{}
	c.mu.Unlock()

	c.vt = newVirtualTerminal()

	if err := c.page.Evaluate(ctx, resetScript, nil); err != nil {
		return fmt.Errorf("termcapture: reset: %w", err)
	}
	return nil
}

type pulledData struct {
	Messages       []string `json:"messages"`
	Debug          []string `json:"debug"`
	WSDisconnected bool     `json:"wsDisconnected"`
}

// pull evaluates the pull script, decodes every unseen message into
// packets and events, and feeds data events to the emulator.
func (c *Capture) pull(ctx context.Context) error {
	var data pulledData
	if err := c.page.Evaluate(ctx, pullScript, &data); err != nil {
		return fmt.Errorf("termcapture: pull: %w", err)
	}

	grew := false
	for _, msg := range data.Messages {
		for _, packet := range ParseMessage(msg) {
			ev, ok := DecodePacket(packet)
			if !ok {
				continue
			}
			switch ev.Name {
			case "data":
				if ev.Data == "" {
					continue
				}
				c.mu.Lock()
				c.rawBuffer.WriteString(ev.Data)
				c.mu.Unlock()
				c.vt.feed(ev.Data)
				grew = true
			case "resize":
				c.vt.resize(ev.Cols, ev.Rows)
			}
		}
	}

	c.mu.Lock()
	if grew {
		c.lastGrowth = time.Now()
	}
	if data.WSDisconnected && !c.wsDisconnected {
		c.wsDisconnected = true
		c.disconnectedAt = time.Now()
	}
	c.mu.Unlock()

	return nil
}

// ScreenText pulls pending frames then returns the current virtual screen.
func (c *Capture) ScreenText(ctx context.Context) (string, error) {
	if err := c.pull(ctx); err != nil {
		return "", err
	}
	return c.vt.screenText(), nil
}

// RawText pulls pending frames then returns the accumulated raw buffer
// with ANSI escape sequences and bare CR stripped.
func (c *Capture) RawText(ctx context.Context) (string, error) {
	if err := c.pull(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	raw := c.rawBuffer.String()
	c.mu.Unlock()
	return ansiEscape.ReplaceAllString(raw, ""), nil
}

// Contains reports whether target occurs anywhere in the accumulated raw
// output.
func (c *Capture) Contains(ctx context.Context, target string) (bool, error) {
	text, err := c.RawText(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(text, target), nil
}

// Count reports the number of non-overlapping occurrences of target in the
// accumulated raw output.
func (c *Capture) Count(ctx context.Context, target string) (int, error) {
	text, err := c.RawText(ctx)
	if err != nil {
		return 0, err
	}
	return strings.Count(text, target), nil
}

// WaitForText polls RawText every 500ms until target appears, the
// connection is judged lost, or timeout elapses.
func (c *Capture) WaitForText(ctx context.Context, target string, timeout time.Duration) error {
	return c.waitFor(ctx, target, timeout, func(raw string) bool {
		return strings.Contains(raw, target)
	})
}

// WaitForNewText is like WaitForText but only succeeds once the occurrence
// count of target exceeds its count in baseline.
func (c *Capture) WaitForNewText(ctx context.Context, target, baseline string, timeout time.Duration) error {
	baselineCount := strings.Count(baseline, target)
	return c.waitFor(ctx, target, timeout, func(raw string) bool {
		return strings.Count(raw, target) > baselineCount
	})
}

func (c *Capture) waitFor(ctx context.Context, target string, timeout time.Duration, done func(raw string) bool) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	check := func() (bool, error) {
		raw, err := c.RawText(ctx)
		if err != nil {
			return false, err
		}
		if done(raw) {
			return true, nil
		}

		c.mu.Lock()
		disconnected := c.wsDisconnected
		disconnectedAt := c.disconnectedAt
		lastGrowth := c.lastGrowth
		c.mu.Unlock()

		if disconnected {
			// The grace countdown runs from the last byte arrival, or
			// from the moment disconnection was observed when no bytes
			// have ever arrived in this session.
			ref := lastGrowth
			if ref.IsZero() {
				ref = disconnectedAt
			}
			if !ref.IsZero() && time.Since(ref) >= graceAfterDisconnect {
				return false, fmt.Errorf("termcapture: %w", ErrConnectionLost)
			}
		}
		return false, nil
	}

	if ok, err := check(); err != nil || ok {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ok, err := check()
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			if time.Now().After(deadline) {
				screen := c.vt.screenText()
				raw, _ := c.RawText(ctx)
				tail := raw
				if len(tail) > 500 {
					tail = tail[len(tail)-500:]
				}
				return fmt.Errorf("termcapture: wait for %q: screen=%q raw_tail=%q: %w", target, screen, tail, ErrTimeout)
			}
		}
	}
}

// ExtractCommandOutput isolates a command's output from the terminal's
// accumulated raw text: it takes the tail beyond baseline, drops the first
// line if it's the command's own echo, and drops trailing shell-prompt
// lines.
func ExtractCommandOutput(newRaw, baseline, cmd string) string {
	if len(newRaw) < len(baseline) {
		return ""
	}
	tail := newRaw[len(baseline):]
	if tail == "" {
		return ""
	}

	lines := strings.Split(tail, "\n")
	trimmedCmd := strings.TrimSpace(cmd)
	if len(lines) > 0 && trimmedCmd != "" && strings.Contains(lines[0], trimmedCmd) {
		lines = lines[1:]
	}
	for len(lines) > 0 && shellPromptRe.MatchString(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
