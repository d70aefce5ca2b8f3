package tools

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cassiaops/acagent/internal/acapi"
	"github.com/cassiaops/acagent/internal/browserpage"
	"github.com/cassiaops/acagent/internal/config"
	"github.com/cassiaops/acagent/internal/observability"
	"github.com/cassiaops/acagent/internal/snapshot"
	"github.com/cassiaops/acagent/internal/termcapture"
)

// ConfirmFunc is the optional confirmation gate: invoked before a
// high-risk tool call with its name, decoded args, and a human-readable
// preview; a false return aborts the call.
type ConfirmFunc func(tool string, args map[string]any, preview string) bool

// needsConfirm names tools that get a confirmation preview before running.
// Kept as an explicit set, not a per-tool flag, so the policy is visible
// in one place.
var needsConfirm = map[string]bool{
	"run_gateway_command": true,
	"write_local_file":    true,
	"batch_check_emmc":    true,
}

// session is the executor's SSH-connection state, owned exclusively by it:
// only the executing tool writes.
type session struct {
	mu        sync.Mutex
	connected bool
	mac       string
}

// Executor implements the tool catalog: concrete handlers wired to the
// page, the AC API client, the snapshot engine and the terminal capture,
// owning SSH session state, the large-response cache, and the
// reports/screenshots directories.
type Executor struct {
	log     *slog.Logger
	metrics *observability.Metrics
	cfg     config.Config

	page    browserpage.Page
	ac      *acapi.Client
	snap    *snapshot.Engine
	capture *termcapture.Capture

	confirm ConfirmFunc

	sess     *session
	hookOnce sync.Once

	gatewayModels sync.Map // mac -> model string

	cacheMu   sync.Mutex
	cachePath string
	cacheN    int

	reportsDir     string
	screenshotsDir string

	registry *Registry
}

// New builds an Executor and registers the full tool catalog against it.
func New(log *slog.Logger, cfg config.Config, page browserpage.Page, ac *acapi.Client, snap *snapshot.Engine, capture *termcapture.Capture, confirm ConfirmFunc) *Executor {
	if log == nil {
		log = slog.Default()
	}
	e := &Executor{
		log:            log,
		cfg:            cfg,
		page:           page,
		ac:             ac,
		snap:           snap,
		capture:        capture,
		confirm:        confirm,
		sess:           &session{},
		reportsDir:     "reports",
		screenshotsDir: "screenshots",
		registry:       NewRegistry(),
	}
	_ = os.MkdirAll(e.reportsDir, 0o755)
	_ = os.MkdirAll(e.screenshotsDir, 0o755)

	e.registerBrowserTools()
	e.registerSSHTools()
	e.registerACTools()
	e.registerDataTools()
	e.registerEMMCTools()
	e.registerDoneTool()

	return e
}

// SetMetrics attaches an optional metric sink; a nil sink disables
// reporting.
func (e *Executor) SetMetrics(m *observability.Metrics) { e.metrics = m }

// Registry exposes the populated tool table for the agent loop.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs a single tool call, applying the confirmation gate when the
// tool requires one.
func (e *Executor) Execute(ctx context.Context, name, argumentsJSON string) (string, error) {
	if needsConfirm[name] && e.confirm != nil {
		args := map[string]any{}
		if argumentsJSON != "" {
			decodeArgsLoose(argumentsJSON, &args)
		}
		if !e.confirm(name, args, previewFor(name, args)) {
			return "错误: 用户取消了操作", nil
		}
	}

	start := time.Now()
	result, err := e.registry.Execute(ctx, name, argumentsJSON)
	status := "success"
	if err != nil || len(result) >= len("错误:") && result[:len("错误:")] == "错误:" {
		status = "error"
	}
	e.metrics.ObserveTool(name, status, time.Since(start).Seconds())
	return result, err
}

func previewFor(name string, args map[string]any) string {
	switch name {
	case "run_gateway_command":
		if cmd, ok := args["command"].(string); ok {
			return "在网关上执行: " + cmd
		}
	case "write_local_file":
		if fn, ok := args["filename"].(string); ok {
			return "写入本地文件: " + fn
		}
	case "batch_check_emmc":
		return "批量检查 eMMC 健康状态"
	}
	return name
}

// Cleanup releases the executor's single-instance resources: the
// large-response cache file. Must be called on teardown and on agent
// reset.
func (e *Executor) Cleanup() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if e.cachePath != "" {
		_ = os.Remove(e.cachePath)
		e.cachePath = ""
		e.cacheN = 0
	}
}

// Reset clears SSH session state, called by the agent on reset.
func (e *Executor) Reset() {
	e.sess.mu.Lock()
	e.sess.connected = false
	e.sess.mac = ""
	e.sess.mu.Unlock()
}

func clampDuration(ms int, lo, hi time.Duration) time.Duration {
	d := time.Duration(ms) * time.Millisecond
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func newScreenshotName() string {
	return "shot-" + uuid.NewString()[:8] + ".png"
}

func newCachePath() string {
	return os.TempDir() + string(os.PathSeparator) + "acagent-cache-" + uuid.NewString() + ".json"
}
