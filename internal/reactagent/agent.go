package reactagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cassiaops/acagent/internal/acapi"
	"github.com/cassiaops/acagent/internal/browserpage"
	"github.com/cassiaops/acagent/internal/config"
	"github.com/cassiaops/acagent/internal/observability"
	"github.com/cassiaops/acagent/internal/promptbuilder"
	"github.com/cassiaops/acagent/internal/snapshot"
	"github.com/cassiaops/acagent/internal/termcapture"
	"github.com/cassiaops/acagent/internal/tools"
	"github.com/cassiaops/acagent/pkg/models"
)

// stepCapMessage ends a turn that exhausted its step budget.
const stepCapMessage = "达到最大步数，任务未完成"

// Options carries the optional collaborators a host may supply.
type Options struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics

	// Confirm is the synchronous yes/no gate invoked before high-risk
	// tools; nil disables confirmation entirely.
	Confirm tools.ConfirmFunc
}

// Agent owns one conversation with the model and the machinery under it.
// All methods must be called from a single goroutine; the agent assumes
// cooperative single-threaded access to the page handle.
type Agent struct {
	log     *slog.Logger
	metrics *observability.Metrics
	cfg     config.Config

	page     browserpage.Page
	snap     *snapshot.Engine
	capture  *termcapture.Capture
	executor *tools.Executor
	llm      completer
	sinks    Sinks

	messages []models.Message
}

// New wires the full core below the agent: snapshot engine, terminal
// capture, AC API client, tool executor, prompt builder, and the LLM
// transport. The page must already be logged in to the AC console.
func New(page browserpage.Page, cfg config.Config, sinks Sinks, opts Options) *Agent {
	cfg = config.WithDefaults(cfg)
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	snap := snapshot.New(page, cfg.Agent.DiffThreshold)
	capture := termcapture.New(page)
	ac := acapi.New(page, cfg.BaseURL)
	executor := tools.New(log, cfg, page, ac, snap, capture, opts.Confirm)
	executor.SetMetrics(opts.Metrics)

	systemPrompt := promptbuilder.Build(cfg)

	a := &Agent{
		log:      log,
		metrics:  opts.Metrics,
		cfg:      cfg,
		page:     page,
		snap:     snap,
		capture:  capture,
		executor: executor,
		sinks:    sinks,
	}
	a.llm = newOpenAICompleter(log, opts.Metrics, cfg.LLM, systemPrompt, openAITools(executor.Registry()), sinks)
	return a
}

// openAITools converts the registry's catalog into the function-calling
// tool list.
func openAITools(registry *tools.Registry) []openai.Tool {
	defs := registry.Schemas()
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		var params map[string]any
		if err := json.Unmarshal(d.Schema, &params); err != nil || params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// Run executes one user turn and returns the model's final answer: the
// done-tool summary, the last tool-call-free response, or the step-cap
// message. Tool failures loop back to the model; only an LLM transport
// failure that survives the fallbacks ends the turn with an error.
func (a *Agent) Run(ctx context.Context, instruction string) (string, error) {
	observation := a.observe(ctx)
	userMsg := fmt.Sprintf("用户指令: %s\n\n当前页面 URL: %s\n\n%s", instruction, a.currentURL(ctx), observation)
	a.messages = append(a.messages, models.Message{Role: models.RoleUser, Content: userMsg})

	maxSteps := a.cfg.Agent.MaxSteps
	for step := 1; step <= maxSteps; step++ {
		a.log.Info("agent step", "step", step)

		res, err := a.llm.complete(ctx, a.messages)
		if err != nil {
			a.metrics.ObserveSteps(step)
			return "", fmt.Errorf("reactagent: llm call failed: %w", err)
		}

		a.messages = append(a.messages, res.message)

		if len(res.toolCalls) == 0 {
			a.metrics.ObserveSteps(step)
			if res.content == "" {
				return "任务完成 (模型未返回总结)", nil
			}
			return res.content, nil
		}

		for _, tc := range res.toolCalls {
			args := tc.DecodeArguments()
			a.log.Debug("dispatch tool", "tool", tc.Name, "id", tc.ID)

			result, execErr := a.executor.Execute(ctx, tc.Name, tc.Arguments)
			if execErr != nil {
				result = "错误: " + execErr.Error()
			}

			if summary, done := strings.CutPrefix(result, tools.DoneSentinelPrefix); done {
				a.messages = append(a.messages, models.Message{
					Role:       models.RoleTool,
					ToolCallID: tc.ID,
					Content:    summary,
				})
				a.sinks.toolCall(tc.Name, args, summary)
				a.metrics.ObserveSteps(step)
				return summary, nil
			}

			if tools.IsBrowserMutating(tc.Name) {
				time.Sleep(time.Duration(a.cfg.Agent.WaitAfterActionMS) * time.Millisecond)
			}

			enriched := result
			if tools.ChangesPage(tc.Name) {
				enriched = fmt.Sprintf("%s\n\n当前页面 URL: %s\n\n%s", result, a.currentURL(ctx), a.observe(ctx))
			}

			a.sinks.toolCall(tc.Name, args, result)
			a.messages = append(a.messages, models.Message{
				Role:       models.RoleTool,
				ToolCallID: tc.ID,
				Content:    enriched,
			})
		}

		a.messages = compressTranscript(a.messages, a.cfg.Agent.ContextMaxMessages)
	}

	a.metrics.ObserveSteps(maxSteps)
	return stepCapMessage, nil
}

// observe renders the current page state, shrinking any failure to an
// error line the model can react to.
func (a *Agent) observe(ctx context.Context) string {
	obs, err := a.snap.GetObservation(ctx)
	if err != nil {
		a.log.Warn("observation failed", "error", err)
		return "(获取页面快照失败: " + err.Error() + ")"
	}
	return obs.Text
}

func (a *Agent) currentURL(ctx context.Context) string {
	url, err := a.page.CurrentURL(ctx)
	if err != nil {
		return "(未知)"
	}
	return url
}

// AddMessage appends a raw message to the transcript, for hosts that seed
// context between turns.
func (a *Agent) AddMessage(role, content string) {
	a.messages = append(a.messages, models.Message{Role: models.Role(role), Content: content})
}

// Messages exposes a copy of the transcript for inspection.
func (a *Agent) Messages() []models.Message {
	return append([]models.Message(nil), a.messages...)
}

// Reset drops conversation state, invalidates the snapshot engine,
// clears terminal capture and SSH session state, and removes the
// large-response cache.
func (a *Agent) Reset(ctx context.Context) {
	a.messages = nil
	a.snap.Reset()
	if err := a.capture.Reset(ctx); err != nil {
		a.log.Debug("terminal capture reset", "error", err)
	}
	a.executor.Reset()
	a.executor.Cleanup()
}

// Close releases process-level resources. Call on teardown.
func (a *Agent) Close() {
	a.executor.Cleanup()
}
