package reactagent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cassiaops/acagent/internal/config"
	"github.com/cassiaops/acagent/internal/observability"
	"github.com/cassiaops/acagent/pkg/models"
)

// streamInterruptedMarker is surfaced through the chunk sink when the SSE
// stream dies mid-message; whatever accumulated is still used.
const streamInterruptedMarker = "\n[流式传输中断]\n"

// llmResult is the assembled outcome of one model call, independent of
// whether it arrived streamed or whole.
type llmResult struct {
	content   string
	toolCalls []models.ToolCall
	message   models.Message
}

// completer is the one seam between the loop and the model transport, so
// tests can drive the loop without a network.
type completer interface {
	complete(ctx context.Context, transcript []models.Message) (llmResult, error)
}

// openaiCompleter talks to an OpenAI-compatible endpoint with streaming,
// falling back on parameter and transport rejections.
type openaiCompleter struct {
	log     *slog.Logger
	metrics *observability.Metrics
	client  *openai.Client
	model   string

	// temperature is dropped entirely once a provider rejects it; kimi
	// models never get one to begin with.
	temperature    float32
	useTemperature bool

	systemPrompt string
	tools        []openai.Tool
	sinks        Sinks
}

func newOpenAICompleter(log *slog.Logger, metrics *observability.Metrics, llmCfg config.LLMConfig, systemPrompt string, tools []openai.Tool, sinks Sinks) *openaiCompleter {
	clientCfg := openai.DefaultConfig(llmCfg.APIKey)
	if llmCfg.BaseURL != "" {
		clientCfg.BaseURL = llmCfg.BaseURL
	}

	useTemp := !strings.Contains(strings.ToLower(llmCfg.Model), "kimi")
	return &openaiCompleter{
		log:            log,
		metrics:        metrics,
		client:         openai.NewClientWithConfig(clientCfg),
		model:          llmCfg.Model,
		temperature:    float32(llmCfg.Temperature),
		useTemperature: useTemp,
		systemPrompt:   systemPrompt,
		tools:          tools,
		sinks:          sinks,
	}
}

func (c *openaiCompleter) request(transcript []models.Message) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.systemPrompt,
	})
	for _, m := range transcript {
		msgs = append(msgs, toOpenAIMessage(m))
	}

	req := openai.ChatCompletionRequest{
		Model:      c.model,
		Messages:   msgs,
		Tools:      c.tools,
		ToolChoice: "auto",
	}
	if c.useTemperature && c.temperature > 0 {
		req.Temperature = c.temperature
	}
	return req
}

func toOpenAIMessage(m models.Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:             string(m.Role),
		Content:          m.Content,
		ReasoningContent: m.ReasoningContent,
		ToolCallID:       m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return out
}

func (c *openaiCompleter) complete(ctx context.Context, transcript []models.Message) (llmResult, error) {
	start := time.Now()
	res, err := c.completeStream(ctx, transcript)
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveLLMRequest(c.model, status, time.Since(start).Seconds())
	return res, err
}

func (c *openaiCompleter) completeStream(ctx context.Context, transcript []models.Message) (llmResult, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(transcript))
	if err != nil {
		return c.recoverCreateError(ctx, transcript, err)
	}
	defer stream.Close()

	// Accumulation state: content and reasoning build up as strings,
	// tool-call fragments merge per delta index.
	var content, reasoning strings.Builder
	acc := map[int]*models.ToolCall{}
	var indexes []int
	startedThinking := false

	for {
		resp, recvErr := stream.Recv()
		if recvErr != nil {
			if errors.Is(recvErr, io.EOF) {
				break
			}
			c.log.Warn("stream interrupted", "error", recvErr)
			if startedThinking {
				c.sinks.thinkingChunk(streamInterruptedMarker)
			}
			break
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.ReasoningContent != "" {
			reasoning.WriteString(delta.ReasoningContent)
			c.sinks.reasoningChunk(delta.ReasoningContent)
		}

		if delta.Content != "" {
			if !startedThinking {
				startedThinking = true
				c.sinks.streamStart()
				c.sinks.thinkingChunk("\n")
			}
			content.WriteString(delta.Content)
			c.sinks.thinkingChunk(delta.Content)
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			entry, ok := acc[idx]
			if !ok {
				entry = &models.ToolCall{}
				acc[idx] = entry
				indexes = append(indexes, idx)
			}
			if tc.ID != "" {
				entry.ID = tc.ID
			}
			if tc.Function.Name != "" {
				entry.Name = tc.Function.Name
			}
			entry.Arguments += tc.Function.Arguments
		}
	}

	if startedThinking {
		c.sinks.thinkingChunk("\n")
		c.sinks.streamEnd(content.String())
	}

	sort.Ints(indexes)
	toolCalls := make([]models.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		toolCalls = append(toolCalls, *acc[idx])
	}

	return assembleResult(content.String(), reasoning.String(), toolCalls), nil
}

// recoverCreateError applies the two provider-quirk fallbacks: drop the
// temperature parameter, then fall back to a non-streaming call.
func (c *openaiCompleter) recoverCreateError(ctx context.Context, transcript []models.Message, err error) (llmResult, error) {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "temperature") && c.useTemperature {
		c.log.Warn("provider rejected temperature, retrying without it")
		c.useTemperature = false
		return c.completeStream(ctx, transcript)
	}
	if strings.Contains(msg, "stream") {
		c.log.Warn("provider rejected streaming, falling back to non-streaming call")
		return c.completeBlocking(ctx, transcript)
	}
	return llmResult{}, err
}

// completeBlocking is the non-streaming fallback; it synthesizes the same
// result shape and delivers the text through the whole-message sink.
func (c *openaiCompleter) completeBlocking(ctx context.Context, transcript []models.Message) (llmResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(transcript))
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "temperature") && c.useTemperature {
			c.useTemperature = false
			return c.completeBlocking(ctx, transcript)
		}
		return llmResult{}, err
	}
	if len(resp.Choices) == 0 {
		return llmResult{}, errors.New("reactagent: empty choices from provider")
	}

	choice := resp.Choices[0].Message
	if choice.Content != "" {
		c.sinks.thinking(choice.Content)
	}

	toolCalls := make([]models.ToolCall, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		toolCalls = append(toolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return assembleResult(choice.Content, choice.ReasoningContent, toolCalls), nil
}

// assembleResult builds the transcript-ready assistant message. Fields are
// only set when non-empty so providers that reject null content never see
// it; reasoning_content is preserved because some providers require its
// echo on the next request.
func assembleResult(content, reasoning string, toolCalls []models.ToolCall) llmResult {
	msg := models.Message{Role: models.RoleAssistant}
	if content != "" {
		msg.Content = content
	}
	if reasoning != "" {
		msg.ReasoningContent = reasoning
	}
	if len(toolCalls) > 0 {
		msg.ToolCalls = toolCalls
	}
	return llmResult{content: content, toolCalls: toolCalls, message: msg}
}
