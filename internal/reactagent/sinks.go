// Package reactagent drives the ReAct loop: observe the page, stream a
// model call, dispatch tool calls, append observations, compress the
// transcript, repeat until done.
package reactagent

// Sinks is the capability record a host passes at construction to receive
// the agent's streamed output and tool activity. Every field is optional;
// absent sinks are no-ops. The host owns thread marshaling: sink
// invocations happen on the agent's goroutine.
type Sinks struct {
	// OnThinking delivers the full assistant text at once, used by the
	// non-streaming fallback path.
	OnThinking func(text string)

	// OnThinkingChunk delivers assistant content deltas in model order.
	OnThinkingChunk func(chunk string)

	// OnReasoningChunk delivers reasoning_content deltas, each stream's
	// chunks arriving before the first content chunk of the same message.
	OnReasoningChunk func(chunk string)

	// OnThinkingStreamStart fires before the first content chunk of a
	// message.
	OnThinkingStreamStart func()

	// OnThinkingStreamEnd fires after a message's content stream finishes,
	// with the assembled text.
	OnThinkingStreamEnd func(fullContent string)

	// OnToolCall reports a completed tool dispatch.
	OnToolCall func(name string, args map[string]any, result string)
}

func (s Sinks) thinking(text string) {
	if s.OnThinking != nil {
		s.OnThinking(text)
	}
}

func (s Sinks) thinkingChunk(chunk string) {
	if s.OnThinkingChunk != nil {
		s.OnThinkingChunk(chunk)
	}
}

func (s Sinks) reasoningChunk(chunk string) {
	if s.OnReasoningChunk != nil {
		s.OnReasoningChunk(chunk)
	}
}

func (s Sinks) streamStart() {
	if s.OnThinkingStreamStart != nil {
		s.OnThinkingStreamStart()
	}
}

func (s Sinks) streamEnd(fullContent string) {
	if s.OnThinkingStreamEnd != nil {
		s.OnThinkingStreamEnd(fullContent)
	}
}

func (s Sinks) toolCall(name string, args map[string]any, result string) {
	if s.OnToolCall != nil {
		s.OnToolCall(name, args, result)
	}
}
