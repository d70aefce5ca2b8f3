package reactagent

import (
	"strings"

	"github.com/cassiaops/acagent/pkg/models"
)

const (
	summaryHeader       = "[历史摘要]"
	instructionPrefix   = "用户指令:"
	assistantSummaryCap = 100
)

// compressTranscript shrinks a transcript that grew past maxMessages. The
// cut happens at the first user message at or after len-maxMessages/2,
// so an assistant message carrying tool_calls is never separated from its
// tool results. The dropped prefix collapses into one synthetic user
// message summarizing instructions, assistant text, and tool-call names.
func compressTranscript(messages []models.Message, maxMessages int) []models.Message {
	if maxMessages <= 0 || len(messages) <= maxMessages {
		return messages
	}

	keepTarget := maxMessages / 2
	candidate := len(messages) - keepTarget
	if candidate <= 0 {
		return messages
	}

	cut := 0
	for i := candidate; i < len(messages); i++ {
		if messages[i].Role == models.RoleUser {
			cut = i
			break
		}
	}
	if cut <= 0 {
		return messages
	}

	dropped := messages[:cut]
	kept := messages[cut:]

	var parts []string
	for _, m := range dropped {
		switch m.Role {
		case models.RoleUser:
			if idx := strings.Index(m.Content, instructionPrefix); idx >= 0 {
				line := m.Content[idx+len(instructionPrefix):]
				if nl := strings.IndexByte(line, '\n'); nl >= 0 {
					line = line[:nl]
				}
				parts = append(parts, "用户: "+strings.TrimSpace(line))
			}
		case models.RoleAssistant:
			if m.Content != "" {
				text := m.Content
				if len(text) > assistantSummaryCap {
					text = firstRunes(text, assistantSummaryCap)
				}
				parts = append(parts, "助手: "+text)
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, "工具调用: "+tc.Name)
			}
		}
	}

	out := make([]models.Message, 0, len(kept)+1)
	if len(parts) > 0 {
		out = append(out, models.Message{
			Role:    models.RoleUser,
			Content: summaryHeader + "\n" + strings.Join(parts, "\n"),
		})
	}
	return append(out, kept...)
}

// firstRunes truncates s to at most n runes without splitting a
// multi-byte character.
func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
