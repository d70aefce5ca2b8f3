package reactagent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cassiaops/acagent/pkg/models"
)

// buildTurns produces n user turns, each followed by an assistant message
// with a tool call and its tool result.
func buildTurns(n int) []models.Message {
	var msgs []models.Message
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			models.Message{Role: models.RoleUser, Content: fmt.Sprintf("用户指令: 任务 %d\n\n[页面快照]", i)},
			models.Message{
				Role:      models.RoleAssistant,
				Content:   fmt.Sprintf("思考 %d", i),
				ToolCalls: []models.ToolCall{{ID: fmt.Sprintf("call-%d", i), Name: "browser_click", Arguments: "{}"}},
			},
			models.Message{Role: models.RoleTool, ToolCallID: fmt.Sprintf("call-%d", i), Content: "已点击"},
		)
	}
	return msgs
}

// verifyPairing checks the transcript invariant: every tool message's
// tool_call_id is declared by the nearest preceding assistant message.
func verifyPairing(t *testing.T, msgs []models.Message) {
	t.Helper()
	declared := map[string]bool{}
	for _, m := range msgs {
		switch m.Role {
		case models.RoleAssistant:
			declared = map[string]bool{}
			for _, tc := range m.ToolCalls {
				declared[tc.ID] = true
			}
		case models.RoleTool:
			if !declared[m.ToolCallID] {
				t.Fatalf("tool message %q has no preceding assistant declaring its id", m.ToolCallID)
			}
		}
	}
}

func TestCompressNoopUnderLimit(t *testing.T) {
	msgs := buildTurns(3)
	got := compressTranscript(msgs, 40)
	if len(got) != len(msgs) {
		t.Errorf("compressed %d -> %d messages, want unchanged", len(msgs), len(got))
	}
}

func TestCompressPreservesToolPairing(t *testing.T) {
	msgs := buildTurns(20) // 60 messages
	got := compressTranscript(msgs, 40)

	if len(got) >= len(msgs) {
		t.Fatalf("compression did not shrink: %d -> %d", len(msgs), len(got))
	}
	verifyPairing(t, got)

	if got[0].Role != models.RoleUser || !strings.HasPrefix(got[0].Content, summaryHeader) {
		t.Errorf("first message should be the synthetic summary, got role=%s content=%q", got[0].Role, got[0].Content)
	}
	if !strings.Contains(got[0].Content, "用户: 任务 0") {
		t.Errorf("summary missing instruction line: %q", got[0].Content)
	}
	if !strings.Contains(got[0].Content, "工具调用: browser_click") {
		t.Errorf("summary missing tool-call names: %q", got[0].Content)
	}
}

func TestCompressCutsAtUserBoundary(t *testing.T) {
	msgs := buildTurns(20)
	got := compressTranscript(msgs, 40)

	// After the summary, the retained tail must start at a user message.
	if len(got) < 2 || got[1].Role != models.RoleUser {
		t.Fatalf("message after summary has role %s, want user", got[1].Role)
	}
}

func TestCompressNoUserBoundaryLeavesUnchanged(t *testing.T) {
	// A transcript whose only user message is at index 0 cannot be cut.
	msgs := []models.Message{{Role: models.RoleUser, Content: "用户指令: 唯一"}}
	for i := 0; i < 30; i++ {
		msgs = append(msgs,
			models.Message{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: fmt.Sprintf("c%d", i), Name: "browser_wait"}}},
			models.Message{Role: models.RoleTool, ToolCallID: fmt.Sprintf("c%d", i), Content: "ok"},
		)
	}
	got := compressTranscript(msgs, 10)
	if len(got) != len(msgs) {
		t.Errorf("transcript with no safe cut point should stay unchanged: %d -> %d", len(msgs), len(got))
	}
}

func TestCompressTruncatesAssistantContentByRunes(t *testing.T) {
	long := strings.Repeat("长", 150)
	msgs := []models.Message{
		{Role: models.RoleUser, Content: "用户指令: 第一"},
		{Role: models.RoleAssistant, Content: long},
		{Role: models.RoleUser, Content: "用户指令: 第二"},
	}
	for i := 0; i < 10; i++ {
		msgs = append(msgs, models.Message{Role: models.RoleAssistant, Content: fmt.Sprintf("回复 %d", i)})
	}
	msgs = append(msgs, models.Message{Role: models.RoleUser, Content: "用户指令: 第三"})
	got := compressTranscript(msgs, 6)
	verifyPairing(t, got)

	summary := got[0].Content
	if !strings.Contains(summary, "助手: ") {
		t.Fatalf("summary missing assistant line: %q", summary)
	}
	if strings.Contains(summary, long) {
		t.Error("assistant content not truncated in summary")
	}
	for _, r := range summary {
		if r == '�' {
			t.Fatal("summary contains a split multi-byte rune")
		}
	}
}
