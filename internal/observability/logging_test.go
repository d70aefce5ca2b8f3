package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		in       string
		mustHide string
	}{
		{"api_key=sk-abc123def456ghi", "sk-abc123def456ghi"},
		{"su_password: hunter22secret", "hunter22secret"},
		{"token = eyJhbGciOiJIUzI1NiJ9", "eyJhbGciOiJIUzI1NiJ9"},
	}
	for _, tt := range tests {
		got := Redact(tt.in)
		if strings.Contains(got, tt.mustHide) {
			t.Errorf("Redact(%q) = %q, still contains secret", tt.in, got)
		}
		if !strings.Contains(got, "[REDACTED]") {
			t.Errorf("Redact(%q) = %q, missing redaction marker", tt.in, got)
		}
	}
}

func TestRedactLeavesPlainText(t *testing.T) {
	in := "fetch gateways returned 12 entries"
	if got := Redact(in); got != in {
		t.Errorf("Redact(%q) = %q, want unchanged", in, got)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Output: &buf})

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Format: "json", Output: &buf})
	log.Info("hello", "tool", "browser_click")
	if !strings.Contains(buf.String(), `"tool":"browser_click"`) {
		t.Errorf("json output missing structured field: %q", buf.String())
	}
}
