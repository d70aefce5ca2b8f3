// Package observability provides the structured logger and the Prometheus
// metrics the agent core reports through. Hosts decide whether to expose
// the metrics registry over HTTP; the core only increments.
package observability

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// LogConfig configures logger construction.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// Format is "json" or "text".
	Format string

	// Output defaults to os.Stderr so log lines never interleave with the
	// streamed model output on stdout.
	Output io.Writer
}

// redactPatterns covers the secrets this agent handles: the LLM API key,
// the AC password, and the gateway su password, in key=value or key: value
// shape.
var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|password|passwd|su_password|token)[\s:=]+\S+`),
	regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{8,}`),
}

// Redact masks secret-bearing substrings in s before it reaches a log line
// or an error string the model will see.
func Redact(s string) string {
	for _, re := range redactPatterns {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			if i := strings.IndexAny(m, ":= \t"); i > 0 {
				return m[:i] + "=[REDACTED]"
			}
			return "[REDACTED]"
		})
	}
	return s
}

// NewLogger builds a slog.Logger per cfg. Zero-valued fields get sensible
// defaults (info level, text format, stderr).
func NewLogger(cfg LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}
