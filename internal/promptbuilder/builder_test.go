package promptbuilder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cassiaops/acagent/internal/config"
)

func TestBuildWithoutSpecFiles(t *testing.T) {
	cfg := config.Config{BaseURL: "https://ac.example.com"}
	prompt := Build(cfg)

	if !strings.Contains(prompt, "https://ac.example.com") {
		t.Error("prompt missing base URL")
	}
	if !strings.Contains(prompt, "ref 编号") {
		t.Error("prompt missing snapshot format section")
	}
	if strings.Contains(prompt, "HTTP API 参考") {
		t.Error("API section present despite no spec file")
	}
	if strings.Contains(prompt, "Cassia CLI 参考") {
		t.Error("CLI section present despite no spec file")
	}
	if !strings.Contains(prompt, "EST_TYP_A") {
		t.Error("prompt missing eMMC knowledge section")
	}
}

func TestBuildWithAPISpec(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "api.json")
	spec := `{
		"apis": [
			{"name": "网关列表", "method": "GET", "path": "/ap", "description": "获取网关列表\n详细说明..."},
			{"name": "事件查询", "method": "GET", "path": "/event", "description": "查询事件日志"}
		],
		"authentication": {"type": "session"}
	}`
	if err := os.WriteFile(specPath, []byte(spec), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{BaseURL: "https://ac.example.com"}
	cfg.PromptSpecs.APISpecJSON = specPath
	prompt := Build(cfg)

	if !strings.Contains(prompt, "**GET /ap** (网关列表): 获取网关列表") {
		t.Errorf("API line missing or multi-line description leaked: %q", section(prompt, "HTTP API"))
	}
	if strings.Contains(prompt, "详细说明") {
		t.Error("description not truncated to first line")
	}
	if !strings.Contains(prompt, "自动处理 CSRF token") {
		t.Error("authentication note missing")
	}
}

func TestBuildWithCLISpec(t *testing.T) {
	dir := t.TempDir()
	cliPath := filepath.Join(dir, "cli.yaml")
	var b strings.Builder
	b.WriteString("- name: container\n  description: 容器管理\n")
	for i := 0; i < 35; i++ {
		b.WriteString("- name: tool-x\n  description: 占位工具\n")
	}
	if err := os.WriteFile(cliPath, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{}
	cfg.PromptSpecs.CLIToolsYAML = cliPath
	prompt := Build(cfg)

	if !strings.Contains(prompt, "`container`: 容器管理") {
		t.Error("CLI tool entry missing")
	}
	if !strings.Contains(prompt, "共 36 个工具") {
		t.Error("overflow note missing for >30 tools")
	}
}

func TestBuildMissingFilesNonFatal(t *testing.T) {
	cfg := config.Config{}
	cfg.PromptSpecs.APISpecJSON = "/nonexistent/api.json"
	cfg.PromptSpecs.CLIToolsYAML = "/nonexistent/cli.yaml"

	prompt := Build(cfg)
	if prompt == "" {
		t.Fatal("prompt empty when spec files missing")
	}
	if strings.Contains(prompt, "HTTP API 参考") || strings.Contains(prompt, "CLI 参考") {
		t.Error("sections present for unreadable files")
	}
}

// section extracts a rough window around marker for error messages.
func section(s, marker string) string {
	i := strings.Index(s, marker)
	if i < 0 {
		return "(absent)"
	}
	end := i + 400
	if end > len(s) {
		end = len(s)
	}
	return s[i:end]
}
