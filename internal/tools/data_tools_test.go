package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cassiaops/acagent/internal/config"
)

func testExecutor(t *testing.T) *Executor {
	t.Helper()
	e := &Executor{
		cfg:        config.WithDefaults(config.Config{}),
		sess:       &session{},
		reportsDir: t.TempDir(),
		registry:   NewRegistry(),
	}
	e.registerDataTools()
	t.Cleanup(e.Cleanup)
	return e
}

func TestCacheOverwriteUnlinksPrevious(t *testing.T) {
	e := testExecutor(t)

	first, err := e.storeCache([]any{"a", "b"})
	if err != nil {
		t.Fatalf("storeCache: %v", err)
	}
	second, err := e.storeCache([]any{"c"})
	if err != nil {
		t.Fatalf("storeCache: %v", err)
	}
	if first == second {
		t.Fatal("cache paths should be unique per store")
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Errorf("previous cache file %s still present", first)
	}
	if _, err := os.Stat(second); err != nil {
		t.Errorf("current cache file %s missing: %v", second, err)
	}
}

func TestCacheCleanupRemovesFile(t *testing.T) {
	e := testExecutor(t)
	path, err := e.storeCache([]any{"x"})
	if err != nil {
		t.Fatalf("storeCache: %v", err)
	}
	e.Cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cache file %s survived Cleanup", path)
	}
	// Idempotent.
	e.Cleanup()
}

func TestSearchDataNoCache(t *testing.T) {
	e := testExecutor(t)
	result, err := e.registry.Execute(context.Background(), "search_data", `{"keyword":"foo"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(result, "错误:") {
		t.Errorf("result = %q, want NoCache error string", result)
	}
}

func TestSearchDataKeywordMatching(t *testing.T) {
	e := testExecutor(t)
	items := []any{
		map[string]any{"mac": "AA:BB", "status": "disconnected"},
		map[string]any{"mac": "CC:DD", "status": "online"},
		"plain Disconnected text",
		map[string]any{"mac": "EE:FF", "status": "offline"},
	}
	if _, err := e.storeCache(items); err != nil {
		t.Fatalf("storeCache: %v", err)
	}

	result, err := e.registry.Execute(context.Background(), "search_data", `{"keyword":"disconnected,offline"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result, "共匹配 3 条") {
		t.Errorf("result = %q, want 3 total matches", result)
	}
	if strings.Contains(result, "CC:DD") {
		t.Errorf("result = %q, contains non-matching record", result)
	}
}

func TestSearchDataMaxResults(t *testing.T) {
	e := testExecutor(t)
	items := make([]any, 10)
	for i := range items {
		items[i] = map[string]any{"kind": "widget"}
	}
	if _, err := e.storeCache(items); err != nil {
		t.Fatalf("storeCache: %v", err)
	}

	result, err := e.registry.Execute(context.Background(), "search_data", `{"keyword":"widget","max_results":3}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result, "共匹配 10 条") || !strings.Contains(result, "显示前 3 条") {
		t.Errorf("result = %q, want total 10 with 3 shown", result)
	}
}

func TestWriteLocalFileSanitizesPath(t *testing.T) {
	e := testExecutor(t)
	result, err := e.registry.Execute(context.Background(), "write_local_file",
		`{"filename":"../../etc/evil.txt","content":"x"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.HasPrefix(result, "错误:") {
		t.Fatalf("unexpected error result: %q", result)
	}
	want := filepath.Join(e.reportsDir, "evil.txt")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("sanitized file not at %s: %v", want, err)
	}
	if _, err := os.Stat(filepath.Join(e.reportsDir, "..", "..", "etc", "evil.txt")); err == nil {
		t.Error("file escaped the reports directory")
	}
}
