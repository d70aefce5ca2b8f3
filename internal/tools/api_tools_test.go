package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestRenderAPIResponseLargeArrayDiverts(t *testing.T) {
	e := testExecutor(t)

	items := make([]any, 250)
	for i := range items {
		items[i] = map[string]any{"id": i}
	}
	raw, _ := json.Marshal(items)

	result, err := e.renderAPIResponse(string(raw))
	if err != nil {
		t.Fatalf("renderAPIResponse: %v", err)
	}
	if !strings.HasPrefix(result, "共 250 条数据，数据量较大，已缓存到本地。") {
		t.Errorf("result = %q, want cached-notice prefix", result)
	}
	if !strings.Contains(result, `"id": 4`) {
		t.Errorf("result missing 5-entry sample: %q", result)
	}
	if strings.Contains(result, `"id": 5`) {
		t.Errorf("sample larger than 5 entries: %q", result)
	}

	// The cache must now be searchable.
	matches, cerr := e.readCache()
	if cerr != nil {
		t.Fatalf("readCache: %v", cerr)
	}
	if len(matches) != 250 {
		t.Errorf("cached %d items, want 250", len(matches))
	}
}

func TestRenderAPIResponseContainerListDiverts(t *testing.T) {
	e := testExecutor(t)

	items := make([]any, 150)
	for i := range items {
		items[i] = fmt.Sprintf("event-%d", i)
	}
	raw, _ := json.Marshal(map[string]any{"code": 0, "data": items})

	result, err := e.renderAPIResponse(string(raw))
	if err != nil {
		t.Fatalf("renderAPIResponse: %v", err)
	}
	if !strings.HasPrefix(result, "共 150 条数据") {
		t.Errorf("result = %q, want divert on data field", result)
	}
}

func TestRenderAPIResponseSmallInline(t *testing.T) {
	e := testExecutor(t)
	result, err := e.renderAPIResponse(`{"status":"ok","count":3}`)
	if err != nil {
		t.Fatalf("renderAPIResponse: %v", err)
	}
	if !strings.Contains(result, `"status": "ok"`) {
		t.Errorf("result = %q, want pretty-printed JSON", result)
	}
}

func TestRenderAPIResponseTruncatesHuge(t *testing.T) {
	e := testExecutor(t)
	big := map[string]any{"blob": strings.Repeat("x", 20*1024)}
	raw, _ := json.Marshal(big)

	result, err := e.renderAPIResponse(string(raw))
	if err != nil {
		t.Fatalf("renderAPIResponse: %v", err)
	}
	if !strings.Contains(result, "已截断") {
		t.Error("oversized response missing truncation marker")
	}
	if len(result) > maxInlineResponse+len(truncationMarker) {
		t.Errorf("result length %d exceeds cap", len(result))
	}
}

func TestRenderAPIResponseNonJSON(t *testing.T) {
	e := testExecutor(t)
	result, err := e.renderAPIResponse("plain text body")
	if err != nil {
		t.Fatalf("renderAPIResponse: %v", err)
	}
	if result != "plain text body" {
		t.Errorf("result = %q, want passthrough", result)
	}
}
