package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cassiaops/acagent/internal/acapi"
)

const (
	// maxInlineResponse caps how much pretty-printed API output reaches
	// the transcript before truncation.
	maxInlineResponse = 15 * 1024

	truncationMarker = "\n...(输出过长，已截断)"

	cacheSampleCount = 5
)

// listFieldKeys are the container keys ac_api_call probes when a JSON
// object wraps its payload in a list field.
var listFieldKeys = []string{"data", "items", "list", "results", "rows"}

func (e *Executor) registerACTools() {
	e.registry.Register(Def{
		Name:        "fetch_gateways",
		Description: "获取网关列表。status 可选 all/online/offline，默认 all。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"status":{"type":"string","enum":["all","online","offline"]}}}`),
		Handler:     e.handleFetchGateways,
	})

	e.registry.Register(Def{
		Name:        "ac_api_call",
		Description: "调用 AC HTTP API。method 支持 GET/POST/PUT/DELETE；path 为接口路径（如 /event）；body/query 可选。",
		Schema: json.RawMessage(`{"type":"object","properties":{
			"method":{"type":"string","enum":["GET","POST","PUT","DELETE"]},
			"path":{"type":"string"},
			"body":{"type":"object"},
			"query":{"type":"object"}
		},"required":["method","path"]}`),
		Handler: e.handleACAPICall,
	})
}

func (e *Executor) handleFetchGateways(ctx context.Context, args map[string]any) (string, error) {
	status := acapi.GatewayAll
	if s, ok := argString(args, "status"); ok && s != "" {
		switch acapi.GatewayStatus(s) {
		case acapi.GatewayAll, acapi.GatewayOnline, acapi.GatewayOffline:
			status = acapi.GatewayStatus(s)
		default:
			return "", fmt.Errorf("status 必须是 all/online/offline，收到 %q", s)
		}
	}

	gws, err := e.ac.FetchGateways(ctx, status, e.cfg.TimeoutPageLoad)
	if err != nil {
		return "", err
	}
	for _, g := range gws {
		e.gatewayModels.Store(strings.ToUpper(g.MAC), g.Model)
	}

	out, err := json.MarshalIndent(gws, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化网关列表: %w", err)
	}
	return fmt.Sprintf("共 %d 个网关:\n%s", len(gws), out), nil
}

func (e *Executor) handleACAPICall(ctx context.Context, args map[string]any) (string, error) {
	method, err := requireString(args, "method")
	if err != nil {
		return "", err
	}
	method = strings.ToUpper(method)
	path, err := requireString(args, "path")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body map[string]any
	if b, ok := args["body"].(map[string]any); ok {
		body = b
	}
	query := map[string]string{}
	if q, ok := args["query"].(map[string]any); ok {
		for k, v := range q {
			query[k] = fmt.Sprint(v)
		}
	}

	result, err := e.ac.Call(ctx, method, path, body, query, e.cfg.TimeoutPageLoad)
	if err != nil {
		return "", err
	}
	if !result.OK {
		return "", fmt.Errorf("%s %s 返回 HTTP %d: %s: %w", method, path, result.Status, snippet(result.Text, 500), ErrAPIError)
	}

	return e.renderAPIResponse(result.Text)
}

// renderAPIResponse decides between inline pretty-print, truncation, and
// the large-response cache divert.
func (e *Executor) renderAPIResponse(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "(空响应)", nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return snippet(trimmed, maxInlineResponse), nil
	}

	maxItems := e.cfg.Agent.MaxResponseItems

	if arr, ok := parsed.([]any); ok && len(arr) > maxItems {
		return e.divertToCache(arr)
	}
	if obj, ok := parsed.(map[string]any); ok {
		for _, key := range listFieldKeys {
			if arr, ok := obj[key].([]any); ok && len(arr) > maxItems {
				return e.divertToCache(arr)
			}
		}
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return snippet(trimmed, maxInlineResponse), nil
	}
	return snippet(string(pretty), maxInlineResponse), nil
}

// divertToCache writes items to the large-response cache file and returns
// the cached-notice message with a small sample.
func (e *Executor) divertToCache(items []any) (string, error) {
	path, err := e.storeCache(items)
	if err != nil {
		return "", err
	}

	sampleN := cacheSampleCount
	if sampleN > len(items) {
		sampleN = len(items)
	}
	sample, err := json.MarshalIndent(items[:sampleN], "", "  ")
	if err != nil {
		sample = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "共 %d 条数据，数据量较大，已缓存到本地。\n", len(items))
	fmt.Fprintf(&b, "缓存文件: %s\n", path)
	fmt.Fprintf(&b, "前 %d 条样例:\n%s\n", sampleN, sample)
	b.WriteString("使用 search_data(keyword) 按关键词搜索缓存数据。")
	return b.String(), nil
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + truncationMarker
}
