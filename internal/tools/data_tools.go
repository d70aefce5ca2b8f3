package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultSearchResults = 50

func (e *Executor) registerDataTools() {
	e.registry.Register(Def{
		Name:        "search_data",
		Description: "按关键词搜索上次 ac_api_call 缓存的大量数据。keyword 支持逗号分隔多个关键词（任一命中即匹配）。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"keyword":{"type":"string"},"max_results":{"type":"integer"}},"required":["keyword"]}`),
		Handler:     e.handleSearchData,
	})

	e.registry.Register(Def{
		Name:        "write_local_file",
		Description: "将文本内容写入本地 reports/ 目录，用于保存报告或导出结果。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"filename":{"type":"string"},"content":{"type":"string"}},"required":["filename","content"]}`),
		Handler:     e.handleWriteLocalFile,
	})
}

// storeCache persists items as the process's single large-response cache
// file, unlinking any previous one first.
func (e *Executor) storeCache(items []any) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("序列化缓存数据: %w", err)
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if e.cachePath != "" {
		_ = os.Remove(e.cachePath)
	}
	path := newCachePath()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("写入缓存文件: %w", err)
	}
	e.cachePath = path
	e.cacheN = len(items)
	return path, nil
}

// readCache loads the cached element list, or ErrNoCache when no API call
// has diverted a large response yet.
func (e *Executor) readCache() ([]any, error) {
	e.cacheMu.Lock()
	path := e.cachePath
	e.cacheMu.Unlock()

	if path == "" {
		return nil, fmt.Errorf("尚无缓存数据，请先调用 ac_api_call: %w", ErrNoCache)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取缓存文件: %w", ErrNoCache)
	}
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("解析缓存文件: %w", ErrNoCache)
	}
	return items, nil
}

func (e *Executor) handleSearchData(ctx context.Context, args map[string]any) (string, error) {
	keyword, err := requireString(args, "keyword")
	if err != nil {
		return "", err
	}
	maxResults := argInt(args, "max_results", defaultSearchResults)
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}

	items, err := e.readCache()
	if err != nil {
		return "", err
	}

	var keywords []string
	for _, k := range strings.Split(keyword, ",") {
		if k = strings.TrimSpace(strings.ToLower(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return "", fmt.Errorf("关键词为空")
	}

	var matches []any
	total := 0
	for _, item := range items {
		text := itemText(item)
		if containsAny(strings.ToLower(text), keywords) {
			total++
			if len(matches) < maxResults {
				matches = append(matches, item)
			}
		}
	}

	if total == 0 {
		return fmt.Sprintf("未找到匹配 %q 的记录（共搜索 %d 条）", keyword, len(items)), nil
	}

	out, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化搜索结果: %w", err)
	}
	return fmt.Sprintf("共匹配 %d 条（显示前 %d 条）:\n%s", total, len(matches), out), nil
}

// itemText is what keyword matching runs against: the element itself when
// it is a string, its JSON serialization otherwise.
func itemText(item any) string {
	if s, ok := item.(string); ok {
		return s
	}
	data, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(data)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func (e *Executor) handleWriteLocalFile(ctx context.Context, args map[string]any) (string, error) {
	filename, err := requireString(args, "filename")
	if err != nil {
		return "", err
	}
	content, _ := argString(args, "content")

	// Basename only: the model must not escape reports/.
	filename = filepath.Base(filepath.Clean(filename))
	if filename == "." || filename == ".." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("非法文件名 %q", filename)
	}

	path := filepath.Join(e.reportsDir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("写入 %s: %w", path, ErrIOError)
	}
	return fmt.Sprintf("已写入 %s (%d 字节)", path, len(content)), nil
}
