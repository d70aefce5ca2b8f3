package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func echoArgs(t *testing.T) (*Registry, *map[string]any) {
	t.Helper()
	var got map[string]any
	r := NewRegistry()
	r.Register(Def{
		Name:   "echo",
		Schema: json.RawMessage(`{"type":"object","properties":{"msg":{"type":"string"}},"required":["msg"]}`),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			got = args
			return "ok", nil
		},
	})
	return r, &got
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	result, err := r.Execute(context.Background(), "nope", "{}")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.HasPrefix(result, "错误:") {
		t.Errorf("result = %q, want 错误: prefix", result)
	}
}

func TestRegistryMalformedArgsDispatchEmpty(t *testing.T) {
	var got map[string]any
	r := NewRegistry()
	r.Register(Def{
		Name: "noschema",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			got = args
			return "ok", nil
		},
	})

	result, err := r.Execute(context.Background(), "noschema", "{not json")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok (malformed args must still dispatch)", result)
	}
	if len(got) != 0 {
		t.Errorf("args = %v, want empty map", got)
	}
}

func TestRegistrySchemaValidationRejects(t *testing.T) {
	r, got := echoArgs(t)

	result, err := r.Execute(context.Background(), "echo", `{"msg": 42}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.HasPrefix(result, "错误:") {
		t.Errorf("result = %q, want schema-violation error string", result)
	}
	if *got != nil {
		t.Error("handler ran despite schema violation")
	}
}

func TestRegistrySchemaValidationAccepts(t *testing.T) {
	r, got := echoArgs(t)

	result, err := r.Execute(context.Background(), "echo", `{"msg":"hello"}`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if (*got)["msg"] != "hello" {
		t.Errorf("args = %v, want msg=hello", *got)
	}
}

func TestRegistryHandlerErrorBecomesString(t *testing.T) {
	r := NewRegistry()
	r.Register(Def{
		Name: "boom",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", ErrNoSession
		},
	})
	result, err := r.Execute(context.Background(), "boom", "")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.HasPrefix(result, "错误:") {
		t.Errorf("result = %q, want 错误: prefix", result)
	}
}

func TestRegistryOrderPreserved(t *testing.T) {
	r := NewRegistry()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		r.Register(Def{Name: n, Handler: func(ctx context.Context, args map[string]any) (string, error) { return "", nil }})
	}
	got := r.Names()
	for i, n := range names {
		if got[i] != n {
			t.Fatalf("Names() = %v, want registration order %v", got, names)
		}
	}
}
