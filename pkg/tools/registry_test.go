package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"concierge/pkg/llm"
)

// fakeTool is a scriptable tool for registry tests.
type fakeTool struct {
	name    string
	execute func(ctx context.Context, args map[string]any) (any, error)
}

func (f *fakeTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        f.name,
		Description: "test tool",
		Parameters:  map[string]any{"type": "object"},
	}
}

func (f *fakeTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	return f.execute(ctx, args)
}

func echoTool(name string) *fakeTool {
	return &fakeTool{
		name: name,
		execute: func(ctx context.Context, args map[string]any) (any, error) {
			return args, nil
		},
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := r.Register(echoTool("echo"))
	if !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("duplicate Register returned %v, want ErrDuplicateTool", err)
	}
}

func TestRegistryDescribeAllOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		if err := r.Register(echoTool(name)); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	specs := r.DescribeAll()
	if len(specs) != 3 {
		t.Fatalf("got %d specs, want 3", len(specs))
	}
	want := []string{"zulu", "alpha", "mike"}
	for i, spec := range specs {
		if spec.Name != want[i] {
			t.Errorf("spec[%d] = %s, want %s (registration order)", i, spec.Name, want[i])
		}
	}
}

func TestDispatch(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"))
	r.Register(&fakeTool{
		name: "boom",
		execute: func(ctx context.Context, args map[string]any) (any, error) {
			panic("kaboom")
		},
	})
	r.Register(&fakeTool{
		name: "fail",
		execute: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, fmt.Errorf("backend unavailable")
		},
	})

	tests := []struct {
		name       string
		call       llm.ToolCall
		wantOutput string
		wantErrSub string
	}{
		{
			name:       "successful call returns JSON output",
			call:       llm.ToolCall{ID: "c1", Name: "echo", Arguments: `{"key":"value"}`},
			wantOutput: `{"key":"value"}`,
		},
		{
			name:       "empty arguments are allowed",
			call:       llm.ToolCall{ID: "c2", Name: "echo"},
			wantOutput: `{}`,
		},
		{
			name:       "unknown tool becomes an error record",
			call:       llm.ToolCall{ID: "c3", Name: "nope", Arguments: `{}`},
			wantErrSub: "unknown tool",
		},
		{
			name:       "malformed arguments become an error record",
			call:       llm.ToolCall{ID: "c4", Name: "echo", Arguments: `{broken`},
			wantErrSub: "invalid tool arguments",
		},
		{
			name:       "panicking handler becomes an error record",
			call:       llm.ToolCall{ID: "c5", Name: "boom", Arguments: `{}`},
			wantErrSub: "tool panicked",
		},
		{
			name:       "handler error becomes an error record",
			call:       llm.ToolCall{ID: "c6", Name: "fail", Arguments: `{}`},
			wantErrSub: "backend unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := r.Dispatch(context.Background(), tt.call)

			if rec.ToolCallID != tt.call.ID || rec.ToolName != tt.call.Name {
				t.Errorf("record identity = (%s, %s), want (%s, %s)",
					rec.ToolCallID, rec.ToolName, tt.call.ID, tt.call.Name)
			}
			if tt.wantErrSub != "" {
				if !strings.Contains(rec.Error, tt.wantErrSub) {
					t.Errorf("record error = %q, want substring %q", rec.Error, tt.wantErrSub)
				}
				return
			}
			if rec.Error != "" {
				t.Fatalf("unexpected record error: %s", rec.Error)
			}
			if rec.Output != tt.wantOutput {
				t.Errorf("record output = %q, want %q", rec.Output, tt.wantOutput)
			}
		})
	}
}
