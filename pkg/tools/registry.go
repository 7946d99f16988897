package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"concierge/pkg/api"
	"concierge/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrDuplicateTool is returned when two tools claim the same name.
	ErrDuplicateTool = errors.New("tool name already registered")
	// ErrUnknownTool marks a dispatch for a name no tool claims.
	ErrUnknownTool = errors.New("unknown tool")
)

// Registry is the central inventory of tools available to an agent.
// Registration order is preserved: DescribeAll always advertises specs in
// the order tools were registered.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]api.Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]api.Tool),
	}
}

// Register adds a tool. A name collision is a configuration error and is
// rejected, never silently overwritten.
func (r *Registry) Register(tool api.Tool) error {
	name := tool.Spec().Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (api.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// DescribeAll returns every registered spec in registration order.
func (r *Registry) DescribeAll() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Dispatch executes one model-issued tool call and always produces a
// record: handler errors, panics, malformed arguments and unknown names
// all become error records the model can react to, never engine failures.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) api.ToolRecord {
	rec := api.ToolRecord{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Arguments:  call.Arguments,
		Timestamp:  time.Now().Unix(),
	}

	start := time.Now()
	defer func() {
		rec.DurationMs = time.Since(start).Milliseconds()
	}()

	tool, ok := r.Get(call.Name)
	if !ok {
		rec.Error = fmt.Sprintf("%v: %s", ErrUnknownTool, call.Name)
		slog.Warn("Dispatch for unregistered tool", "tool", call.Name)
		return rec
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			rec.Error = fmt.Sprintf("invalid tool arguments: %v", err)
			return rec
		}
	}

	output, err := r.execute(ctx, tool, args)
	if err != nil {
		rec.Error = err.Error()
		slog.Warn("Tool execution failed", "tool", call.Name, "error", err)
		return rec
	}

	payload, err := json.Marshal(output)
	if err != nil {
		rec.Error = fmt.Sprintf("failed to encode tool output: %v", err)
		return rec
	}
	rec.Output = string(payload)

	slog.Debug("Tool executed", "tool", call.Name, "duration_ms", time.Since(start).Milliseconds())
	return rec
}

// execute isolates the handler call so a panic is captured as an error.
func (r *Registry) execute(ctx context.Context, tool api.Tool, args map[string]any) (output any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool panicked: %v", rec)
		}
	}()
	return tool.Execute(ctx, args)
}
