package testutil

import (
	"context"
	"sync"
)

type ToolCallRecord struct {
	Name string
	Args map[string]any
}

// ToolRecorder is a ToolExecutor that records calls and answers from Results
// (keyed by tool name) or with Default.
type ToolRecorder struct {
	mu      sync.Mutex
	Results map[string]string
	Default string
	Calls   []ToolCallRecord
}

func (r *ToolRecorder) Execute(ctx context.Context, name string, args map[string]any) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, ToolCallRecord{Name: name, Args: args})
	if out, ok := r.Results[name]; ok {
		return out
	}
	if r.Default != "" {
		return r.Default
	}
	return `{"ok":true}`
}
