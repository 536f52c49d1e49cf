package contract

import (
	"context"
	"iter"

	"github.com/cloudwego/eino/schema"
)

type Router interface {
	Classify(ctx context.Context, history []*schema.Message) (Classification, error)
	HandleGeneral(ctx context.Context, history []*schema.Message) (string, error)
	StreamGeneral(ctx context.Context, history []*schema.Message) iter.Seq2[string, error]
}

type Specialist interface {
	Run(ctx context.Context, history []*schema.Message, tools ToolExecutor) (string, error)
	Stream(ctx context.Context, history []*schema.Message, tools ToolExecutor) iter.Seq2[string, error]
}

type Registry interface {
	Router() Router
	Specialist(kind SpecialistKind) (Specialist, error)
}

// ToolExecutor runs a named lookup and always answers with a JSON document.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) string
}

// ToolExecutorFunc adapts a plain function to ToolExecutor.
type ToolExecutorFunc func(ctx context.Context, name string, args map[string]any) string

func (f ToolExecutorFunc) Execute(ctx context.Context, name string, args map[string]any) string {
	return f(ctx, name, args)
}

type Compactor interface {
	Summarize(ctx context.Context, history []*schema.Message) []*schema.Message
}
