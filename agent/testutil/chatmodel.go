// Package testutil holds fakes shared by agent package tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var ErrNoResponseLeft = errors.New("no fake response left")

// ChatModel is a scripted eino ToolCallingChatModel. Responses are served in
// order; when Repeat is set the last response is served forever.
type ChatModel struct {
	mu sync.Mutex

	Responses []*schema.Message
	Repeat    bool
	Err       error
	StreamErr error // returned mid-stream, after the first chunk
	// ContentFirst streams content ahead of tool calls, the order OpenAI
	// uses for a reply that has both.
	ContentFirst bool

	Calls   [][]*schema.Message
	Streams int
	Tools   []*schema.ToolInfo
}

var _ einomodel.ToolCallingChatModel = (*ChatModel)(nil)

func (f *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return f.next(input)
}

func (f *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.next(input)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.Streams++
	streamErr := f.StreamErr
	contentFirst := f.ContentFirst
	f.mu.Unlock()

	chunks := Chunks(msg)
	if contentFirst {
		chunks = ContentFirstChunks(msg)
	}
	if streamErr == nil {
		return schema.StreamReaderFromArray(chunks), nil
	}

	sr, sw := schema.Pipe[*schema.Message](len(chunks) + 1)
	go func() {
		defer sw.Close()
		if len(chunks) > 0 {
			sw.Send(chunks[0], nil)
		}
		sw.Send(nil, streamErr)
	}()
	return sr, nil
}

func (f *ChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tools = tools
	return f, nil
}

func (f *ChatModel) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *ChatModel) next(input []*schema.Message) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, append([]*schema.Message(nil), input...))
	if f.Err != nil {
		return nil, f.Err
	}
	idx := len(f.Calls) - 1
	if idx >= len(f.Responses) {
		if !f.Repeat || len(f.Responses) == 0 {
			return nil, ErrNoResponseLeft
		}
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx], nil
}

// Chunks splits a message into streaming deltas: tool calls travel in the
// first chunk, content is split on spaces.
func Chunks(msg *schema.Message) []*schema.Message {
	if msg == nil {
		return nil
	}
	var out []*schema.Message
	if len(msg.ToolCalls) > 0 {
		out = append(out, &schema.Message{Role: schema.Assistant, ToolCalls: msg.ToolCalls})
	}
	words := strings.SplitAfter(msg.Content, " ")
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, &schema.Message{Role: schema.Assistant, Content: w})
	}
	return out
}

// ContentFirstChunks is Chunks with the tool calls moved after the content.
func ContentFirstChunks(msg *schema.Message) []*schema.Message {
	chunks := Chunks(msg)
	if len(chunks) < 2 || len(chunks[0].ToolCalls) == 0 {
		return chunks
	}
	return append(chunks[1:], chunks[0])
}

// Text builds a plain assistant reply.
func Text(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

// ToolCall builds an assistant reply requesting one tool.
func ToolCall(id, name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       id,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}
