package specialist

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	llmx "github.com/tanpawarit/partselect-assistant/agent/llm"
	promptx "github.com/tanpawarit/partselect-assistant/agent/prompt"
	"github.com/tanpawarit/partselect-assistant/agent/testutil"
	"github.com/tanpawarit/partselect-assistant/agent/tool"
)

func orderConfig(maxTurns int) Config {
	return Config{
		Kind:         contractx.KindOrder,
		SystemPrompt: "order prompt",
		Tools:        tool.InfosFor(contractx.KindOrder),
		MaxTurns:     maxTurns,
	}
}

func newAgent(t *testing.T, fake einomodel.ToolCallingChatModel, maxTurns int) *Agent {
	t.Helper()
	agent, err := New(context.Background(), orderConfig(maxTurns), fake)
	require.NoError(t, err)
	return agent
}

func history(text string) []*schema.Message {
	return []*schema.Message{schema.UserMessage(text)}
}

func collect(t *testing.T, seq func(func(string, error) bool)) (string, error) {
	t.Helper()
	var sb strings.Builder
	for chunk, err := range seq {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), orderConfig(0), nil)
	require.ErrorIs(t, err, contractx.ErrValidation)

	cfg := orderConfig(0)
	cfg.SystemPrompt = "  "
	_, err = New(context.Background(), cfg, &testutil.ChatModel{})
	require.ErrorIs(t, err, contractx.ErrPromptMissing)

	cfg = orderConfig(0)
	cfg.Tools = nil
	_, err = New(context.Background(), cfg, &testutil.ChatModel{})
	require.ErrorIs(t, err, contractx.ErrValidation)
}

func TestNewBindsToolSet(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{}
	agent := newAgent(t, fake, 0)
	assert.Equal(t, DefaultMaxTurns, agent.maxTurns)
	require.Len(t, fake.Tools, 1)
	assert.Equal(t, tool.LookupOrder, fake.Tools[0].Name)
}

func TestRunAnswersWithoutTools(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{Responses: []*schema.Message{testutil.Text("Your order shipped.")}}
	tools := &testutil.ToolRecorder{}

	out, err := newAgent(t, fake, 5).Run(context.Background(), history("where is my order"), tools)
	require.NoError(t, err)
	assert.Equal(t, "Your order shipped.", out)
	assert.Equal(t, 1, fake.CallCount())
	assert.Empty(t, tools.Calls)

	sent := fake.Calls[0]
	require.Len(t, sent, 2)
	assert.Equal(t, schema.System, sent[0].Role)
	assert.Equal(t, "order prompt", sent[0].Content)
	assert.Equal(t, "where is my order", sent[1].Content)
}

func TestRunExecutesToolsAndReasks(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{Responses: []*schema.Message{
		testutil.ToolCall("call_1", tool.LookupOrder, `{"order_id":"ORD-2024-78432"}`),
		testutil.Text("It shipped with UPS."),
	}}
	tools := &testutil.ToolRecorder{Results: map[string]string{tool.LookupOrder: `{"status":"shipped"}`}}
	in := history("status of ORD-2024-78432")

	out, err := newAgent(t, fake, 5).Run(context.Background(), in, tools)
	require.NoError(t, err)
	assert.Equal(t, "It shipped with UPS.", out)

	require.Len(t, tools.Calls, 1)
	assert.Equal(t, map[string]any{"order_id": "ORD-2024-78432"}, tools.Calls[0].Args)

	second := fake.Calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, schema.Assistant, second[2].Role)
	require.Len(t, second[2].ToolCalls, 1)
	assert.Equal(t, "call_1", second[2].ToolCalls[0].ID)
	assert.Equal(t, schema.Tool, second[3].Role)
	assert.Equal(t, "call_1", second[3].ToolCallID)
	assert.Equal(t, `{"status":"shipped"}`, second[3].Content)

	assert.Len(t, in, 1, "caller history must not grow")
}

func TestRunExecutesCallsInIssuedOrder(t *testing.T) {
	t.Parallel()

	multi := schema.AssistantMessage("", []schema.ToolCall{
		{ID: "a", Function: schema.FunctionCall{Name: "first", Arguments: `{}`}},
		{ID: "b", Function: schema.FunctionCall{Name: "second", Arguments: `{}`}},
	})
	fake := &testutil.ChatModel{Responses: []*schema.Message{multi, testutil.Text("done")}}
	tools := &testutil.ToolRecorder{}

	_, err := newAgent(t, fake, 5).Run(context.Background(), history("x"), tools)
	require.NoError(t, err)
	require.Len(t, tools.Calls, 2)
	assert.Equal(t, "first", tools.Calls[0].Name)
	assert.Equal(t, "second", tools.Calls[1].Name)

	second := fake.Calls[1]
	assert.Equal(t, "a", second[len(second)-2].ToolCallID)
	assert.Equal(t, "b", second[len(second)-1].ToolCallID)
}

func TestRunMalformedArgumentsBecomeEmptyMapping(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`{not json`, `null`, `[1,2]`, ``} {
		fake := &testutil.ChatModel{Responses: []*schema.Message{
			testutil.ToolCall("c", tool.LookupOrder, raw),
			testutil.Text("ok"),
		}}
		tools := &testutil.ToolRecorder{}
		_, err := newAgent(t, fake, 5).Run(context.Background(), history("x"), tools)
		require.NoError(t, err, raw)
		require.Len(t, tools.Calls, 1)
		assert.Equal(t, map[string]any{}, tools.Calls[0].Args, raw)
	}
}

func TestRunStopsAtTurnBudget(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{
		Responses: []*schema.Message{testutil.ToolCall("c", tool.LookupOrder, `{}`)},
		Repeat:    true,
	}
	tools := &testutil.ToolRecorder{}

	out, err := newAgent(t, fake, 3).Run(context.Background(), history("x"), tools)
	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, out)
	assert.Equal(t, 3, fake.CallCount())
	assert.Len(t, tools.Calls, 3)
}

func TestRunModelFailure(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{Err: errors.New("upstream 502")}
	_, err := newAgent(t, fake, 5).Run(context.Background(), history("x"), &testutil.ToolRecorder{})
	require.ErrorIs(t, err, contractx.ErrModelInvoke)
}

func TestRunRequiresExecutor(t *testing.T) {
	t.Parallel()

	_, err := newAgent(t, &testutil.ChatModel{}, 5).Run(context.Background(), history("x"), nil)
	require.ErrorIs(t, err, contractx.ErrValidation)
}

func TestStreamToolTurnsAreSilent(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{Responses: []*schema.Message{
		testutil.ToolCall("call_1", tool.LookupOrder, `{"order_id":"ORD-2024-55120"}`),
		testutil.Text("Your order is still processing."),
	}}
	tools := &testutil.ToolRecorder{}

	var chunks []string
	for chunk, err := range newAgent(t, fake, 5).Stream(context.Background(), history("x"), tools) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, "Your order is still processing.", strings.Join(chunks, ""))
	assert.Greater(t, len(chunks), 1, "answer should arrive in pieces")
	assert.Len(t, tools.Calls, 1)
	assert.Equal(t, 2, fake.Streams)
}

func TestStreamStopsAtTurnBudget(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{
		Responses: []*schema.Message{testutil.ToolCall("c", tool.LookupOrder, `{}`)},
		Repeat:    true,
	}
	out, err := collect(t, newAgent(t, fake, 2).Stream(context.Background(), history("x"), &testutil.ToolRecorder{}))
	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, out)
	assert.Equal(t, 2, fake.CallCount())
}

func TestStreamConsumerMayStopEarly(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{Responses: []*schema.Message{testutil.Text("one two three four")}}
	var got []string
	for chunk, err := range newAgent(t, fake, 5).Stream(context.Background(), history("x"), &testutil.ToolRecorder{}) {
		require.NoError(t, err)
		got = append(got, chunk)
		break
	}
	assert.Equal(t, []string{"one "}, got)
	assert.Equal(t, 1, fake.CallCount())
}

func TestStreamErrorMidAnswer(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{
		Responses: []*schema.Message{testutil.Text("partial answer here")},
		StreamErr: errors.New("connection reset"),
	}
	out, err := collect(t, newAgent(t, fake, 5).Stream(context.Background(), history("x"), &testutil.ToolRecorder{}))
	require.ErrorIs(t, err, contractx.ErrModelInvoke)
	assert.Empty(t, out, "a turn that fails mid-stream surfaces no text")
}

func TestStreamOpenFailure(t *testing.T) {
	t.Parallel()

	fake := &testutil.ChatModel{Err: errors.New("401")}
	_, err := collect(t, newAgent(t, fake, 5).Stream(context.Background(), history("x"), &testutil.ToolRecorder{}))
	require.ErrorIs(t, err, contractx.ErrModelInvoke)
}

func TestStreamRunsToolsRequestedAfterText(t *testing.T) {
	t.Parallel()

	reply := schema.AssistantMessage("Let me look that up.", []schema.ToolCall{{
		ID:       "call_1",
		Type:     "function",
		Function: schema.FunctionCall{Name: tool.LookupOrder, Arguments: `{"order_id":"ORD-2024-55120"}`},
	}})
	answer := testutil.Text("Your order shipped.")

	blocking := &testutil.ChatModel{Responses: []*schema.Message{reply, answer}}
	blockingTools := &testutil.ToolRecorder{}
	want, err := newAgent(t, blocking, 5).Run(context.Background(), history("where is my order"), blockingTools)
	require.NoError(t, err)

	streaming := &testutil.ChatModel{Responses: []*schema.Message{reply, answer}, ContentFirst: true}
	streamingTools := &testutil.ToolRecorder{}
	got, err := collect(t, newAgent(t, streaming, 5).Stream(context.Background(), history("where is my order"), streamingTools))
	require.NoError(t, err)

	assert.Equal(t, "Your order shipped.", want)
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "Let me look that up.")
	require.Len(t, streamingTools.Calls, 1)
	assert.Equal(t, blockingTools.Calls, streamingTools.Calls)
	assert.Equal(t, 2, streaming.Streams)

	// the preamble stays in the transcript next to its tool calls
	second := streaming.Calls[1]
	assistant := second[len(second)-2]
	assert.Equal(t, "Let me look that up.", assistant.Content)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", second[len(second)-1].ToolCallID)
}

func TestStreamRequiresExecutor(t *testing.T) {
	t.Parallel()

	_, err := collect(t, newAgent(t, &testutil.ChatModel{}, 5).Stream(context.Background(), history("x"), nil))
	require.ErrorIs(t, err, contractx.ErrValidation)
}

type fakeFactory struct {
	models map[llmx.Role]*testutil.ChatModel
	err    error
}

func (f *fakeFactory) NewChatModel(ctx context.Context, role llmx.Role) (einomodel.ToolCallingChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := &testutil.ChatModel{}
	f.models[role] = m
	return m, nil
}

func TestRegistryResolvesClosedSet(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{models: map[llmx.Role]*testutil.ChatModel{}}
	reg, err := NewRegistry(context.Background(), factory, promptx.LoadPromptSet(), 0)
	require.NoError(t, err)
	require.NotNil(t, reg.Router())

	for _, kind := range []contractx.SpecialistKind{contractx.KindProduct, contractx.KindRepair, contractx.KindOrder} {
		spec, err := reg.Specialist(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, spec.(*Agent).Kind())
	}
	_, err = reg.Specialist(contractx.KindNone)
	require.ErrorIs(t, err, contractx.ErrUnknownSpecialist)

	assert.Len(t, factory.models, 4)
	assert.Equal(t, tool.Names(contractx.KindRepair), names(factory.models[llmx.RoleRepair].Tools))
	assert.Equal(t, tool.Names(contractx.KindProduct), names(factory.models[llmx.RoleProduct].Tools))
}

func TestRegistryFactoryFailure(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(context.Background(), &fakeFactory{err: contractx.ErrModelInvoke}, promptx.LoadPromptSet(), 5)
	require.ErrorIs(t, err, contractx.ErrModelInvoke)
}

func names(infos []*schema.ToolInfo) []string {
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Name)
	}
	return out
}
