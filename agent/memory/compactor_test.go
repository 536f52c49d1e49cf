package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanpawarit/partselect-assistant/agent/testutil"
)

// wordCounter keeps tests independent of tokenizer downloads.
var wordCounter = TokenCounterFunc(func(text string) int {
	return len(strings.Fields(text))
})

func newTestCompactor(t *testing.T, model *testutil.ChatModel) *Compactor {
	t.Helper()
	c, err := NewCompactor(model, "summarize", Config{}, WithTokenCounter(wordCounter))
	require.NoError(t, err)
	return c
}

func conversation(n int, wordsPerMessage int) []*schema.Message {
	body := strings.Repeat("word ", wordsPerMessage)
	out := make([]*schema.Message, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, schema.UserMessage(fmt.Sprintf("u%d %s", i, body)))
		} else {
			out = append(out, schema.AssistantMessage(fmt.Sprintf("a%d %s", i, body), nil))
		}
	}
	return out
}

func TestSummarizeNoopAtKeepThreshold(t *testing.T) {
	t.Parallel()

	model := &testutil.ChatModel{Responses: []*schema.Message{testutil.Text("s")}}
	c := newTestCompactor(t, model)

	for _, n := range []int{0, 1, 5, DefaultKeepRecent} {
		history := conversation(n, 5000)
		out := c.Summarize(context.Background(), history)
		assert.Equal(t, history, out)
	}
	assert.Equal(t, 0, model.CallCount())
}

func TestSummarizeNoopUnderTokenBudget(t *testing.T) {
	t.Parallel()

	model := &testutil.ChatModel{Responses: []*schema.Message{testutil.Text("s")}}
	c := newTestCompactor(t, model)

	history := conversation(30, 10)
	out := c.Summarize(context.Background(), history)
	assert.Equal(t, history, out)
	assert.Equal(t, 0, model.CallCount())
}

func TestSummarizeLongConversation(t *testing.T) {
	t.Parallel()

	model := &testutil.ChatModel{Responses: []*schema.Message{testutil.Text("  user has a leaking WDT780SAEM1  ")}}
	c := newTestCompactor(t, model)

	history := conversation(50, 200)
	out := c.Summarize(context.Background(), history)

	require.Len(t, out, DefaultKeepRecent+1)
	assert.Equal(t, schema.User, out[0].Role)
	assert.Equal(t, SummaryPrefix+"user has a leaking WDT780SAEM1]", out[0].Content)
	for i, m := range out[1:] {
		assert.Same(t, history[40+i], m)
	}

	require.Equal(t, 1, model.CallCount())
	call := model.Calls[0]
	require.Len(t, call, 2)
	assert.Equal(t, schema.System, call[0].Role)
	assert.Contains(t, call[1].Content, "user: u0 ")
	assert.NotContains(t, call[1].Content, "u40 ")
}

func TestSummarizeFallsBackToRecentOnFailure(t *testing.T) {
	t.Parallel()

	model := &testutil.ChatModel{Err: errors.New("provider down")}
	c := newTestCompactor(t, model)

	history := conversation(25, 400)
	out := c.Summarize(context.Background(), history)

	require.Len(t, out, DefaultKeepRecent)
	assert.Equal(t, history[15:], out)
}

func TestFormatForSummary(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 600)
	got := formatForSummary([]*schema.Message{
		schema.SystemMessage("system text"),
		schema.UserMessage("hi"),
		schema.AssistantMessage("", nil),
		schema.ToolMessage(`{"ok":true}`, "call_1"),
		schema.AssistantMessage(long, nil),
	})

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "user: hi", lines[0])
	assert.Equal(t, "assistant: "+strings.Repeat("x", 500)+"...", lines[1])
}

func TestCountMessagesAddsOverhead(t *testing.T) {
	t.Parallel()

	got := CountMessages(wordCounter, []*schema.Message{
		schema.UserMessage("one two"),
		schema.AssistantMessage("three", nil),
	})
	// 2*4 overhead + 3 content words + 2 role words
	assert.Equal(t, 13, got)
}

func TestHeuristicCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, heuristicCount(""))
	assert.Equal(t, 1, heuristicCount("abc"))
	assert.Equal(t, 2, heuristicCount("abcde"))
}
