package orchestratornode

import (
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/agent/guardrail"
)

type GraphInput struct {
	Messages []contractx.ChatMessage
}

type GraphOutput = contractx.Response

type GraphState struct {
	History []*schema.Message
	Latest  string

	Guard          guardrail.Result
	Classification contractx.Classification

	// Specialist is the label reported to the caller.
	Specialist string
	Reply      string
}

// ValidateRequest converts the caller transcript. An empty transcript is not
// an error: the guardrail rejects its empty latest message.
func ValidateRequest(in GraphInput) (*GraphState, error) {
	state := &GraphState{History: contractx.ToMessages(in.Messages)}
	if n := len(in.Messages); n > 0 {
		state.Latest = in.Messages[n-1].Content
	}
	return state, nil
}

// Intent is the reported intent label.
func (s *GraphState) Intent() string {
	if s.Blocked() {
		return string(contractx.IntentBlocked)
	}
	return string(s.Classification.Intent)
}

func (s *GraphState) Blocked() bool {
	return s != nil && !s.Guard.Passed
}
