package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/agent/guardrail"
	"github.com/tanpawarit/partselect-assistant/agent/productcard"
)

// FinalizeReply cleans the reply and splits off product cards. Rejection
// messages are returned as they are.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Blocked() {
		return GraphOutput{
			Response:   in.Reply,
			Products:   []contractx.Product{},
			Intent:     in.Intent(),
			Specialist: contractx.LabelGuardrails,
		}, nil
	}

	text, products := splitReply(in.Reply)
	return GraphOutput{
		Response:   text,
		Products:   products,
		Intent:     in.Intent(),
		Specialist: in.Specialist,
	}, nil
}

// FinalizeStream builds the closing event of a streamed reply from the
// buffered text.
func FinalizeStream(in *GraphState, streamed string) contractx.Event {
	if in.Blocked() {
		return contractx.Event{
			Type:       contractx.EventDone,
			Intent:     in.Intent(),
			Specialist: contractx.LabelGuardrails,
			Products:   []contractx.Product{},
		}
	}
	_, products := splitReply(streamed)
	return contractx.Event{
		Type:       contractx.EventDone,
		Intent:     in.Intent(),
		Specialist: in.Specialist,
		Products:   products,
	}
}

func splitReply(reply string) (string, []contractx.Product) {
	text, products := productcard.Split(guardrail.CleanOutput(reply))
	if products == nil {
		products = []contractx.Product{}
	}
	return text, products
}
