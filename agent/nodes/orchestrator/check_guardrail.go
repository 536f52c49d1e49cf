package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/agent/guardrail"
	"github.com/tanpawarit/partselect-assistant/pkg/metrics"
)

// CheckGuardrail screens the latest message only.
func CheckGuardrail(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Guard = guardrail.CheckInput(in.Latest)
	if !in.Guard.Passed {
		in.Specialist = contractx.LabelGuardrails
		in.Reply = in.Guard.Message
		metrics.GuardrailBlocks.WithLabelValues(string(in.Guard.Reason)).Inc()
		zerolog.Ctx(ctx).Info().Str("reason", string(in.Guard.Reason)).Msg("input rejected by guardrail")
	}
	return in, nil
}
