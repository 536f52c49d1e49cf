package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

func CompactMemory(ctx context.Context, in *GraphState, compactor contractx.Compactor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if compactor != nil {
		in.History = compactor.Summarize(ctx, in.History)
	}
	return in, nil
}
