package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

func ClassifyIntent(ctx context.Context, in *GraphState, router contractx.Router) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if router == nil {
		return nil, fmt.Errorf("%w: router is required", contractx.ErrValidation)
	}

	c, err := router.Classify(ctx, in.History)
	if err != nil {
		return nil, err
	}
	in.Classification = c
	if c.Specialist == contractx.KindNone {
		in.Specialist = contractx.LabelRouter
	} else {
		in.Specialist = c.Specialist.String()
	}
	return in, nil
}
