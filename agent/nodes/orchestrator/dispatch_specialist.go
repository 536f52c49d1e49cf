package orchestratornode

import (
	"context"
	"fmt"
	"iter"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

// DispatchSpecialist answers through the router when no specialist owns the
// intent, otherwise through the specialist's tool loop.
func DispatchSpecialist(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	tools contractx.ToolExecutor,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	kind := in.Classification.Specialist
	if kind == contractx.KindNone {
		reply, err := models.Router().HandleGeneral(ctx, in.History)
		if err != nil {
			return nil, err
		}
		in.Reply = reply
		return in, nil
	}

	specialist, err := models.Specialist(kind)
	if err != nil {
		return nil, err
	}
	reply, err := specialist.Run(ctx, in.History, tools)
	if err != nil {
		return nil, err
	}
	in.Reply = reply
	return in, nil
}

// StreamSpecialist is the streaming counterpart of DispatchSpecialist.
func StreamSpecialist(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	tools contractx.ToolExecutor,
) (iter.Seq2[string, error], error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	kind := in.Classification.Specialist
	if kind == contractx.KindNone {
		return models.Router().StreamGeneral(ctx, in.History), nil
	}
	specialist, err := models.Specialist(kind)
	if err != nil {
		return nil, err
	}
	return specialist.Stream(ctx, in.History, tools), nil
}
