package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	routerx "github.com/tanpawarit/partselect-assistant/agent/agents/router"
	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	llmx "github.com/tanpawarit/partselect-assistant/agent/llm"
	promptx "github.com/tanpawarit/partselect-assistant/agent/prompt"
	"github.com/tanpawarit/partselect-assistant/agent/tool"
)

// ModelFactory creates the chat model of a role. llm.Config implements it.
type ModelFactory interface {
	NewChatModel(ctx context.Context, role llmx.Role) (einomodel.ToolCallingChatModel, error)
}

var _ ModelFactory = llmx.Config{}

type registryImpl struct {
	router  contractx.Router
	product contractx.Specialist
	repair  contractx.Specialist
	order   contractx.Specialist
}

var _ contractx.Registry = (*registryImpl)(nil)

func (r *registryImpl) Router() contractx.Router {
	return r.router
}

func (r *registryImpl) Specialist(kind contractx.SpecialistKind) (contractx.Specialist, error) {
	switch kind {
	case contractx.KindProduct:
		return r.product, nil
	case contractx.KindRepair:
		return r.repair, nil
	case contractx.KindOrder:
		return r.order, nil
	default:
		return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownSpecialist, kind)
	}
}

// Configs returns the fixed configuration of every specialist.
func Configs(prompts promptx.PromptSet, maxTurns int) []Config {
	return []Config{
		{Kind: contractx.KindProduct, SystemPrompt: prompts.Product, Tools: tool.InfosFor(contractx.KindProduct), MaxTurns: maxTurns},
		{Kind: contractx.KindRepair, SystemPrompt: prompts.Repair, Tools: tool.InfosFor(contractx.KindRepair), MaxTurns: maxTurns},
		{Kind: contractx.KindOrder, SystemPrompt: prompts.Order, Tools: tool.InfosFor(contractx.KindOrder), MaxTurns: maxTurns},
	}
}

// NewRegistry builds the router and the three specialists once at startup.
func NewRegistry(ctx context.Context, models ModelFactory, prompts promptx.PromptSet, maxTurns int) (contractx.Registry, error) {
	if models == nil {
		return nil, fmt.Errorf("%w: model factory is required", contractx.ErrValidation)
	}

	routerModel, err := models.NewChatModel(ctx, llmx.RoleRouter)
	if err != nil {
		return nil, err
	}
	router, err := routerx.New(ctx, routerModel, prompts.Router, prompts.General)
	if err != nil {
		return nil, err
	}

	reg := &registryImpl{router: router}
	for _, cfg := range Configs(prompts, maxTurns) {
		chatModel, err := models.NewChatModel(ctx, llmx.RoleFor(cfg.Kind))
		if err != nil {
			return nil, err
		}
		agent, err := New(ctx, cfg, chatModel)
		if err != nil {
			return nil, err
		}
		switch cfg.Kind {
		case contractx.KindProduct:
			reg.product = agent
		case contractx.KindRepair:
			reg.repair = agent
		case contractx.KindOrder:
			reg.order = agent
		}
	}
	return reg, nil
}
