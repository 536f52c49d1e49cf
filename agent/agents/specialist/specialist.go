// Package specialist runs the tool-calling loop shared by the product, repair
// and order agents.
package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/pkg/metrics"
)

const (
	DefaultMaxTurns = 5

	// FallbackMessage is returned when the turn budget runs out.
	FallbackMessage = "I'm having trouble processing that. Could you try rephrasing?"
)

// Config is the immutable setup of one specialist.
type Config struct {
	Kind         contractx.SpecialistKind
	SystemPrompt string
	Tools        []*schema.ToolInfo
	MaxTurns     int
}

type Agent struct {
	kind     contractx.SpecialistKind
	turn     compose.Runnable[[]*schema.Message, *schema.Message]
	maxTurns int
}

var _ contractx.Specialist = (*Agent)(nil)

func New(ctx context.Context, cfg Config, chatModel einomodel.ToolCallingChatModel) (*Agent, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: %s specialist model is required", contractx.ErrValidation, cfg.Kind)
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		return nil, fmt.Errorf("%w: %s specialist prompt", contractx.ErrPromptMissing, cfg.Kind)
	}
	if len(cfg.Tools) == 0 {
		return nil, fmt.Errorf("%w: %s specialist has no tools", contractx.ErrValidation, cfg.Kind)
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	toolModel, err := chatModel.WithTools(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for %s specialist: %v", contractx.ErrModelInvoke, cfg.Kind, err)
	}
	turn, err := compileTurnGraph(ctx, toolModel, cfg.SystemPrompt, "specialist."+cfg.Kind.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &Agent{kind: cfg.Kind, turn: turn, maxTurns: maxTurns}, nil
}

func (a *Agent) Kind() contractx.SpecialistKind {
	return a.kind
}

// Run asks the model until it answers without requesting tools, executing
// requested tools in issued order between turns.
func (a *Agent) Run(ctx context.Context, history []*schema.Message, tools contractx.ToolExecutor) (string, error) {
	if tools == nil {
		return "", fmt.Errorf("%w: tool executor is required", contractx.ErrValidation)
	}
	logger := zerolog.Ctx(ctx)
	working := append([]*schema.Message(nil), history...)

	for turn := 1; turn <= a.maxTurns; turn++ {
		msg, err := a.turn.Invoke(ctx, working)
		if err != nil {
			return "", fmt.Errorf("%w: %s specialist turn %d: %v", contractx.ErrModelInvoke, a.kind, turn, err)
		}
		if msg == nil || len(msg.ToolCalls) == 0 {
			metrics.SpecialistTurns.WithLabelValues(a.kind.String()).Observe(float64(turn))
			logger.Debug().Stringer("specialist", a.kind).Int("turns", turn).Msg("specialist answered")
			if msg == nil {
				return "", nil
			}
			return msg.Content, nil
		}
		working = a.executeTools(ctx, working, msg, tools)
	}

	a.exhausted(ctx)
	return FallbackMessage, nil
}

// executeTools appends the assistant tool-call message and one tool message
// per call, keyed to the call id.
func (a *Agent) executeTools(
	ctx context.Context,
	working []*schema.Message,
	msg *schema.Message,
	tools contractx.ToolExecutor,
) []*schema.Message {
	working = append(working, schema.AssistantMessage(msg.Content, msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		zerolog.Ctx(ctx).Debug().
			Stringer("specialist", a.kind).
			Str("tool", call.Function.Name).
			Str("call_id", call.ID).
			Msg("executing tool call")
		result := tools.Execute(ctx, call.Function.Name, decodeArgs(call.Function.Arguments))
		working = append(working, schema.ToolMessage(result, call.ID))
	}
	return working
}

func (a *Agent) exhausted(ctx context.Context) {
	metrics.SpecialistExhausted.WithLabelValues(a.kind.String()).Inc()
	zerolog.Ctx(ctx).Warn().Stringer("specialist", a.kind).Int("max_turns", a.maxTurns).Msg("specialist turn budget exhausted")
}

// decodeArgs never fails: anything that is not a JSON object becomes an
// empty mapping.
func decodeArgs(raw string) map[string]any {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
