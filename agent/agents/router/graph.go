package router

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

// classifierOutput is the record the classifier model must answer with.
// Entities stay untyped until decodeEntities so that one odd value cannot
// sink the intent.
type classifierOutput struct {
	Intent   string `json:"intent"`
	Entities any    `json:"entities"`
}

// compileClassifierGraph wires prompt -> model -> parse. The parse node never
// fails: malformed output becomes the general intent, so the only error the
// runnable surfaces is a model failure.
func compileClassifierGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[[]*schema.Message, classifierOutput], error) {
	parser := schema.NewMessageJSONParser[classifierOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[[]*schema.Message, classifierOutput]()
	if err := graph.AddLambdaNode("prompt",
		compose.InvokableLambda(func(ctx context.Context, history []*schema.Message) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.SystemMessage(systemPrompt),
				schema.UserMessage(classificationContext(history)),
			}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add classifier prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add classifier model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (classifierOutput, error) {
			fallback := classifierOutput{Intent: string(contractx.IntentGeneral)}
			if msg == nil {
				return fallback, nil
			}
			cleaned := &schema.Message{Role: msg.Role, Content: stripCodeFence(msg.Content)}
			out, err := parser.Parse(ctx, cleaned)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("raw", msg.Content).
					Msg("classifier output unparseable, falling back to general")
				return fallback, nil
			}
			return out, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add classifier parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add classifier edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add classifier edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "parse_json"); err != nil {
		return nil, fmt.Errorf("add classifier edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add classifier edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.classifier_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile classifier graph: %w", err)
	}
	return runner, nil
}

// classificationContext renders the last few turns as "ROLE: content" lines.
func classificationContext(history []*schema.Message) string {
	recent := history
	if len(recent) > ContextMessages {
		recent = recent[len(recent)-ContextMessages:]
	}
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		if m == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), m.Content))
	}
	return strings.Join(lines, "\n")
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeEntities reads the recognised entity fields with weak typing, so a
// numeric order id still arrives as text. Fields that cannot be read are left
// empty.
func decodeEntities(ctx context.Context, raw any) contractx.Entities {
	var out contractx.Entities
	if raw == nil {
		return out
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out
	}
	if err := dec.Decode(raw); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("classifier entities partly unreadable")
	}
	return out
}
