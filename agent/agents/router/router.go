// Package router classifies a conversation into an intent and answers
// general turns itself.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

const (
	// ContextMessages is how many trailing messages the classifier sees.
	ContextMessages = 3

	classifyMaxTokens = 200
	generalMaxTokens  = 300
)

var _ contractx.Router = (*Router)(nil)

type Router struct {
	model         einomodel.BaseChatModel
	classifier    compose.Runnable[[]*schema.Message, classifierOutput]
	generalPrompt string
}

func New(ctx context.Context, chatModel einomodel.BaseChatModel, classifierPrompt, generalPrompt string) (*Router, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: router model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(classifierPrompt) == "" {
		return nil, fmt.Errorf("%w: router classifier prompt", contractx.ErrPromptMissing)
	}
	if strings.TrimSpace(generalPrompt) == "" {
		return nil, fmt.Errorf("%w: router general prompt", contractx.ErrPromptMissing)
	}

	classifier, err := compileClassifierGraph(ctx, chatModel, classifierPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &Router{
		model:         chatModel,
		classifier:    classifier,
		generalPrompt: generalPrompt,
	}, nil
}

// Classify always yields an intent from the closed set. Only a failing model
// call is reported as an error.
func (r *Router) Classify(ctx context.Context, history []*schema.Message) (contractx.Classification, error) {
	out, err := r.classifier.Invoke(ctx, history,
		compose.WithChatModelOption(
			einomodel.WithTemperature(0),
			einomodel.WithMaxTokens(classifyMaxTokens),
		),
	)
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: classify: %v", contractx.ErrModelInvoke, err)
	}

	intent, ok := contractx.ParseIntent(out.Intent)
	entities := decodeEntities(ctx, out.Entities)
	if !ok {
		zerolog.Ctx(ctx).Warn().Str("intent", out.Intent).Msg("classifier returned unknown intent, falling back to general")
		entities = contractx.Entities{}
	}

	c := contractx.Classification{
		Intent:     intent,
		Specialist: contractx.SpecialistFor(intent),
		Entities:   trimEntities(entities),
	}
	zerolog.Ctx(ctx).Debug().Str("intent", string(c.Intent)).Stringer("specialist", c.Specialist).Msg("intent classified")
	return c, nil
}

func (r *Router) HandleGeneral(ctx context.Context, history []*schema.Message) (string, error) {
	msg, err := r.model.Generate(ctx, r.generalInput(history), einomodel.WithMaxTokens(generalMaxTokens))
	if err != nil {
		return "", fmt.Errorf("%w: general answer: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// StreamGeneral yields content deltas of the general answer. The underlying
// stream is closed as soon as the consumer stops pulling.
func (r *Router) StreamGeneral(ctx context.Context, history []*schema.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sr, err := r.model.Stream(ctx, r.generalInput(history), einomodel.WithMaxTokens(generalMaxTokens))
		if err != nil {
			yield("", fmt.Errorf("%w: general stream: %v", contractx.ErrModelInvoke, err))
			return
		}
		defer sr.Close()

		for {
			chunk, err := sr.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("%w: general stream recv: %v", contractx.ErrModelInvoke, err))
				return
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}
			if !yield(chunk.Content, nil) {
				return
			}
		}
	}
}

func (r *Router) generalInput(history []*schema.Message) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+1)
	msgs = append(msgs, schema.SystemMessage(r.generalPrompt))
	return append(msgs, history...)
}

func trimEntities(e contractx.Entities) contractx.Entities {
	return contractx.Entities{
		Query:       strings.TrimSpace(e.Query),
		PSNumber:    strings.TrimSpace(e.PSNumber),
		ModelNumber: strings.TrimSpace(e.ModelNumber),
		OrderID:     strings.TrimSpace(e.OrderID),
	}
}
