// Package orchestrator runs one chat request end to end: guardrail, memory
// compaction, routing, specialist dispatch and reply finalization.
package orchestrator

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	nodex "github.com/tanpawarit/partselect-assistant/agent/nodes/orchestrator"
	"github.com/tanpawarit/partselect-assistant/pkg/metrics"
)

// StreamErrorMessage is the only failure text a streaming caller sees.
const StreamErrorMessage = "Something went wrong. Please try again."

const (
	modeBlocking  = "blocking"
	modeStreaming = "stream"
)

type Orchestrator struct {
	models    contractx.Registry
	compactor contractx.Compactor
	tools     contractx.ToolExecutor

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	models contractx.Registry,
	compactor contractx.Compactor,
	tools contractx.ToolExecutor,
) (*Orchestrator, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool executor is required")
	}
	if compactor == nil {
		compactor = noopCompactor{}
	}

	o := &Orchestrator{
		models:    models,
		compactor: compactor,
		tools:     tools,
		now:       time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage returns the complete reply. Errors are external-call
// failures only; rejected input is a normal reply.
func (o *Orchestrator) HandleMessage(ctx context.Context, messages []contractx.ChatMessage) (contractx.Response, error) {
	start := o.now()
	defer func() {
		metrics.RequestDuration.WithLabelValues(modeBlocking).Observe(o.now().Sub(start).Seconds())
	}()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Messages: messages})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("chat request failed")
		return contractx.Response{}, err
	}

	metrics.Requests.WithLabelValues(modeBlocking, out.Intent, out.Specialist).Inc()
	zerolog.Ctx(ctx).Info().
		Str("intent", out.Intent).
		Str("specialist", out.Specialist).
		Int("products", len(out.Products)).
		Msg("chat request handled")
	return out, nil
}

// Stream yields message events as the answer is produced, then exactly one
// done or error event. The consumer may stop pulling at any time.
func (o *Orchestrator) Stream(ctx context.Context, messages []contractx.ChatMessage) iter.Seq[contractx.Event] {
	return func(yield func(contractx.Event) bool) {
		start := o.now()
		defer func() {
			metrics.RequestDuration.WithLabelValues(modeStreaming).Observe(o.now().Sub(start).Seconds())
		}()
		logger := zerolog.Ctx(ctx)

		fail := func(err error) {
			logger.Error().Err(err).Msg("chat stream failed")
			yield(contractx.Event{Type: contractx.EventError, Error: StreamErrorMessage})
		}

		state, err := nodex.ValidateRequest(nodex.GraphInput{Messages: messages})
		if err == nil {
			state, err = nodex.CheckGuardrail(ctx, state)
		}
		if err != nil {
			fail(err)
			return
		}

		if state.Blocked() {
			metrics.Requests.WithLabelValues(modeStreaming, state.Intent(), contractx.LabelGuardrails).Inc()
			if !yield(contractx.Event{Type: contractx.EventMessage, Token: state.Reply}) {
				return
			}
			yield(nodex.FinalizeStream(state, state.Reply))
			return
		}

		state, err = nodex.CompactMemory(ctx, state, o.compactor)
		if err == nil {
			state, err = nodex.ClassifyIntent(ctx, state, o.models.Router())
		}
		var tokens iter.Seq2[string, error]
		if err == nil {
			tokens, err = nodex.StreamSpecialist(ctx, state, o.models, o.tools)
		}
		if err != nil {
			fail(err)
			return
		}

		var full strings.Builder
		for token, err := range tokens {
			if err != nil {
				fail(err)
				return
			}
			full.WriteString(token)
			if !yield(contractx.Event{Type: contractx.EventMessage, Token: token}) {
				logger.Debug().Msg("chat stream consumer went away")
				return
			}
		}

		done := nodex.FinalizeStream(state, full.String())
		metrics.Requests.WithLabelValues(modeStreaming, done.Intent, done.Specialist).Inc()
		logger.Info().
			Str("intent", done.Intent).
			Str("specialist", done.Specialist).
			Int("products", len(done.Products)).
			Msg("chat stream handled")
		yield(done)
	}
}

type noopCompactor struct{}

func (noopCompactor) Summarize(_ context.Context, history []*schema.Message) []*schema.Message {
	return history
}
