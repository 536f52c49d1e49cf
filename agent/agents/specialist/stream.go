package specialist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/pkg/metrics"
)

type turnOutcome int

const (
	turnAnswered turnOutcome = iota
	turnToolCalls
	turnStopped
)

// Stream runs the same loop as Run with one streaming model call per turn.
// A turn's chunks are held back until its stream ends: a reply may carry
// text ahead of its tool calls, so only a turn that finishes without tool
// calls is yielded, chunk by chunk.
func (a *Agent) Stream(ctx context.Context, history []*schema.Message, tools contractx.ToolExecutor) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if tools == nil {
			yield("", fmt.Errorf("%w: tool executor is required", contractx.ErrValidation))
			return
		}
		working := append([]*schema.Message(nil), history...)

		for turn := 1; turn <= a.maxTurns; turn++ {
			sr, err := a.turn.Stream(ctx, working)
			if err != nil {
				yield("", fmt.Errorf("%w: %s specialist turn %d: %v", contractx.ErrModelInvoke, a.kind, turn, err))
				return
			}

			outcome, msg := a.consumeTurn(ctx, turn, sr, yield)
			switch outcome {
			case turnStopped:
				return
			case turnAnswered:
				metrics.SpecialistTurns.WithLabelValues(a.kind.String()).Observe(float64(turn))
				return
			case turnToolCalls:
				working = a.executeTools(ctx, working, msg, tools)
			}
		}

		a.exhausted(ctx)
		yield(FallbackMessage, nil)
	}
}

// consumeTurn drains one model stream. It returns the concatenated message
// when the turn requested tools; otherwise it replays the held chunks.
func (a *Agent) consumeTurn(
	ctx context.Context,
	turn int,
	sr *schema.StreamReader[*schema.Message],
	yield func(string, error) bool,
) (turnOutcome, *schema.Message) {
	defer sr.Close()

	var chunks []*schema.Message
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			yield("", fmt.Errorf("%w: %s specialist turn %d stream: %v", contractx.ErrModelInvoke, a.kind, turn, err))
			return turnStopped, nil
		}
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) == 0 {
		return turnAnswered, nil
	}

	msg, err := schema.ConcatMessages(chunks)
	if err != nil {
		yield("", fmt.Errorf("%w: %s specialist turn %d: concat stream chunks: %v", contractx.ErrModelInvoke, a.kind, turn, err))
		return turnStopped, nil
	}
	if len(msg.ToolCalls) > 0 {
		if msg.Content != "" {
			zerolog.Ctx(ctx).Debug().Stringer("specialist", a.kind).Int("turn", turn).
				Msg("tool turn carried text, kept in history only")
		}
		return turnToolCalls, msg
	}

	for _, chunk := range chunks {
		if chunk.Content == "" {
			continue
		}
		if !yield(chunk.Content, nil) {
			return turnStopped, nil
		}
	}
	return turnAnswered, nil
}
