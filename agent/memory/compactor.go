// Package memory bounds the conversation sent to the models by folding older
// turns into a short summary once the history grows past a token budget.
package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	"github.com/tanpawarit/partselect-assistant/pkg/metrics"
)

const (
	DefaultMaxHistoryTokens = 6000
	DefaultKeepRecent       = 10
	DefaultSummaryMaxTokens = 300
	maxSummaryInputChars    = 500

	SummaryPrefix = "[Previous conversation summary: "
)

var _ contractx.Compactor = (*Compactor)(nil)

type Config struct {
	MaxHistoryTokens int `split_words:"true" default:"6000"`
	KeepRecent       int `split_words:"true" default:"10"`
	SummaryMaxTokens int `split_words:"true" default:"300"`
}

type Compactor struct {
	model        einomodel.BaseChatModel
	counter      TokenCounter
	systemPrompt string
	cfg          Config
}

type Option func(*Compactor)

func WithTokenCounter(counter TokenCounter) Option {
	return func(c *Compactor) {
		if counter != nil {
			c.counter = counter
		}
	}
}

func NewCompactor(model einomodel.BaseChatModel, systemPrompt string, cfg Config, opts ...Option) (*Compactor, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: summary model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: summary prompt", contractx.ErrPromptMissing)
	}
	if cfg.MaxHistoryTokens <= 0 {
		cfg.MaxHistoryTokens = DefaultMaxHistoryTokens
	}
	if cfg.KeepRecent <= 0 {
		cfg.KeepRecent = DefaultKeepRecent
	}
	if cfg.SummaryMaxTokens <= 0 {
		cfg.SummaryMaxTokens = DefaultSummaryMaxTokens
	}

	c := &Compactor{
		model:        model,
		counter:      NewTiktokenCounter(TokenModel),
		systemPrompt: strings.TrimSpace(systemPrompt),
		cfg:          cfg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Summarize returns history unchanged while it is short or cheap enough.
// Otherwise the older part is replaced by one summary message in front of the
// last KeepRecent messages. A failing summarizer degrades to the recent
// messages alone.
func (c *Compactor) Summarize(ctx context.Context, history []*schema.Message) []*schema.Message {
	if len(history) <= c.cfg.KeepRecent {
		return history
	}

	tokens := CountMessages(c.counter, history)
	if tokens <= c.cfg.MaxHistoryTokens {
		return history
	}

	logger := zerolog.Ctx(ctx)
	cut := len(history) - c.cfg.KeepRecent
	old := history[:cut]
	recent := append([]*schema.Message(nil), history[cut:]...)

	resp, err := c.model.Generate(ctx,
		[]*schema.Message{
			schema.SystemMessage(c.systemPrompt),
			schema.UserMessage(formatForSummary(old)),
		},
		einomodel.WithTemperature(0),
		einomodel.WithMaxTokens(c.cfg.SummaryMaxTokens),
	)
	if err != nil || resp == nil {
		logger.Warn().Err(err).Int("tokens", tokens).Int("dropped", len(old)).
			Msg("history summarization failed, keeping recent messages only")
		metrics.Compactions.WithLabelValues("fallback").Inc()
		return recent
	}

	logger.Debug().Int("tokens", tokens).Int("summarized", len(old)).Msg("history compacted")
	metrics.Compactions.WithLabelValues("summarized").Inc()

	summary := schema.UserMessage(SummaryPrefix + strings.TrimSpace(resp.Content) + "]")
	return append([]*schema.Message{summary}, recent...)
}

func formatForSummary(history []*schema.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		if m == nil || m.Content == "" {
			continue
		}
		if m.Role != schema.User && m.Role != schema.Assistant {
			continue
		}
		content := m.Content
		if utf8.RuneCountInString(content) > maxSummaryInputChars {
			content = truncateRunes(content, maxSummaryInputChars) + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, content))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
