package memory

import (
	"sync"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

const (
	// TokenModel is the model whose tokenizer approximates history cost.
	TokenModel        = "gpt-4o"
	fallbackEncoding  = "cl100k_base"
	perMessageTokens  = 4
	heuristicCharsPer = 4
)

type TokenCounter interface {
	Count(text string) int
}

type TokenCounterFunc func(text string) int

func (f TokenCounterFunc) Count(text string) int { return f(text) }

// TiktokenCounter encodes with the target model's BPE, falling back to
// cl100k_base and finally to a character heuristic when no encoding loads.
type TiktokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

func NewTiktokenCounter(model string) *TiktokenCounter {
	if model == "" {
		model = TokenModel
	}
	return &TiktokenCounter{model: model}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(c.load)
	if c.enc == nil {
		return heuristicCount(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

func (c *TiktokenCounter) load() {
	enc, err := tiktoken.EncodingForModel(c.model)
	if err == nil {
		c.enc = enc
		return
	}
	enc, fbErr := tiktoken.GetEncoding(fallbackEncoding)
	if fbErr == nil {
		c.enc = enc
		return
	}
	log.Warn().Err(err).AnErr("fallback_err", fbErr).Str("model", c.model).
		Msg("tokenizer unavailable, using character heuristic")
}

func heuristicCount(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + heuristicCharsPer - 1) / heuristicCharsPer
}

// CountMessages approximates the prompt cost of a transcript.
func CountMessages(counter TokenCounter, history []*schema.Message) int {
	total := 0
	for _, m := range history {
		if m == nil {
			continue
		}
		total += perMessageTokens
		total += counter.Count(m.Content)
		total += counter.Count(string(m.Role))
	}
	return total
}
