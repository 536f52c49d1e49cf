// Package guardrail validates user input before any model call and cleans
// model output before it reaches the user.
package guardrail

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tanpawarit/partselect-assistant/agent/productcard"
)

const (
	MaxInputLength = 2000 // characters
	MinInputLength = 1
)

type Reason string

const (
	ReasonNone      Reason = ""
	ReasonEmpty     Reason = "empty"
	ReasonTooLong   Reason = "too_long"
	ReasonInjection Reason = "injection"
	ReasonOffTopic  Reason = "off_topic"
)

const (
	emptyMessage     = "Please type a message to get started."
	injectionMessage = "I'm here to help with refrigerator and dishwasher parts. How can I assist you?"
)

// Appliances we do not support. Matched as lowercase substrings.
var offTopicKeywords = []string{
	"microwave", "oven", "washer", "dryer", "stove", "range",
	"air conditioner", "hvac", "furnace", "water heater",
	"lawn mower", "vacuum", "toaster",
}

var inDomainKeywords = []string{
	"refrigerator", "fridge", "dishwasher", "freezer", "ice maker",
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|above|all)\s+(instructions|prompts)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+a`),
	regexp.MustCompile(`(?i)forget\s+(everything|your\s+instructions)`),
	regexp.MustCompile(`(?i)system\s*prompt`),
	regexp.MustCompile(`(?i)act\s+as\s+if`),
}

// <|...|> sequences some models leak from their chat template.
var internalMarkerPattern = regexp.MustCompile(`<\|.*?\|>`)

type Result struct {
	Passed  bool
	Reason  Reason
	Message string
}

func pass() Result {
	return Result{Passed: true}
}

func reject(reason Reason, msg string) Result {
	return Result{Passed: false, Reason: reason, Message: msg}
}

// CheckInput validates a single user message.
func CheckInput(text string) Result {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinInputLength {
		return reject(ReasonEmpty, emptyMessage)
	}

	if n := utf8.RuneCountInString(text); n > MaxInputLength {
		return reject(ReasonTooLong, fmt.Sprintf(
			"Message is too long (%d chars). Please keep it under %d characters.", n, MaxInputLength,
		))
	}

	// injection wins over off-topic
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			return reject(ReasonInjection, injectionMessage)
		}
	}

	lower := strings.ToLower(text)
	if hasAny(lower, inDomainKeywords) {
		return pass()
	}
	for _, kw := range offTopicKeywords {
		if strings.Contains(lower, kw) {
			return reject(ReasonOffTopic, fmt.Sprintf(
				"I specialize in **refrigerator** and **dishwasher** parts only. "+
					"I can't help with %ss, but I'd be happy to help if you have "+
					"a refrigerator or dishwasher question!", kw,
			))
		}
	}

	return pass()
}

// CleanOutput strips leaked internal markers and malformed product card
// blocks, then trims whitespace. Applying it twice equals applying it once.
func CleanOutput(text string) string {
	for {
		next := cleanOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanOnce(text string) string {
	text = internalMarkerPattern.ReplaceAllString(text, "")

	if block, ok := productcard.Find(text); ok && !block.Valid() {
		text = text[:block.Start] + text[block.End:]
	}

	return strings.TrimSpace(text)
}

func hasAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
