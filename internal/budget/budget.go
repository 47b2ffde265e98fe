// Package budget bounds prompt size for the generative backends. Because
// carrierfit supports several LLM backends with different tokenizers, it uses
// a conservative character heuristic: 1 token ≈ 4 characters.
package budget

import (
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// DefaultMaxPromptTokens is the input budget a recommendation prompt is
	// expected to stay under. It fits 8k-context models with room for output.
	DefaultMaxPromptTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// ~4 tokens of per-message overhead in most APIs.
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Truncate returns the first maxChars characters of s. It never splits a
// multi-byte rune. maxChars <= 0 returns s unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	i := 0
	for pos := range s {
		if i == maxChars {
			return s[:pos]
		}
		i++
	}
	return s
}

// Fits reports whether msgs are estimated to fit within maxTokens.
func Fits(msgs []*schema.Message, maxTokens int) bool {
	return EstimateMessages(msgs) <= maxTokens
}
