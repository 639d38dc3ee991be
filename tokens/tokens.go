// Package tokens provides token counting for chunking and budget enforcement.
package tokens

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter reports how many tokens a text occupies under the tokenizer used by
// the embedding and completion models.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a tiktoken encoding. Safe for concurrent
// use; the underlying encoder is stateless after construction.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter builds a counter for the given encoding name
// (e.g. "cl100k_base", which covers the gpt-3.5/gpt-4 families and
// text-embedding-3-small).
func NewTiktokenCounter(encodingName string) (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

var _ Counter = (*TiktokenCounter)(nil)

// EstimateCounter approximates token counts from rune length. It exists as a
// deterministic fallback when the tiktoken vocabulary is unavailable (for
// example in offline environments) and for tests.
type EstimateCounter struct{}

// Count assumes ~4 runes per token, with a floor of one token per word.
func (EstimateCounter) Count(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	runes := utf8.RuneCountInString(text) / 4
	if runes > words {
		return runes
	}
	return words
}

var _ Counter = EstimateCounter{}

// NewCounter returns a tiktoken-backed counter for cl100k_base, falling back
// to the rune estimator when the encoding cannot be loaded.
func NewCounter() Counter {
	counter, err := NewTiktokenCounter("cl100k_base")
	if err != nil {
		return EstimateCounter{}
	}
	return counter
}
