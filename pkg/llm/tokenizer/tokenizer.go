// Package tokenizer counts prompt tokens on the client side.
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/webpilot/pkg/types"
)

// DefaultEncoding is used for every model; counts are estimates.
const DefaultEncoding = "cl100k_base"

// perMessageOverhead approximates the role and framing tokens of a message.
const perMessageOverhead = 4

// Tokenizer counts tokens with a tiktoken encoding.
type Tokenizer struct {
	mu       sync.Mutex
	encoding *tiktoken.Tiktoken
}

// New loads the default encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{encoding: enc}, nil
}

// Count returns the token count of text. A nil Tokenizer estimates four
// characters per token.
func (t *Tokenizer) Count(text string) int {
	if t == nil || t.encoding == nil {
		return len(text) / 4
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessages returns the estimated prompt size of messages.
func (t *Tokenizer) CountMessages(messages []*types.Message) int {
	total := 0
	for _, m := range messages {
		total += t.Count(m.Content) + perMessageOverhead
	}
	return total
}
