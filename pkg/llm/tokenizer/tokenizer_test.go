package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/webpilot/pkg/types"
)

func TestNilTokenizerEstimates(t *testing.T) {
	var tok *Tokenizer
	assert.Equal(t, 3, tok.Count("twelve chars"))
	assert.Equal(t, 3+perMessageOverhead, tok.CountMessages([]*types.Message{types.NewUserMessage("twelve chars")}))
}

func TestCount(t *testing.T) {
	if testing.Short() {
		t.Skip("loading the encoding may download data")
	}
	tok, err := New()
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	assert.Equal(t, 0, tok.Count(""))
	assert.Positive(t, tok.Count("navigate to the todo list"))
	assert.Greater(t,
		tok.CountMessages([]*types.Message{types.NewUserMessage("a"), types.NewUserMessage("b")}),
		tok.CountMessages([]*types.Message{types.NewUserMessage("a")}),
	)
}
