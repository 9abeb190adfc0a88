package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapSchema(t *testing.T) {
	tests := []struct {
		name        string
		schema      string
		wantWrapped bool
	}{
		{
			name:        "object root is passed through",
			schema:      `{"type":"object","properties":{"title":{"type":"string"}}}`,
			wantWrapped: false,
		},
		{
			name:        "array root is wrapped",
			schema:      `{"type":"array","items":{"type":"string"}}`,
			wantWrapped: true,
		},
		{
			name:        "scalar root is wrapped",
			schema:      `{"type":"integer"}`,
			wantWrapped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, wrapped, err := WrapSchema(json.RawMessage(tt.schema))
			require.NoError(t, err)
			assert.Equal(t, tt.wantWrapped, wrapped)

			if !tt.wantWrapped {
				assert.JSONEq(t, tt.schema, string(got))
				return
			}

			var root map[string]any
			require.NoError(t, json.Unmarshal(got, &root))
			assert.Equal(t, "object", root["type"])
			assert.Equal(t, []any{"result"}, root["required"])
		})
	}
}

func TestWrapSchema_Invalid(t *testing.T) {
	_, _, err := WrapSchema(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestUnwrapResult(t *testing.T) {
	got, err := UnwrapResult(json.RawMessage(`{"result":[1,2]}`), true)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(got))

	got, err = UnwrapResult(json.RawMessage(`{"title":"x"}`), false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x"}`, string(got))

	_, err = UnwrapResult(json.RawMessage(`{"other":1}`), true)
	assert.Error(t, err)

	_, err = UnwrapResult(json.RawMessage(`[1]`), true)
	assert.Error(t, err)
}

func TestToolResultText(t *testing.T) {
	assert.Equal(t, "Tool 'browser_click' result:\nclicked", ToolResultText("browser_click", "clicked"))
}
