package llm

import (
	"encoding/json"
	"fmt"
)

// ResultProperty names the field a wrapped schema stores the answer in.
const ResultProperty = "result"

// WrapSchema returns schema unchanged when its root is an object, and
// otherwise an object schema holding it under ResultProperty. The boolean
// reports whether wrapping happened.
func WrapSchema(schema json.RawMessage) (json.RawMessage, bool, error) {
	var root map[string]any
	if err := json.Unmarshal(schema, &root); err != nil {
		return nil, false, fmt.Errorf("invalid response schema: %w", err)
	}
	if t, ok := root["type"].(string); ok && t == "object" {
		return schema, false, nil
	}

	wrapped, err := json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           map[string]any{ResultProperty: json.RawMessage(schema)},
		"required":             []string{ResultProperty},
		"additionalProperties": false,
	})
	if err != nil {
		return nil, false, err
	}
	return wrapped, true, nil
}

// UnwrapResult reverses WrapSchema on a model answer.
func UnwrapResult(answer json.RawMessage, wrapped bool) (json.RawMessage, error) {
	if !wrapped {
		return answer, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(answer, &envelope); err != nil {
		return nil, fmt.Errorf("structured answer is not an object: %w", err)
	}
	result, ok := envelope[ResultProperty]
	if !ok {
		return nil, fmt.Errorf("structured answer has no %q field", ResultProperty)
	}
	return result, nil
}

// ToolResultText renders a tool message for providers that receive tool
// output as plain user text.
func ToolResultText(toolName, content string) string {
	return fmt.Sprintf("Tool '%s' result:\n%s", toolName, content)
}
