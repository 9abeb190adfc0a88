package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/entrhq/webpilot/pkg/llm"
	"github.com/entrhq/webpilot/pkg/types"
)

// ExtractionPrompt embeds the page snapshot ahead of the instruction.
func ExtractionPrompt(snapshot, instruction string) string {
	return fmt.Sprintf("Given the following context:\n\n%s\n\n%s", snapshot, instruction)
}

// Extract asks the model about the current tab's snapshot. With a nil
// schema the answer is returned as a string. Otherwise the model is asked
// for JSON conforming to schema and the decoded, validated value is
// returned.
//
// Extract never navigates or recaptures: without a current tab it fails
// with session.ErrNoCurrentTab, and without a snapshot with
// tab.ErrNoSnapshot, in both cases before the model is called. The
// conversation used by Act is not touched.
func (a *Agent) Extract(ctx context.Context, instruction string, schema json.RawMessage) (any, error) {
	var resolved *jsonschema.Resolved
	if len(schema) > 0 {
		var s jsonschema.Schema
		if err := json.Unmarshal(schema, &s); err != nil {
			return nil, fmt.Errorf("invalid extraction schema: %w", err)
		}
		r, err := s.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("invalid extraction schema: %w", err)
		}
		resolved = r
	}

	answer, err := a.extract(ctx, instruction, schema)
	if err != nil {
		return nil, err
	}

	if resolved == nil {
		a.extracted(answer)
		return answer, nil
	}

	var value any
	if err := json.Unmarshal([]byte(answer), &value); err != nil {
		return nil, fmt.Errorf("extraction answer is not valid JSON: %w", err)
	}
	if err := resolved.Validate(value); err != nil {
		return nil, fmt.Errorf("extraction answer does not match the schema: %w", err)
	}

	a.extracted(value)
	return value, nil
}

// ExtractAs extracts into T, deriving the schema from T.
func ExtractAs[T any](ctx context.Context, a *Agent, instruction string) (T, error) {
	var out T

	s, err := jsonschema.For[T](nil)
	if err != nil {
		return out, fmt.Errorf("cannot derive schema for %T: %w", out, err)
	}
	schema, err := json.Marshal(s)
	if err != nil {
		return out, err
	}

	value, err := a.Extract(ctx, instruction, schema)
	if err != nil {
		return out, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("cannot decode extraction answer into %T: %w", out, err)
	}
	return out, nil
}

func (a *Agent) extract(ctx context.Context, instruction string, schema json.RawMessage) (string, error) {
	if err := a.sess.Err(); err != nil {
		return "", err
	}

	current, err := a.sess.CurrentTab()
	if err != nil {
		return "", err
	}
	snapshot, err := current.SnapshotOrErr()
	if err != nil {
		return "", err
	}

	req := &llm.ChatRequest{
		Messages: []*types.Message{
			types.NewUserMessage(ExtractionPrompt(snapshot.Content(), instruction)),
		},
	}
	if len(schema) > 0 {
		req.ResponseSchema = &llm.ResponseSchema{Name: "extraction", Schema: schema}
	}

	resp, err := a.chat(ctx, req)
	if err != nil {
		a.emit(types.NewErrorEvent(err))
		return "", err
	}
	return resp.Text, nil
}

func (a *Agent) extracted(result any) {
	a.emit(types.NewExtractionEvent(result))
	if a.verbose {
		logger.Infof("extracted: %v", result)
	}
}
