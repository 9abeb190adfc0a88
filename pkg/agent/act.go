package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/webpilot/pkg/llm"
	"github.com/entrhq/webpilot/pkg/session"
	"github.com/entrhq/webpilot/pkg/tool"
	"github.com/entrhq/webpilot/pkg/types"
)

// Act appends instruction as a user message, calls the model once with the
// conversation and the tool catalogue, and runs the returned tool calls one
// after another. Tool failures become error-flagged tool messages; only
// lifecycle errors such as a closed context, a tool run without a current
// tab or a failed model call are returned.
func (a *Agent) Act(ctx context.Context, instruction string) error {
	if err := a.sess.Err(); err != nil {
		return err
	}

	a.turn.Lock()
	defer a.turn.Unlock()

	a.mu.Lock()
	a.messages = append(a.messages, types.NewUserMessage(instruction))
	req := &llm.ChatRequest{
		Messages: types.CloneMessages(a.messages),
		Tools:    a.tools,
	}
	a.mu.Unlock()

	resp, err := a.chat(ctx, req)
	if err != nil {
		a.emit(types.NewErrorEvent(err))
		return err
	}

	a.mu.Lock()
	a.messages = a.history.Prune(a.messages)
	a.mu.Unlock()

	if len(resp.ToolCalls) == 0 {
		a.emit(types.NewNoToolCallEvent())
	}
	for _, call := range resp.ToolCalls {
		if err := a.runToolCall(ctx, call); err != nil {
			a.emit(types.NewErrorEvent(err))
			return err
		}
	}

	if resp.Text != "" {
		a.appendMessage(types.NewAssistantMessage(resp.Text))
		if a.verbose {
			logger.Infof("assistant: %s", resp.Text)
		}
	}

	a.emit(types.NewTurnEndEvent())
	return nil
}

func (a *Agent) runToolCall(ctx context.Context, call llm.ToolCall) error {
	a.emit(types.NewToolCallEvent(call.Name, argumentsMap(call.Arguments)))

	resp, err := a.sess.Run(ctx, call.Name, call.Arguments)
	if errors.Is(err, tool.ErrUnknownTool) {
		// The model can recover from naming a tool that does not exist
		a.appendMessage(types.NewToolMessage(call.Name, err.Error(), true))
		a.emit(types.NewToolResultErrorEvent(call.Name, err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("tool %s: %w", call.Name, err)
	}

	text := resp.Text()
	a.appendMessage(types.NewToolMessage(call.Name, text, resp.IsError()))

	if resp.IsError() {
		a.emit(types.NewToolResultErrorEvent(call.Name, resp.Err()))
	} else {
		a.emit(types.NewToolResultEvent(call.Name, text))
	}
	if a.verbose {
		logger.Infof("%s %s\n%s", call.Name, string(call.Arguments), text)
	}

	// The caller has to navigate or select a tab; retrying cannot help
	if errors.Is(resp.Err(), session.ErrNoCurrentTab) {
		return fmt.Errorf("tool %s: %w", call.Name, resp.Err())
	}
	return nil
}

func (a *Agent) chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := a.provider.GetModel()
	if logger.DebugEnabled() {
		logger.Debugf("calling %s with %d messages (~%d tokens) and %d tools",
			model, len(req.Messages), promptTokens(req.Messages), len(req.Tools))
	}

	a.emit(types.NewAPICallStartEvent(model, len(req.Messages), len(req.Tools)))
	resp, err := a.provider.Chat(ctx, req)
	a.emit(types.NewAPICallEndEvent(model))
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	return resp, nil
}

func (a *Agent) appendMessage(m *types.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, m)
}

// argumentsMap decodes tool arguments for events; anything that is not a
// JSON object yields an empty map.
func argumentsMap(raw json.RawMessage) map[string]interface{} {
	args := make(map[string]interface{})
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	return args
}
