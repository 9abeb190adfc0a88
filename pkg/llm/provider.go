// Package llm defines the model boundary used by the agent: one request
// carrying the conversation and the tool catalogue, one response carrying
// text and tool calls.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Chat(ctx, &llm.ChatRequest{
//	    Messages: []*types.Message{types.NewUserMessage("Hello!")},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text)
package llm

import (
	"context"
	"encoding/json"

	"github.com/entrhq/webpilot/pkg/types"
)

// ToolSchema describes one callable tool to the model.
type ToolSchema struct {
	Name        string
	Description string

	// Parameters is a JSON Schema object
	Parameters json.RawMessage
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ResponseSchema asks for a structured answer instead of free text.
type ResponseSchema struct {
	// Name identifies the schema to providers that require one
	Name string

	// Schema is any JSON Schema; providers that only accept object roots
	// wrap it with WrapSchema
	Schema json.RawMessage
}

// ChatRequest is a single model round trip.
type ChatRequest struct {
	Messages []*types.Message
	Tools    []ToolSchema

	// ResponseSchema, when set, makes Text of the response a JSON document
	// conforming to the schema
	ResponseSchema *ResponseSchema
}

// ChatResponse is what the model produced for a ChatRequest.
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// Provider defines the interface for LLM integrations.
//
// Providers translate the conversation into their API's wire format and
// back. They hold no conversation state: the agent owns the history and
// sends the full message list on every call.
type Provider interface {
	// Chat sends one request and waits for the complete response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string
}
