// Package anthropic provides an llm.Provider over the Anthropic Messages API.
//
// Structured answers are obtained by forcing a call to a synthetic tool
// whose input schema is the requested response schema.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/entrhq/webpilot/pkg/llm"
	"github.com/entrhq/webpilot/pkg/types"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds each response
	DefaultMaxTokens = 4096

	// answerTool is the synthetic tool that carries structured answers
	answerTool = "return_result"
)

// Provider implements llm.Provider for Anthropic models.
type Provider struct {
	client     anthropic.Client
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	maxRetries int
}

var _ llm.Provider = (*Provider)(nil)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL points the provider at a different API endpoint.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = n
	}
}

// WithMaxRetries sets how often a failed request is retried.
func WithMaxRetries(n int) ProviderOption {
	return func(p *Provider) {
		p.maxRetries = n
	}
}

// NewProvider creates a provider. An empty apiKey falls back to the
// ANTHROPIC_API_KEY environment variable.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (provide via parameter or ANTHROPIC_API_KEY environment variable)")
	}

	p := &Provider{
		apiKey:     apiKey,
		model:      DefaultModel,
		maxTokens:  DefaultMaxTokens,
		httpClient: &http.Client{},
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(p.maxRetries),
	}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.baseURL))
	}
	p.client = anthropic.NewClient(clientOpts...)

	return p, nil
}

// Chat sends one Messages API request.
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, messages := convertMessages(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	tools, err := convertTools(req.Tools)
	if err != nil {
		return nil, err
	}

	wrapped := false
	if req.ResponseSchema != nil {
		var schema json.RawMessage
		schema, wrapped, err = llm.WrapSchema(req.ResponseSchema.Schema)
		if err != nil {
			return nil, err
		}
		answer, err := toolParam(llm.ToolSchema{
			Name:        answerTool,
			Description: "Return the answer in the required structure",
			Parameters:  schema,
		})
		if err != nil {
			return nil, err
		}
		tools = append(tools, answer)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: answerTool},
		}
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("messages request failed: %w", err)
	}

	var text strings.Builder
	resp := &llm.ChatResponse{}
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			input, err := json.Marshal(variant.Input)
			if err != nil {
				return nil, fmt.Errorf("invalid tool input for %s: %w", variant.Name, err)
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: input,
			})
		}
	}
	resp.Text = text.String()

	if req.ResponseSchema == nil {
		return resp, nil
	}

	for _, call := range resp.ToolCalls {
		if call.Name != answerTool {
			continue
		}
		result, err := llm.UnwrapResult(call.Arguments, wrapped)
		if err != nil {
			return nil, err
		}
		return &llm.ChatResponse{Text: string(result)}, nil
	}
	return nil, fmt.Errorf("model did not return a structured answer")
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the configured base URL, or "" for the SDK default.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

func convertTools(schemas []llm.ToolSchema) ([]anthropic.ToolUnionParam, error) {
	tools := make([]anthropic.ToolUnionParam, 0, len(schemas)+1)
	for _, s := range schemas {
		t, err := toolParam(s)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func toolParam(s llm.ToolSchema) (anthropic.ToolUnionParam, error) {
	var schema struct {
		Properties any      `json:"properties"`
		Required   []string `json:"required"`
	}
	if err := json.Unmarshal(s.Parameters, &schema); err != nil {
		return anthropic.ToolUnionParam{}, fmt.Errorf("invalid parameters schema for %s: %w", s.Name, err)
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema.Properties,
				Required:   schema.Required,
			},
		},
	}, nil
}

// convertMessages splits out the system prompt and merges consecutive
// messages of the same role. Tool output travels as user text.
func convertMessages(messages []*types.Message) (string, []anthropic.MessageParam) {
	var system []string
	var result []anthropic.MessageParam

	appendBlock := func(role anthropic.MessageParamRole, text string) {
		block := anthropic.NewTextBlock(text)
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, block)
			return
		}
		result = append(result, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{block},
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			system = append(system, msg.Content)
		case types.RoleAssistant:
			if msg.Content != "" {
				appendBlock(anthropic.MessageParamRoleAssistant, msg.Content)
			}
		case types.RoleTool:
			appendBlock(anthropic.MessageParamRoleUser, llm.ToolResultText(msg.ToolName, msg.Content))
		default:
			appendBlock(anthropic.MessageParamRoleUser, msg.Content)
		}
	}

	return strings.Join(system, "\n\n"), result
}
