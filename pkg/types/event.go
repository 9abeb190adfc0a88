package types

// AgentEventType defines the type of event emitted by the agent.
type AgentEventType string

const (
	EventTypeToolCall        AgentEventType = "tool_call"         // EventTypeToolCall indicates the agent is calling a tool.
	EventTypeToolResult      AgentEventType = "tool_result"       // EventTypeToolResult indicates a successful tool call result.
	EventTypeToolResultError AgentEventType = "tool_result_error" // EventTypeToolResultError indicates a tool call resulted in an error.
	EventTypeNoToolCall      AgentEventType = "no_tool_call"      // EventTypeNoToolCall indicates the model answered without calling any tools.
	EventTypeAPICallStart    AgentEventType = "api_call_start"    // EventTypeAPICallStart indicates the agent is calling the model.
	EventTypeAPICallEnd      AgentEventType = "api_call_end"      // EventTypeAPICallEnd indicates a model call has completed.
	EventTypeExtraction      AgentEventType = "extraction"        // EventTypeExtraction indicates an extraction produced a result.
	EventTypeTurnEnd         AgentEventType = "turn_end"          // EventTypeTurnEnd indicates the agent has finished processing the current act call.
	EventTypeError           AgentEventType = "error"             // EventTypeError indicates an error occurred during agent processing.
)

// AgentEvent represents an event emitted by the agent during execution.
type AgentEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// ToolInput is the input being sent to the tool (for tool call events).
	ToolInput map[string]interface{}

	// ToolOutput is the result from the tool (for tool result events).
	ToolOutput interface{}

	// Error contains error information for error events.
	Error error

	// ToolName is the name of the tool being called (for tool events).
	ToolName string

	// Type indicates the kind of event.
	Type AgentEventType

	// APICallInfo contains API call information (for API call events).
	APICallInfo *APICallInfo
}

// APICallInfo contains information about a model call.
type APICallInfo struct {
	// Model is the model name the call was sent to.
	Model string

	// MessageCount is the number of messages sent with the call.
	MessageCount int

	// ToolCount is the number of tool schemas sent with the call.
	ToolCount int
}

// IsError returns true if the event carries an error.
func (e *AgentEvent) IsError() bool {
	return e.Type == EventTypeError || e.Type == EventTypeToolResultError
}

// NewToolCallEvent creates a tool call event.
func NewToolCallEvent(toolName string, toolInput map[string]interface{}) *AgentEvent {
	return &AgentEvent{
		Type:      EventTypeToolCall,
		ToolName:  toolName,
		ToolInput: toolInput,
		Metadata:  make(map[string]interface{}),
	}
}

// NewToolResultEvent creates a tool result event.
func NewToolResultEvent(toolName string, output interface{}) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeToolResult,
		ToolName:   toolName,
		ToolOutput: output,
		Metadata:   make(map[string]interface{}),
	}
}

// NewToolResultErrorEvent creates a tool result error event.
func NewToolResultErrorEvent(toolName string, err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeToolResultError,
		ToolName: toolName,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// NewNoToolCallEvent creates a no tool call event.
func NewNoToolCallEvent() *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeNoToolCall,
		Metadata: make(map[string]interface{}),
	}
}

// NewAPICallStartEvent creates a model call start event.
func NewAPICallStartEvent(model string, messageCount, toolCount int) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeAPICallStart,
		Metadata: map[string]interface{}{"api_name": model},
		APICallInfo: &APICallInfo{
			Model:        model,
			MessageCount: messageCount,
			ToolCount:    toolCount,
		},
	}
}

// NewAPICallEndEvent creates a model call end event.
func NewAPICallEndEvent(model string) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeAPICallEnd,
		Metadata: map[string]interface{}{"api_name": model},
	}
}

// NewExtractionEvent creates an extraction result event.
func NewExtractionEvent(result interface{}) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeExtraction,
		ToolOutput: result,
		Metadata:   make(map[string]interface{}),
	}
}

// NewTurnEndEvent creates a turn end event.
func NewTurnEndEvent() *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeTurnEnd,
		Metadata: make(map[string]interface{}),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeError,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}
