package types

// MessageRole identifies which participant authored a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // RoleSystem is the instruction preamble sent ahead of the conversation.
	RoleUser      MessageRole = "user"      // RoleUser carries instructions from the caller.
	RoleAssistant MessageRole = "assistant" // RoleAssistant carries text produced by the model.
	RoleTool      MessageRole = "tool"      // RoleTool carries the serialized output of one tool invocation.
)

// Message is one entry of the act conversation.
//
// ToolName and IsError are only meaningful for RoleTool messages.
type Message struct {
	Role     MessageRole `json:"role"`
	Content  string      `json:"content"`
	ToolName string      `json:"name,omitempty"`
	IsError  bool        `json:"is_error,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool message carrying the output of toolName.
func NewToolMessage(toolName, content string, isError bool) *Message {
	return &Message{Role: RoleTool, Content: content, ToolName: toolName, IsError: isError}
}

// Clone returns a copy of m that shares no memory with it.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// CloneMessages deep-copies a message slice.
func CloneMessages(messages []*Message) []*Message {
	out := make([]*Message, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}
