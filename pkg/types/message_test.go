package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		role MessageRole
	}{
		{name: "system", msg: NewSystemMessage("s"), role: RoleSystem},
		{name: "user", msg: NewUserMessage("u"), role: RoleUser},
		{name: "assistant", msg: NewAssistantMessage("a"), role: RoleAssistant},
		{name: "tool", msg: NewToolMessage("browser_snapshot", "t", false), role: RoleTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.role, tt.msg.Role)
		})
	}

	toolMsg := NewToolMessage("browser_click", "network timeout", true)
	assert.Equal(t, "browser_click", toolMsg.ToolName)
	assert.True(t, toolMsg.IsError)
}

func TestCloneMessages(t *testing.T) {
	original := []*Message{NewUserMessage("hello"), NewToolMessage("browser_wait", "waited", false)}

	cloned := CloneMessages(original)
	cloned[0].Content = "changed"
	cloned[1].ToolName = "other"

	assert.Equal(t, "hello", original[0].Content)
	assert.Equal(t, "browser_wait", original[1].ToolName)
	assert.Nil(t, (*Message)(nil).Clone())
}
