package agent

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/types"
)

// TabState describes one tab.
type TabState struct {
	URL string `json:"url"`

	// Snapshot is the structural document of the tab's snapshot, empty
	// when the tab holds none
	Snapshot string `json:"snapshot,omitempty"`
}

// State is a copy of the agent's observable state. Changing it does not
// affect the agent.
type State struct {
	Messages   []*types.Message `json:"messages"`
	Tabs       []TabState       `json:"tabs"`
	CurrentTab *TabState        `json:"currentTab,omitempty"`
}

// State returns the conversation and tab state.
func (a *Agent) State() *State {
	a.mu.Lock()
	messages := types.CloneMessages(a.messages)
	a.mu.Unlock()

	state := &State{
		Messages: messages,
		Tabs:     []TabState{},
	}
	for _, t := range a.sess.Tabs() {
		state.Tabs = append(state.Tabs, tabState(t))
	}
	if current, err := a.sess.CurrentTab(); err == nil {
		s := tabState(current)
		state.CurrentTab = &s
	}
	return state
}

func tabState(t *tab.Tab) TabState {
	s := TabState{URL: t.URL()}
	if snapshot, ok := t.Snapshot(); ok {
		s.Snapshot = snapshot.Content()
	}
	return s
}

// Screenshot is an encoded page image.
type Screenshot struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

// Screenshot captures the current tab's viewport as PNG.
func (a *Agent) Screenshot(ctx context.Context) (*Screenshot, error) {
	current, err := a.sess.CurrentTab()
	if err != nil {
		return nil, err
	}

	data, err := current.Page().Screenshot(ctx, driver.ScreenshotOptions{})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	return &Screenshot{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MimeType: "image/png",
	}, nil
}
