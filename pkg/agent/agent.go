// Package agent drives a browser through a model.
//
// Act performs one model round trip with the full tool catalogue and runs
// the tool calls the model returns, in order. Extract asks the model a
// one-shot question about the current page snapshot. Neither loops: a
// caller that wants multi-step behavior issues repeated Act calls.
//
//	ag, err := agent.Open(cfg, playwright.NewFactory(playwright.OptionsFromConfig(cfg)), provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ag.Close()
//
//	if err := ag.Act(ctx, "Navigate to https://demo.playwright.dev/todomvc"); err != nil {
//	    log.Fatal(err)
//	}
package agent

import (
	"errors"
	"sync"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/driver"
	"github.com/entrhq/webpilot/pkg/llm"
	"github.com/entrhq/webpilot/pkg/llm/tokenizer"
	"github.com/entrhq/webpilot/pkg/logging"
	"github.com/entrhq/webpilot/pkg/session"
	"github.com/entrhq/webpilot/pkg/tab"
	"github.com/entrhq/webpilot/pkg/tools/browser"
	"github.com/entrhq/webpilot/pkg/types"
)

var logger = logging.NewLogger("agent")

var (
	tokenizerOnce sync.Once
	promptCounter *tokenizer.Tokenizer
)

// promptTokens estimates the size of messages. The encoding is loaded on
// first use; without it the count falls back to a character estimate.
func promptTokens(messages []*types.Message) int {
	tokenizerOnce.Do(func() {
		tok, err := tokenizer.New()
		if err != nil {
			logger.Debugf("token counting disabled: %v", err)
		}
		promptCounter = tok
	})
	return promptCounter.CountMessages(messages)
}

// Agent owns the conversation with the model and borrows a browser
// context to execute tool calls.
type Agent struct {
	sess     *session.Context
	provider llm.Provider
	history  HistoryPolicy
	onEvent  func(*types.AgentEvent)
	verbose  bool
	tools    []llm.ToolSchema

	systemPrompt string

	// turn serializes Act calls; mu guards messages
	turn     sync.Mutex
	mu       sync.Mutex
	messages []*types.Message
}

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt replaces the configured system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithHistoryPolicy sets how tool messages of earlier turns are pruned.
func WithHistoryPolicy(policy HistoryPolicy) Option {
	return func(a *Agent) {
		a.history = policy
	}
}

// WithEventHandler receives every agent event. The handler runs on the
// calling goroutine and must not call back into the Agent.
func WithEventHandler(fn func(*types.AgentEvent)) Option {
	return func(a *Agent) {
		a.onEvent = fn
	}
}

// WithVerbose logs every tool run and extraction at info level.
func WithVerbose(verbose bool) Option {
	return func(a *Agent) {
		a.verbose = verbose
	}
}

// New creates an agent over an existing browser context.
func New(sess *session.Context, provider llm.Provider, opts ...Option) (*Agent, error) {
	if sess == nil {
		return nil, errors.New("agent requires a browser context")
	}
	if provider == nil {
		return nil, errors.New("agent requires a model provider")
	}

	cfg := sess.Config()
	a := &Agent{
		sess:         sess,
		provider:     provider,
		history:      PolicyFromConfig(cfg.History),
		verbose:      cfg.Verbose,
		systemPrompt: cfg.SystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.systemPrompt == "" {
		a.systemPrompt = config.DefaultSystemPrompt
	}

	for _, t := range sess.Registry().Tools() {
		a.tools = append(a.tools, llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}

	a.messages = []*types.Message{types.NewSystemMessage(a.systemPrompt)}
	return a, nil
}

// Open builds the browser tool catalogue for cfg, creates a browser context
// over factory and returns an agent that owns it.
func Open(cfg *config.Config, factory driver.Factory, provider llm.Provider, opts ...Option) (*Agent, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	registry, err := browser.NewRegistry(browser.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	sess, err := session.New(cfg, factory, registry)
	if err != nil {
		return nil, err
	}

	a, err := New(sess, provider, opts...)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	return a, nil
}

// Session returns the browser context the agent runs tools in.
func (a *Agent) Session() *session.Context {
	return a.sess
}

// CurrentTab returns the selected tab, or session.ErrNoCurrentTab.
func (a *Agent) CurrentTab() (*tab.Tab, error) {
	return a.sess.CurrentTab()
}

// Close releases the browser context. It is safe to call more than once.
func (a *Agent) Close() error {
	return a.sess.Close()
}

func (a *Agent) emit(event *types.AgentEvent) {
	if a.onEvent != nil {
		a.onEvent(event)
	}
}
