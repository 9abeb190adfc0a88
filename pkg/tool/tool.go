// Package tool defines browser tools and the contract for running them.
//
// A Tool is declared once with Define from a Go parameter struct. The struct
// drives both the JSON Schema shown to the model and the validation of
// incoming arguments, so a handler only ever sees well-formed parameters.
// Handlers describe what they did (Outcome.Code) and may hand back an Effect
// that the dispatcher applies to the current tab immediately.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/entrhq/webpilot/pkg/config"
	"github.com/entrhq/webpilot/pkg/tab"
)

// Host is the browser context as seen by tool handlers.
type Host interface {
	// Tabs returns the open tabs in creation order.
	Tabs() []*tab.Tab

	// CurrentTab returns the selected tab or an error if none is selected.
	CurrentTab() (*tab.Tab, error)

	// EnsureTab returns the current tab, opening one if the context has none.
	EnsureTab(ctx context.Context) (*tab.Tab, error)

	// NewTab opens a tab and makes it current.
	NewTab(ctx context.Context) (*tab.Tab, error)

	// SelectTab makes the tab at index current.
	SelectTab(index int) (*tab.Tab, error)

	// CloseTab closes the tab at index. Closing the current tab leaves no
	// tab selected.
	CloseTab(index int) error

	// CloseBrowser closes every tab and releases the browser context. The
	// next tab opened obtains a fresh one.
	CloseBrowser() error

	// OutputDir is where files produced by tools are written.
	OutputDir() string

	// CheckURL returns an error if the network policy forbids rawURL.
	CheckURL(rawURL string) error

	// CheckFile resolves a local path a tool hands to the browser and
	// returns an error if the file policy forbids it.
	CheckFile(path string) (string, error)
}

// Outcome is what a handler reports back to the dispatcher.
type Outcome struct {
	// Code is the ordered, human-readable record of the action taken
	Code []string

	// Effect, if set, is applied to the current tab right after the handler returns
	Effect Effect

	// CaptureSnapshot asks the dispatcher to recompute the current tab's snapshot
	CaptureSnapshot bool

	// WaitForNetwork waits for network quiescence before recapturing
	WaitForNetwork bool
}

// Effect is a deferred page mutation carrying its own parameters.
type Effect interface {
	Apply(ctx context.Context, t *tab.Tab) error
}

// EffectFunc adapts a function to the Effect interface.
type EffectFunc func(ctx context.Context, t *tab.Tab) error

// Apply calls f(ctx, t).
func (f EffectFunc) Apply(ctx context.Context, t *tab.Tab) error {
	return f(ctx, t)
}

// Handler is the typed form of a tool's behaviour.
type Handler[T any] func(ctx context.Context, host Host, params T, resp *Response) (*Outcome, error)

// Tool is an immutable tool descriptor.
type Tool struct {
	name        string
	description string
	capability  config.Capability
	readOnly    bool

	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	rawJSON  json.RawMessage

	decode func(raw json.RawMessage) (any, error)
	handle func(ctx context.Context, host Host, params any, resp *Response) (*Outcome, error)
}

// Option customises a tool at definition time.
type Option func(*definition)

type definition struct {
	readOnly bool
	adjust   []func(*jsonschema.Schema)
}

// ReadOnly marks a tool that never mutates the page. Read-only tools keep
// the current snapshot when they do not capture a new one.
func ReadOnly() Option {
	return func(d *definition) {
		d.readOnly = true
	}
}

// WithSchema adjusts the generated schema, e.g. to add enums or bounds.
func WithSchema(fn func(*jsonschema.Schema)) Option {
	return func(d *definition) {
		d.adjust = append(d.adjust, fn)
	}
}

// Define builds a tool whose parameters are described by T. Fields without
// omitempty are required; the jsonschema tag holds the field description.
// Define panics if T cannot be expressed as a JSON Schema.
func Define[T any](name, description string, capability config.Capability, handle Handler[T], opts ...Option) *Tool {
	def := &definition{}
	for _, opt := range opts {
		opt(def)
	}

	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("tool %s: invalid parameter type: %v", name, err))
	}
	if schema.Properties == nil {
		schema.Properties = map[string]*jsonschema.Schema{}
	}
	for _, adjust := range def.adjust {
		adjust(schema)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("tool %s: unresolvable schema: %v", name, err))
	}

	rawJSON, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tool %s: schema not serializable: %v", name, err))
	}

	return &Tool{
		name:        name,
		description: description,
		capability:  capability,
		readOnly:    def.readOnly,
		schema:      schema,
		resolved:    resolved,
		rawJSON:     rawJSON,
		decode: func(raw json.RawMessage) (any, error) {
			var params T
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, err
			}
			return params, nil
		},
		handle: func(ctx context.Context, host Host, params any, resp *Response) (*Outcome, error) {
			return handle(ctx, host, params.(T), resp)
		},
	}
}

func (t *Tool) Name() string                  { return t.name }
func (t *Tool) Description() string           { return t.description }
func (t *Tool) Capability() config.Capability { return t.capability }
func (t *Tool) IsReadOnly() bool              { return t.readOnly }

// Schema returns the parameter schema as JSON.
func (t *Tool) Schema() json.RawMessage {
	return append(json.RawMessage(nil), t.rawJSON...)
}

// Validate checks raw arguments against the schema and decodes them. Empty
// input is treated as an empty object.
func (t *Tool) Validate(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, &ValidationError{Tool: t.name, Err: fmt.Errorf("arguments are not valid JSON: %w", err)}
	}
	if err := t.resolved.Validate(instance); err != nil {
		return nil, &ValidationError{Tool: t.name, Err: err}
	}

	params, err := t.decode(raw)
	if err != nil {
		return nil, &ValidationError{Tool: t.name, Err: err}
	}
	return params, nil
}
