package tool

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/entrhq/webpilot/pkg/tab"
)

// Image is binary image output of a tool.
type Image struct {
	Data     []byte
	MimeType string
}

// Response accumulates the output of one tool invocation.
type Response struct {
	tool      string
	arguments json.RawMessage

	code     []string
	results  []string
	images   []Image
	snapshot *tab.Snapshot
	err      error
}

// NewResponse creates an empty response bound to one invocation.
func NewResponse(toolName string, arguments json.RawMessage) *Response {
	return &Response{
		tool:      toolName,
		arguments: append(json.RawMessage(nil), arguments...),
	}
}

// AddResult appends a text result.
func (r *Response) AddResult(text string) {
	r.results = append(r.results, text)
}

// AddImage appends an image result.
func (r *Response) AddImage(data []byte, mimeType string) {
	r.images = append(r.images, Image{Data: data, MimeType: mimeType})
}

// SetError marks the response as failed. Later output is still recorded
// but only the error text is serialized.
func (r *Response) SetError(err error) {
	r.err = err
}

func (r *Response) addCode(code []string) {
	r.code = append(r.code, code...)
}

func (r *Response) setSnapshot(s *tab.Snapshot) {
	r.snapshot = s
}

func (r *Response) Tool() string               { return r.tool }
func (r *Response) Arguments() json.RawMessage { return r.arguments }
func (r *Response) Code() []string             { return append([]string(nil), r.code...) }
func (r *Response) Images() []Image            { return append([]Image(nil), r.images...) }
func (r *Response) IsError() bool              { return r.err != nil }
func (r *Response) Err() error                 { return r.err }

// Snapshot returns the snapshot captured for this invocation, if any.
func (r *Response) Snapshot() (*tab.Snapshot, bool) {
	return r.snapshot, r.snapshot != nil
}

// Text renders the textual part of the response. A failed response renders
// as the error message alone.
func (r *Response) Text() string {
	if r.err != nil {
		return r.err.Error()
	}

	var sections []string
	if len(r.code) > 0 {
		sections = append(sections, "- Ran Playwright code:\n```js\n"+strings.Join(r.code, "\n")+"\n```")
	}
	sections = append(sections, r.results...)
	if r.snapshot != nil {
		sections = append(sections, r.snapshot.Text)
	}
	return strings.Join(sections, "\n\n")
}

// Result serializes the response into the tool-result wire form: ordered
// text and image content entries plus the error flag.
func (r *Response) Result() *mcp.CallToolResult {
	result := &mcp.CallToolResult{IsError: r.IsError()}

	if text := r.Text(); text != "" || r.IsError() {
		result.Content = append(result.Content, mcp.NewTextContent(text))
	}
	if !r.IsError() {
		for _, img := range r.images {
			result.Content = append(result.Content, mcp.NewImageContent(base64.StdEncoding.EncodeToString(img.Data), img.MimeType))
		}
	}
	return result
}

// TextOf joins the text entries of a serialized result.
func TextOf(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
