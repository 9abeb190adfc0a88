package playwright

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// cleanedDocument is the semantic HTML rendering of a page.
type cleanedDocument struct {
	HTML        string
	Title       string
	Description string
	Truncated   bool
}

var (
	skippedElements = setOf("script", "style", "noscript", "iframe", "embed", "object", "svg", "template")

	blockElements = setOf(
		"div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li",
		"table", "tr", "td", "th", "form", "fieldset", "blockquote", "pre", "dialog",
	)

	voidElements = setOf(
		"area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr",
	)

	// Attributes worth keeping on every element: they are what selectors
	// and the accessibility tree key on.
	globalAttributes = setOf(
		"id", "role", "name", "title", "aria-label", "aria-describedby",
		"aria-checked", "aria-expanded", "aria-selected", "aria-disabled",
		"data-testid",
	)
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// htmlCleaner strips noise from a document while keeping its structure and
// the attributes needed to target elements.
type htmlCleaner struct {
	out       strings.Builder
	length    int
	maxLength int
}

// cleanHTML parses rawHTML and renders it back as indented semantic HTML,
// truncated to maxLength characters of content.
func cleanHTML(rawHTML string, maxLength int) (*cleanedDocument, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &htmlCleaner{maxLength: maxLength}
	body := findElement(doc, "body")
	if body == nil {
		body = doc
	}
	truncated := c.children(body, 0)

	return &cleanedDocument{
		HTML:        strings.TrimSpace(c.out.String()),
		Title:       textOf(findElement(doc, "title")),
		Description: metaDescription(doc),
		Truncated:   truncated,
	}, nil
}

// node writes n and reports whether the output was truncated.
func (c *htmlCleaner) node(n *html.Node, depth int) bool {
	if c.length >= c.maxLength {
		return true
	}

	switch n.Type {
	case html.CommentNode:
		return false
	case html.TextNode:
		return c.text(n.Data)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] || isHidden(n) {
			return false
		}
		return c.element(n, tag, depth)
	default:
		return c.children(n, depth)
	}
}

func (c *htmlCleaner) text(data string) bool {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		return false
	}

	if c.length+len(text) > c.maxLength {
		text = text[:c.maxLength-c.length] + "..."
		c.out.WriteString(text)
		c.length = c.maxLength
		return true
	}

	c.out.WriteString(text)
	c.length += len(text)
	return false
}

func (c *htmlCleaner) element(n *html.Node, tag string, depth int) bool {
	block := blockElements[tag]
	if block {
		c.newline(depth)
	}

	c.out.WriteString("<" + tag)
	for _, attr := range n.Attr {
		if keepAttribute(tag, strings.ToLower(attr.Key)) {
			fmt.Fprintf(&c.out, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	c.out.WriteString(">")
	c.length += len(tag) + 2

	truncated := c.children(n, depth+1)

	if !voidElements[tag] {
		if block {
			c.newline(depth)
		}
		c.out.WriteString("</" + tag + ">")
		c.length += len(tag) + 3
	}
	return truncated
}

func (c *htmlCleaner) children(n *html.Node, depth int) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if c.node(child, depth) {
			return true
		}
	}
	return false
}

func (c *htmlCleaner) newline(depth int) {
	if c.out.Len() == 0 {
		return
	}
	c.out.WriteString("\n")
	c.out.WriteString(strings.Repeat("  ", depth))
}

func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "type":
			if strings.ToLower(n.Data) == "input" && strings.EqualFold(attr.Val, "hidden") {
				return true
			}
		}
	}
	return false
}

func keepAttribute(tag, attr string) bool {
	if globalAttributes[attr] {
		return true
	}

	switch tag {
	case "a":
		return attr == "href"
	case "img":
		return attr == "alt"
	case "input", "textarea", "select", "option":
		return attr == "type" || attr == "placeholder" || attr == "value" || attr == "checked" || attr == "selected"
	case "button":
		return attr == "type" || attr == "disabled"
	case "form":
		return attr == "action" || attr == "method"
	case "label":
		return attr == "for"
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil || n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(n.FirstChild.Data)
}

func metaDescription(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.ElementNode && n.Data == "meta" {
		var name, content string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "name":
				name = attr.Val
			case "content":
				content = attr.Val
			}
		}
		if name == "description" && content != "" {
			return strings.TrimSpace(content)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if desc := metaDescription(child); desc != "" {
			return desc
		}
	}
	return ""
}
