package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// CleanMarkdown strips an outer code fence (```markdown, ```json, ...) that models like
// to wrap answers in.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if len(cleaned) < 6 || !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") {
		return cleaned
	}

	body := strings.TrimSuffix(cleaned, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// first line is the fence plus an optional language tag
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "```")
	}
	return strings.TrimSpace(body)
}

// RenderMarkdownHTML converts Markdown to an HTML fragment using Goldmark (GFM tables enabled).
func RenderMarkdownHTML(input string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(input), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
