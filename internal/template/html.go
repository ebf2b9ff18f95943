package template

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

// RenderHTML converts the README markdown into a standalone HTML page. Node
// names come from upstream, so the converted body is sanitized.
func RenderHTML(md string, title string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return "", renderError("HTML 渲染失败", err)
	}

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html lang=\"zh-CN\">\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n</head>\n<body>\n")
	b.Write(policy.SanitizeBytes(body.Bytes()))
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}
