// Package template renders the README that lists the sampled nodes.
package template

import (
	_ "embed"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed readme.md.tmpl
var readmeText string

var readmeTmpl = texttemplate.Must(texttemplate.New("readme").Parse(readmeText))

// TimeLayout is the timestamp layout shown in the README.
const TimeLayout = "2006-01-02 15:04:05"

var beijing = time.FixedZone("UTC+8", 8*60*60)

// BeijingTime formats t in the fixed UTC+8 zone.
func BeijingTime(t time.Time) string {
	return t.In(beijing).Format(TimeLayout)
}

type Page struct {
	UpdateTime      string
	Links           []string
	SubscriptionURL string
}

// FencedBlocks wraps each non-empty link in its own ``` block, with a blank
// line between blocks. Empty links are skipped.
func FencedBlocks(links []string) string {
	lines := make([]string, 0, len(links)*4)
	for _, l := range links {
		if l == "" {
			continue
		}
		lines = append(lines, "```", l, "```", "")
	}
	return strings.Join(lines, "\n")
}

// RenderReadme returns the full README text for p.
func RenderReadme(p Page) (string, error) {
	data := struct {
		UpdateTime      string
		Nodes           string
		SubscriptionURL string
	}{
		UpdateTime:      p.UpdateTime,
		Nodes:           FencedBlocks(p.Links),
		SubscriptionURL: p.SubscriptionURL,
	}

	var b strings.Builder
	if err := readmeTmpl.Execute(&b, data); err != nil {
		return "", renderError("README 渲染失败", err)
	}
	return b.String(), nil
}
