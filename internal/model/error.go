package model

import "fmt"

// AppError is the structured payload carried by every typed error of the
// update pipeline. Stage names the pipeline step that failed.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	URL     string `json:"url,omitempty"`
	Line    int    `json:"line,omitempty"`    // 1-based; 0 means "not set"
	Snippet string `json:"snippet,omitempty"` // <= 200 chars
	Hint    string `json:"hint,omitempty"`
}

// Pipeline stages.
const (
	StageConfig     = "config"
	StageFetchKV    = "fetch_kv"
	StageParseNodes = "parse_nodes"
	StageRender     = "render"
	StageWrite      = "write"
)

// Format renders the common "<code>: <message>[: <cause>]" error text.
func (e AppError) Format(cause error) string {
	if cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, cause)
}

// Attrs flattens the error into slog key/value pairs.
func (e AppError) Attrs() []any {
	attrs := []any{"code", e.Code, "stage", e.Stage}
	if e.URL != "" {
		attrs = append(attrs, "url", e.URL)
	}
	if e.Line > 0 {
		attrs = append(attrs, "line", e.Line)
	}
	if e.Hint != "" {
		attrs = append(attrs, "hint", e.Hint)
	}
	return attrs
}
