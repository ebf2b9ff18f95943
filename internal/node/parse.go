package node

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/free-servers/internal/model"
)

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.AppError.Format(e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

type document struct {
	Proxies []Record `yaml:"proxies"`
}

// ParseProxies decodes the top-level `proxies` sequence. An empty document or
// a document without `proxies` yields zero records and no error.
func ParseProxies(source string, content string) ([]Record, error) {
	s := strings.TrimPrefix(content, "\uFEFF")
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var doc document
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		line := yamlErrorLine(err)
		return nil, &ParseError{
			AppError: model.AppError{
				Code:    "NODES_PARSE_ERROR",
				Message: "节点数据不是合法的 YAML",
				Stage:   model.StageParseNodes,
				URL:     source,
				Line:    line,
				Snippet: snippetAt(s, line, 200),
				Hint:    "expected: proxies: [ {name, type, server, port, ...} ]",
			},
			Cause: err,
		}
	}
	return doc.Proxies, nil
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func yamlErrorLine(err error) int {
	msg := err.Error()
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	m := yamlLineRe.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n
}

func snippetAt(s string, line int, max int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if line > len(lines) {
		return ""
	}
	out := strings.TrimRight(lines[line-1], "\r")
	if len(out) > max {
		out = out[:max]
	}
	return out
}
