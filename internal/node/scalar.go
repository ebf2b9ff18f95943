package node

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scalar is an optional YAML scalar. It keeps the literal text of the value so
// that numbers are re-emitted exactly as written, and it remembers whether the
// key was present at all.
type Scalar struct {
	text string
	tag  string
	set  bool
}

// Text returns a present string scalar.
func Text(s string) Scalar { return Scalar{text: s, tag: "!!str", set: true} }

// Int returns a present integer scalar.
func Int(i int) Scalar { return Scalar{text: strconv.Itoa(i), tag: "!!int", set: true} }

// Bool returns a present boolean scalar.
func Bool(b bool) Scalar { return Scalar{text: strconv.FormatBool(b), tag: "!!bool", set: true} }

func (s *Scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: 期望标量值，实际为 %s", n.Line, kindName(n.Kind))
	}
	if n.ShortTag() == "!!null" {
		*s = Scalar{}
		return nil
	}
	*s = Scalar{text: n.Value, tag: n.ShortTag(), set: true}
	return nil
}

// Get returns the literal text and whether the key was present.
func (s Scalar) Get() (string, bool) { return s.text, s.set }

// Or returns the literal text, or fallback when the key is absent. A present
// but empty value is returned as-is.
func (s Scalar) Or(fallback string) string {
	if !s.set {
		return fallback
	}
	return s.text
}

// Truthy reports whether the value counts as "set" for optional parameters:
// true booleans, non-zero numbers and non-empty strings.
func (s Scalar) Truthy() bool {
	if !s.set {
		return false
	}
	switch s.tag {
	case "!!bool":
		b, err := strconv.ParseBool(strings.ToLower(s.text))
		return err == nil && b
	case "!!int":
		i, err := strconv.ParseInt(s.text, 0, 64)
		if err != nil {
			return s.text != ""
		}
		return i != 0
	case "!!float":
		f, err := strconv.ParseFloat(s.text, 64)
		if err != nil {
			return s.text != ""
		}
		return f != 0
	default:
		return s.text != ""
	}
}

// Flag is Truthy for boolean keys. yaml.v3 resolves the YAML 1.1 spellings
// n, no and off as strings; Flag reads them as false, like Clash cores do.
func (s Scalar) Flag() bool {
	if s.tag == "!!str" {
		switch strings.ToLower(s.text) {
		case "n", "no", "off", "false":
			return false
		}
	}
	return s.Truthy()
}

// Either returns primary when it is truthy, else fallback.
func Either(primary Scalar, fallback string) string {
	if primary.Truthy() {
		return primary.text
	}
	return fallback
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "scalar"
	}
}
