package bundle

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFrontmatter reads the leading "---" block of a readme into a flat
// string map. Scalar values are kept verbatim; sequences and mappings are
// re-encoded as JSON. When the block is not valid YAML it falls back to
// "key: value" lines. A missing block yields an empty map.
func ParseFrontmatter(content string) map[string]string {
	out := map[string]string{}
	block, ok := frontmatterBlock(content)
	if !ok {
		return out
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err == nil && len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode {
		m := doc.Content[0]
		for i := 0; i+1 < len(m.Content); i += 2 {
			key := strings.TrimSpace(m.Content[i].Value)
			if key == "" {
				continue
			}
			if v, ok := nodeString(m.Content[i+1]); ok {
				out[key] = v
			}
		}
		return out
	}

	for _, line := range strings.Split(block, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.HasPrefix(key, "#") {
			continue
		}
		out[key] = trimQuotes(strings.TrimSpace(value))
	}
	return out
}

// FrontmatterValue returns the trimmed value for key, or "" when absent.
func FrontmatterValue(fm map[string]string, key string) string {
	if fm == nil {
		return ""
	}
	return strings.TrimSpace(fm[key])
}

// StripFrontmatter returns the readme body without the frontmatter block.
func StripFrontmatter(content string) string {
	s := strings.TrimPrefix(content, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return content
	}
	rest := s[len("---\n"):]
	end := closingDelimiter(rest)
	if end < 0 {
		return content
	}
	body := rest[end:]
	body = strings.TrimPrefix(body, "---")
	return strings.TrimLeft(body, "\n")
}

func frontmatterBlock(content string) (string, bool) {
	s := strings.TrimPrefix(content, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return "", false
	}
	rest := s[len("---\n"):]
	end := closingDelimiter(rest)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// closingDelimiter finds the offset of the "---" line ending the block.
func closingDelimiter(rest string) int {
	if strings.HasPrefix(rest, "---") {
		return 0
	}
	i := strings.Index(rest, "\n---")
	if i < 0 {
		return -1
	}
	return i + 1
}

func nodeString(n *yaml.Node) (string, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, true
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeString(n.Alias)
		}
		return "", false
	case yaml.SequenceNode, yaml.MappingNode:
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return "", false
		}
		raw, err := json.Marshal(normalizeYAML(v))
		if err != nil {
			return "", false
		}
		return string(raw), true
	default:
		return "", false
	}
}

// normalizeYAML converts map[interface{}]interface{} trees into JSON-encodable
// values.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[toString(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
