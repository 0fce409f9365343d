package bundle

import (
	"path"
	"strings"
)

var textExtensions = map[string]struct{}{
	"md": {}, "mdx": {}, "txt": {}, "json": {}, "json5": {}, "yaml": {}, "yml": {}, "toml": {},
	"js": {}, "cjs": {}, "mjs": {}, "ts": {}, "tsx": {}, "jsx": {}, "py": {}, "sh": {}, "rb": {},
	"go": {}, "rs": {}, "swift": {}, "kt": {}, "java": {}, "cs": {}, "cpp": {}, "c": {}, "h": {},
	"hpp": {}, "sql": {}, "csv": {}, "ini": {}, "cfg": {}, "env": {}, "xml": {}, "html": {},
	"css": {}, "scss": {}, "sass": {}, "svg": {},
}

var textContentTypes = map[string]struct{}{
	"application/json":       {},
	"application/xml":        {},
	"application/yaml":       {},
	"application/x-yaml":     {},
	"application/toml":       {},
	"application/javascript": {},
	"image/svg+xml":          {},
}

// IsTextFile classifies a file as text by extension or declared content type.
func IsTextFile(p, contentType string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if _, ok := textExtensions[ext]; ok && ext != "" {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" {
		return false
	}
	if strings.HasPrefix(ct, "text/") {
		return true
	}
	_, ok := textContentTypes[ct]
	return ok
}

func isMarkdown(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}
