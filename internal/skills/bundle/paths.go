package bundle

import "strings"

// SanitizePath normalizes a bundle-relative path. It returns "" for anything
// that could escape the bundle root or is not a file path.
func SanitizePath(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" || strings.ContainsRune(p, 0) || strings.Contains(p, `\`) {
		return ""
	}
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	p = strings.TrimLeft(p, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".", "..":
			return ""
		}
	}
	return p
}
