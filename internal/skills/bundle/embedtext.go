package bundle

import (
	"sort"
	"strings"

	"github.com/yungbote/skillhub-backend/internal/domain/skills"
)

const (
	MaxFilesForEmbedding = 40
	MaxEmbeddingChars    = 24000
)

type TextFile struct {
	Path    string
	Content string
}

// EmbeddingCandidates picks, in bundle order, the non-markdown text files
// whose content feeds the embedding.
func EmbeddingCandidates(files []skills.VersionFile) []skills.VersionFile {
	var out []skills.VersionFile
	for _, f := range files {
		if f.Path == "" || isMarkdown(f.Path) {
			continue
		}
		if !IsTextFile(f.Path, f.ContentType) {
			continue
		}
		out = append(out, f)
		if len(out) >= MaxFilesForEmbedding {
			break
		}
	}
	return out
}

// BuildEmbeddingText renders frontmatter, readme and other files into one
// blob of at most MaxEmbeddingChars runes.
func BuildEmbeddingText(fm map[string]string, readme string, others []TextFile) string {
	var parts []string
	if len(fm) > 0 {
		keys := make([]string, 0, len(fm))
		for k := range fm {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, k+": "+fm[k])
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	if body := strings.TrimSpace(StripFrontmatter(readme)); body != "" {
		parts = append(parts, body)
	}
	for _, f := range others {
		parts = append(parts, "# "+f.Path+"\n"+f.Content)
	}
	return truncateRunes(strings.Join(parts, "\n\n"), MaxEmbeddingChars)
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
