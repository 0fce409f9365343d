package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {
	cases := map[string]string{
		"SKILL.md":            "SKILL.md",
		"  ./docs/usage.md  ": "docs/usage.md",
		"././a.txt":           "a.txt",
		"/abs/file.py":        "abs/file.py",
		"":                    "",
		"   ":                 "",
		"dir/":                "",
		"../etc/passwd":       "",
		"a/../b.txt":          "",
		"a/./b.txt":           "",
		"a//b.txt":            "",
		`win\path.txt`:        "",
		"nul\x00byte.txt":     "",
		"notes..txt":          "notes..txt",
		"docs/..hidden.md":    "docs/..hidden.md",
		"docs/../x.md":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizePath(in), "input %q", in)
	}
}

func TestIsTextFile(t *testing.T) {
	assert.True(t, IsTextFile("SKILL.md", ""))
	assert.True(t, IsTextFile("scripts/run.SH", ""))
	assert.True(t, IsTextFile("icon.svg", ""))
	assert.True(t, IsTextFile("LICENSE", "text/plain; charset=utf-8"))
	assert.True(t, IsTextFile("data", "application/json"))
	assert.False(t, IsTextFile("logo.png", "image/png"))
	assert.False(t, IsTextFile("Makefile", ""))
	assert.False(t, IsTextFile("archive.zip", "application/zip"))
}
