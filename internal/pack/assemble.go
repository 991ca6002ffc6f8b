package pack

import (
	"path"
	"strings"
)

// EmptyPack is the output when no file is handled by an engine.
const EmptyPack = "# (no files found)\n"

var fenceLanguages = map[string]string{
	"py":       "python",
	"pyi":      "python",
	"go":       "go",
	"md":       "markdown",
	"markdown": "markdown",
	"yaml":     "yaml",
	"yml":      "yaml",
	"toml":     "toml",
}

// Shown is one document as it appears in the pack.
type Shown struct {
	Path string
	Text string
}

// Assemble concatenates documents as fenced sections in the given order.
func Assemble(docs []Shown) string {
	if len(docs) == 0 {
		return EmptyPack
	}

	var b strings.Builder
	for _, d := range docs {
		fence := Fence(d.Text)
		b.WriteString("\n### ")
		b.WriteString(d.Path)
		b.WriteString("\n\n")
		b.WriteString(fence)
		b.WriteString(FenceLanguage(d.Path))
		b.WriteString("\n")
		b.WriteString(d.Text)
		b.WriteString("\n")
		b.WriteString(fence)
		b.WriteString("\n")
	}
	return b.String()
}

// Fence returns a backtick fence longer than any backtick run in text,
// and at least three long.
func Fence(text string) string {
	longest, run := 0, 0
	for i := 0; i < len(text); i++ {
		if text[i] == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

// FenceLanguage is the info string for a file, or "" when unknown.
func FenceLanguage(p string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	return fenceLanguages[ext]
}
