// Package frontmatter locates YAML frontmatter at the top of a Markdown
// document and computes content fingerprints over it.
package frontmatter

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Style captures the newline shape of a document.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Block is a `---` delimited frontmatter block found at offset 0.
type Block struct {
	// Raw is the YAML between the delimiters.
	Raw string
	// End is the offset just past the closing delimiter line, where the body starts.
	End int
	// Style is the newline style detected for the whole document.
	Style Style
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split finds the frontmatter block of content. If content does not start with
// a delimiter line, ok is false and the whole input is body.
func Split(content string) (block Block, ok bool, err error) {
	style := detectStyle(content)
	nl := style.Newline
	delim := "---" + nl

	if !strings.HasPrefix(content, delim) {
		return Block{Style: style}, false, nil
	}

	start := len(delim)
	if strings.HasPrefix(content[start:], delim) {
		return Block{End: start + len(delim), Style: style}, true, nil
	}

	closeSeq := nl + delim
	idx := strings.Index(content[start:], closeSeq)
	if idx < 0 {
		return Block{Style: style}, false, ErrMissingClosingDelimiter
	}

	return Block{
		Raw:   content[start : start+idx+len(nl)],
		End:   start + idx + len(closeSeq),
		Style: style,
	}, true, nil
}

// Body returns the part of content after the frontmatter block.
func Body(content string) string {
	block, ok, err := Split(content)
	if err != nil || !ok {
		return content
	}
	return content[block.End:]
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Title returns the string "title" field, if any.
func Title(fields map[string]any) string {
	title, _ := fields["title"].(string)
	return strings.TrimSpace(title)
}

func detectStyle(content string) Style {
	newline := "\n"
	if i := strings.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}
	return Style{
		Newline:            newline,
		HasTrailingNewline: strings.HasSuffix(content, "\n"),
	}
}
