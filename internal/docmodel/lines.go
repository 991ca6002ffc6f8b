package docmodel

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/promptpack/internal/edits"
)

// Lines indexes line starts of a text for offset/line conversions.
// Line numbers are 1-based.
type Lines struct {
	text   string
	starts []int
}

// NewLines indexes text.
func NewLines(text string) *Lines {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	return &Lines{text: text, starts: starts}
}

// Count returns the number of lines in the text.
func (l *Lines) Count() int {
	if l.text == "" {
		return 0
	}
	return len(l.starts)
}

// Line returns the line containing offset.
func (l *Lines) Line(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset })
}

// Start returns the offset of the first byte of line.
func (l *Lines) Start(line int) int {
	if line < 1 {
		return 0
	}
	if line > len(l.starts) {
		return len(l.text)
	}
	return l.starts[line-1]
}

// End returns the offset just past the newline that terminates line, or the
// end of the text for the last line.
func (l *Lines) End(line int) int {
	if line < len(l.starts) {
		return l.starts[line]
	}
	return len(l.text)
}

// LineStart returns the start of the line containing offset.
func (l *Lines) LineStart(offset int) int {
	return l.Start(l.Line(offset))
}

// LineEnd returns the end of the line containing offset, newline included.
func (l *Lines) LineEnd(offset int) int {
	return l.End(l.Line(offset))
}

// Expand widens s to whole lines. An end already at a line start stays put.
func (l *Lines) Expand(s edits.Span) edits.Span {
	start := l.LineStart(s.Start)
	end := s.End
	if end > start && l.LineStart(end) != end {
		end = l.LineEnd(end)
	}
	if end == start {
		end = l.LineEnd(start)
	}
	return edits.Span{Start: start, End: end}
}

// LinesIn returns the first and last line touched by s.
func (l *Lines) LinesIn(s edits.Span) (first, last int) {
	first = l.Line(s.Start)
	last = first
	if s.End > s.Start {
		last = l.Line(s.End - 1)
	}
	return first, last
}

// Indent returns the leading blanks of the line containing offset.
func (l *Lines) Indent(offset int) string {
	return Indentation(l.text[l.LineStart(offset):])
}

// Indentation returns the leading spaces and tabs of line.
func Indentation(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// IsBlank reports whether line holds only whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Newline returns "\r\n" when text uses CRLF line endings, else "\n".
func Newline(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// Newline returns the line terminator used inside s, or the text's when s
// spans no line break.
func (l *Lines) Newline(s edits.Span) string {
	if seg := l.text[s.Start:s.End]; strings.Contains(seg, "\n") {
		return Newline(seg)
	}
	return Newline(l.text)
}

// LineRange renders an inclusive line range as "line 7" or "lines 7–9".
func LineRange(first, last int) string {
	if first == last {
		return fmt.Sprintf("line %d", first)
	}
	return fmt.Sprintf("lines %d–%d", first, last)
}
