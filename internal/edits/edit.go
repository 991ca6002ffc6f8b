// Package edits resolves and applies span replacements against document text.
//
// Edits are proposals produced independently by language engines. Resolve
// turns a flat multiset of them into non-overlapping, ordered groups per
// document (outermost edit wins on nesting, partial overlap is an error) and
// Apply splices a resolved group into the original text.
//
// Offsets are byte offsets into the UTF-8 text of the document, half-open.
package edits

import (
	"fmt"
	"path/filepath"
)

// DocID identifies a document. The canonical form is a cleaned, slash-separated path.
type DocID string

// NewDocID returns the canonical identity for a filesystem path.
func NewDocID(path string) DocID {
	return DocID(filepath.ToSlash(filepath.Clean(path)))
}

// String returns the canonical form used for cross-document ordering.
func (d DocID) String() string {
	return string(d)
}

// Span is a half-open range [Start, End) of byte offsets.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty reports whether the span is a pure insertion point.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Contains reports whether other lies entirely within s. Equal spans contain each other.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps reports whether the two spans share at least one byte.
// Adjacent spans do not overlap.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("(%d,%d)", s.Start, s.End)
}

// Edit is a proposed replacement of Span in the original text of Doc.
type Edit struct {
	Doc         DocID
	Span        Span
	Replacement string
}

// Replace builds an edit replacing text[start:end] of doc.
func Replace(doc DocID, start, end int, replacement string) Edit {
	return Edit{Doc: doc, Span: Span{Start: start, End: end}, Replacement: replacement}
}

// Delete builds an edit removing text[start:end] of doc.
func Delete(doc DocID, start, end int) Edit {
	return Replace(doc, start, end, "")
}

// Insert builds a pure insertion at offset.
func Insert(doc DocID, offset int, text string) Edit {
	return Replace(doc, offset, offset, text)
}

func (e Edit) String() string {
	return fmt.Sprintf("%s%s->%q", e.Doc, e.Span, e.Replacement)
}

// Group is the resolved edit set of one document: sorted by ascending start,
// each edit ending at or before the next one starts.
type Group struct {
	Doc   DocID
	Edits []Edit
}
