package edits

import "fmt"

// ConflictError reports two edits on the same document that partially overlap.
type ConflictError struct {
	Doc      DocID
	Kept     Span
	Rejected Span
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping edits on %s: %s vs %s", e.Doc, e.Kept, e.Rejected)
}

// SpanError reports an edit whose span is not applicable to the text being patched.
type SpanError struct {
	Doc      DocID
	Span     Span
	Boundary int
	Reason   string
}

func (e *SpanError) Error() string {
	if e.Doc == "" {
		return fmt.Sprintf("invalid or overlapping span %s (boundary %d): %s", e.Span, e.Boundary, e.Reason)
	}
	return fmt.Sprintf("invalid or overlapping span %s on %s (boundary %d): %s", e.Span, e.Doc, e.Boundary, e.Reason)
}
