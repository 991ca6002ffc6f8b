package edits

import (
	"cmp"
	"slices"
	"strings"
)

// Apply applies non-overlapping edits to text and returns the updated text.
//
// Edits are validated from the end of the text toward the beginning: every
// span must satisfy 0 <= start <= end <= boundary, where boundary starts at
// len(text) and becomes the start of the previously validated edit. Callers
// that bypass Resolve and pass overlapping edits get a *SpanError. Nothing is
// applied unless every edit is valid.
func Apply(text string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}

	ordered := slices.Clone(edits)
	slices.SortStableFunc(ordered, func(a, b Edit) int {
		return cmp.Compare(b.Span.Start, a.Span.Start)
	})

	boundary := len(text)
	for _, e := range ordered {
		if err := checkSpan(e, boundary); err != nil {
			return "", err
		}
		boundary = e.Span.Start
	}

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for i := len(ordered) - 1; i >= 0; i-- {
		e := ordered[i]
		b.WriteString(text[cursor:e.Span.Start])
		b.WriteString(e.Replacement)
		cursor = e.Span.End
	}
	b.WriteString(text[cursor:])
	return b.String(), nil
}

func checkSpan(e Edit, boundary int) error {
	s := e.Span
	var reason string
	switch {
	case s.Start < 0:
		reason = "negative start"
	case s.End < s.Start:
		reason = "end before start"
	case s.End > boundary:
		reason = "end past boundary"
	default:
		return nil
	}
	return &SpanError{Doc: e.Doc, Span: s, Boundary: boundary, Reason: reason}
}
